package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/repository"
)

func newAuthFixture(t *testing.T) (AuthService, *invitationFixture) {
	t.Helper()

	f := newInvitationFixture(t)
	svc := NewAuthService(
		repository.NewSQLiteUserRepo(f.conn),
		repository.NewSQLiteSessionRepo(f.conn),
		f.svc,
		"test-secret",
		15, // access: 15 dakika
		30, // refresh: 30 gün
	)

	return svc, f
}

func TestAuthService_Register_WithoutInvitation(t *testing.T) {
	svc, f := newAuthFixture(t)
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{
		Username: "ayse",
		Password: "sifre12345",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "ayse", tokens.User.Username)
	assert.Empty(t, tokens.User.PasswordHash)

	// Davetsiz kayıt — bakiye satırı açılmaz
	_, err = f.credits.GetBalance(ctx, tokens.User.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestAuthService_Register_WithInvitation(t *testing.T) {
	svc, f := newAuthFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "davetci")
	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{
		Username:       "fatma",
		Password:       "sifre12345",
		InvitationCode: inv.Code,
	})
	require.NoError(t, err)

	// Yeni kullanıcı welcome kredisiyle başlar, davet sahibi ödül alır
	balance, err := f.credits.GetBalance(ctx, tokens.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Credits)

	ownerBalance, err := f.credits.GetBalance(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, ownerBalance.Credits)
}

func TestAuthService_Register_InvalidInvitation(t *testing.T) {
	svc, f := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.CreateUserRequest{
		Username:       "fatma",
		Password:       "sifre12345",
		InvitationCode: "yok-boyle-bir-kod",
	})
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Geçersiz kodla hesap YARATILMAZ
	_, err = repository.NewSQLiteUserRepo(f.conn).GetByUsername(ctx, "fatma")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestAuthService_Register_UsedInvitation(t *testing.T) {
	svc, f := newAuthFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "davetci")
	first := createTestUser(t, f.conn, "ilk")

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      first.ID,
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &models.CreateUserRequest{
		Username:       "fatma",
		Password:       "sifre12345",
		InvitationCode: inv.Code,
	})
	assert.ErrorIs(t, err, pkg.ErrCodeAlreadyUsed)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	req := &models.CreateUserRequest{Username: "ayse", Password: "sifre12345"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, &models.CreateUserRequest{Username: "ayse", Password: "sifre12345"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateUserRequest
	}{
		{"short username", models.CreateUserRequest{Username: "ab", Password: "sifre12345"}},
		{"short password", models.CreateUserRequest{Username: "ayse", Password: "kisa"}},
		{"invalid chars", models.CreateUserRequest{Username: "ayşe!", Password: "sifre12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.req)
			assert.ErrorIs(t, err, pkg.ErrBadRequest)
		})
	}
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.CreateUserRequest{Username: "ayse", Password: "sifre12345"})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, &models.LoginRequest{Username: "ayse", Password: "sifre12345"})
	require.NoError(t, err)

	// Access token doğrulanabilir
	claims, err := svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.User.ID, claims.UserID)

	// Refresh rotation: eski token geçersizleşir
	rotated, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.CreateUserRequest{Username: "ayse", Password: "sifre12345"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{Username: "ayse", Password: "yanlis-sifre"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Bilinmeyen kullanıcı da aynı hatayı alır — enumeration engeli
	_, err = svc.Login(ctx, &models.LoginRequest{Username: "yok", Password: "sifre12345"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{Username: "ayse", Password: "sifre12345"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))

	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthService_ValidateAccessToken_Invalid(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	tokens, err := svc.Register(ctx, &models.CreateUserRequest{Username: "ayse", Password: "sifre12345"})
	require.NoError(t, err)

	// Yanlış mevcut şifre
	err = svc.ChangePassword(ctx, tokens.User.ID, "yanlis", "yeni-sifre-123")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Çok kısa yeni şifre
	err = svc.ChangePassword(ctx, tokens.User.ID, "sifre12345", "kisa")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, svc.ChangePassword(ctx, tokens.User.ID, "sifre12345", "yeni-sifre-123"))

	_, err = svc.Login(ctx, &models.LoginRequest{Username: "ayse", Password: "yeni-sifre-123"})
	require.NoError(t, err)
}
