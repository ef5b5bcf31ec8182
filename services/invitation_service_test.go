package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/ws"
)

func TestInvitationService_Create(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	assert.Len(t, inv.Code, 16) // 8 byte → 16 hex karakter
	assert.Equal(t, owner.ID, inv.OwnerUserID)
	assert.False(t, inv.CreatedAt.IsZero())

	// Kodlar benzersiz
	inv2, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotEqual(t, inv.Code, inv2.Code)
}

func TestInvitationService_ListMine(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")
	friend := createTestUser(t, f.conn, "fatma")

	// Boş liste — nil değil
	list, err := f.svc.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      friend.ID,
	})
	require.NoError(t, err)

	list, err = f.svc.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inv.Code, list[0].Code)
	require.NotNil(t, list[0].UsedBy)
	assert.Equal(t, friend.ID, *list[0].UsedBy)
	require.NotNil(t, list[0].UsedAt)
}

func TestInvitationService_Preview(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	displayName := "Ayşe K."
	owner := createTestUser(t, f.conn, "ayse")
	owner.DisplayName = &displayName
	// DisplayName'i DB'ye yazmak için insert'i güncelleme ile değil
	// doğrudan SQL ile yapıyoruz — repository'de ayrı update yolu yok.
	_, err := f.conn.Exec("UPDATE users SET display_name = ? WHERE id = ?", displayName, owner.ID)
	require.NoError(t, err)

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	preview, err := f.svc.Preview(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, "ayse", preview.OwnerUsername)
	require.NotNil(t, preview.OwnerDisplayName)
	assert.Equal(t, displayName, *preview.OwnerDisplayName)

	// İkinci çağrı cache'ten gelir — aynı sonuç
	cached, err := f.svc.Preview(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, preview.OwnerUsername, cached.OwnerUsername)

	// Bilinmeyen kod
	_, err = f.svc.Preview(ctx, "nope")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Boş kod
	_, err = f.svc.Preview(ctx, "")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestInvitationService_Redeem_Success(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")
	friend := createTestUser(t, f.conn, "fatma")

	// Davet sahibinin mevcut bakiyesi var (kendisi de davetle gelmiş olabilir)
	require.NoError(t, f.credits.InsertBalance(ctx, owner.ID, 10))

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	balance, err := f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      friend.ID,
	})
	require.NoError(t, err)

	// Yeni kullanıcı welcome kredisiyle başlar
	assert.Equal(t, friend.ID, balance.UserID)
	assert.Equal(t, 10, balance.Credits)

	// Davet sahibi referral ödülünü aldı
	ownerBalance, err := f.credits.GetBalance(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, ownerBalance.Credits)

	// Her iki tarafa credits_update gitti
	friendEvents := f.hub.eventsFor(friend.ID)
	require.Len(t, friendEvents, 1)
	assert.Equal(t, ws.OpCreditsUpdate, friendEvents[0].Op)

	ownerEvents := f.hub.eventsFor(owner.ID)
	require.Len(t, ownerEvents, 1)
	assert.Equal(t, ws.OpCreditsUpdate, ownerEvents[0].Op)
}

func TestInvitationService_Redeem_ReferrerWithoutBalanceRow(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	// Davet sahibinin hiç bakiye satırı yok — AddCredits upsert ile satır açar
	owner := createTestUser(t, f.conn, "ayse")
	friend := createTestUser(t, f.conn, "fatma")

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      friend.ID,
	})
	require.NoError(t, err)

	ownerBalance, err := f.credits.GetBalance(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, ownerBalance.Credits)
}

func TestInvitationService_Redeem_CodeAlreadyUsed(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")
	friend := createTestUser(t, f.conn, "fatma")
	third := createTestUser(t, f.conn, "zeynep")

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      friend.ID,
	})
	require.NoError(t, err)

	// Aynı kod ikinci kez kullanılamaz
	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      third.ID,
	})
	assert.ErrorIs(t, err, pkg.ErrCodeAlreadyUsed)

	// Üçüncü kullanıcının bakiyesi oluşmadı
	_, err = f.credits.GetBalance(ctx, third.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Ledger'da tek kullanım satırı var
	var count int
	require.NoError(t, f.conn.QueryRow(
		"SELECT COUNT(*) FROM invitation_uses WHERE invitation_code = ?", inv.Code,
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInvitationService_Redeem_UserAlreadyRedeemed(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")
	other := createTestUser(t, f.conn, "zeynep")
	friend := createTestUser(t, f.conn, "fatma")

	inv1, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)
	inv2, err := f.svc.Create(ctx, other.ID)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv1.Code,
		NewUserID:      friend.ID,
	})
	require.NoError(t, err)

	// Aynı kullanıcı ikinci bir davet kullanamaz
	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv2.Code,
		NewUserID:      friend.ID,
	})
	assert.ErrorIs(t, err, pkg.ErrCodeAlreadyUsed)

	// Bakiyesi değişmedi, ikinci davet sahibi ödül almadı
	balance, err := f.credits.GetBalance(ctx, friend.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Credits)

	_, err = f.credits.GetBalance(ctx, other.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Transaction geri alındı — ikinci kod hâlâ kullanılmamış
	require.NoError(t, f.svc.CheckRedeemable(ctx, inv2.Code))
}

func TestInvitationService_Redeem_ConcurrentSameCode(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	// İki istek aynı anda ön kontrolü geçebilir; otorite transaction içindeki
	// UNIQUE constraint'tir. Kaybeden SQLITE_BUSY değil ErrCodeAlreadyUsed
	// almalı — busy_timeout pragma'sı kilidi bekletip gerçek constraint
	// ihlaline düşürür. Yarışı yakalama şansını artırmak için tekrarlanır.
	for i := 0; i < 5; i++ {
		owner := createTestUser(t, f.conn, fmt.Sprintf("ayse%d", i))
		first := createTestUser(t, f.conn, fmt.Sprintf("fatma%d", i))
		second := createTestUser(t, f.conn, fmt.Sprintf("zeynep%d", i))

		inv, err := f.svc.Create(ctx, owner.ID)
		require.NoError(t, err)

		start := make(chan struct{})
		results := make([]error, 2)
		var wg sync.WaitGroup
		for j, userID := range []string{first.ID, second.ID} {
			wg.Add(1)
			go func(idx int, id string) {
				defer wg.Done()
				<-start
				_, results[idx] = f.svc.Redeem(ctx, &models.RedeemRequest{
					InvitationCode: inv.Code,
					NewUserID:      id,
				})
			}(j, userID)
		}
		close(start)
		wg.Wait()

		// Tam olarak biri kazanır, kaybeden otoriter hatayı alır
		winners, losers := 0, 0
		for _, res := range results {
			if res == nil {
				winners++
			} else {
				require.ErrorIs(t, res, pkg.ErrCodeAlreadyUsed, "iteration %d: %v", i, res)
				losers++
			}
		}
		assert.Equal(t, 1, winners, "iteration %d", i)
		assert.Equal(t, 1, losers, "iteration %d", i)

		// Ledger'da tek kullanım satırı
		var count int
		require.NoError(t, f.conn.QueryRow(
			"SELECT COUNT(*) FROM invitation_uses WHERE invitation_code = ?", inv.Code,
		).Scan(&count))
		assert.Equal(t, 1, count, "iteration %d", i)

		// Referral ödülü yalnızca bir kez işlendi
		ownerBalance, err := f.credits.GetBalance(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, ownerBalance.Credits, "iteration %d", i)
	}
}

func TestInvitationService_Redeem_SelfRedeem(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      owner.ID,
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestInvitationService_Redeem_Validation(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Redeem(ctx, &models.RedeemRequest{InvitationCode: "", NewUserID: "x"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{InvitationCode: "abc", NewUserID: "  "})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{InvitationCode: "unknown", NewUserID: "x"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestInvitationService_CheckRedeemable(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")
	friend := createTestUser(t, f.conn, "fatma")

	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.CheckRedeemable(ctx, inv.Code))

	assert.ErrorIs(t, f.svc.CheckRedeemable(ctx, ""), pkg.ErrBadRequest)
	assert.ErrorIs(t, f.svc.CheckRedeemable(ctx, "unknown"), pkg.ErrNotFound)

	_, err = f.svc.Redeem(ctx, &models.RedeemRequest{
		InvitationCode: inv.Code,
		NewUserID:      friend.ID,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.CheckRedeemable(ctx, inv.Code), pkg.ErrCodeAlreadyUsed)
}

func TestInvitationService_SendEmail_NotConfigured(t *testing.T) {
	f := newInvitationFixture(t)
	ctx := context.Background()

	owner := createTestUser(t, f.conn, "ayse")
	inv, err := f.svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	err = f.svc.SendEmail(ctx, owner.ID, &models.SendInvitationRequest{
		Code:  inv.Code,
		Email: "friend@example.com",
	})
	assert.ErrorIs(t, err, pkg.ErrInternal)
}
