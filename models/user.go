// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model, veritabanındaki bir tablonun Go karşılığıdır; aynı zamanda API'den
// gelen/giden verilerin şeklini de belirler. `json:"..."` tag'leri JSON
// serialize/deserialize davranışını kontrol eder.
package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"time"
)

// User, bir kullanıcıyı temsil eder.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  *string   `json:"display_name"` // *string = nullable
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // API response'a ASLA dahil edilmez
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserRequest, kayıt olurken client'tan gelen veri.
// PasswordHash yerine Password alırız — hash'leme service katmanında yapılır.
//
// InvitationCode opsiyoneldir: doluysa kayıt sonrası redemption çalışır
// ve kullanıcı welcome kredisiyle başlar.
type CreateUserRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
	InvitationCode string `json:"invitation_code"`
}

// Validate, CreateUserRequest'in geçerli olup olmadığını kontrol eder.
// Kurallar:
//   - Username: 3-32 karakter, alfanumerik + alt çizgi
//   - Password: minimum 8 karakter
//   - DisplayName: opsiyonel, max 32 karakter
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	usernameLen := utf8.RuneCountInString(r.Username)
	if usernameLen < 3 || usernameLen > 32 {
		return fmt.Errorf("username must be between 3 and 32 characters")
	}

	for _, ch := range r.Username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, and underscores")
		}
	}

	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if utf8.RuneCountInString(r.DisplayName) > 32 {
		return fmt.Errorf("display name must be at most 32 characters")
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email format")
	}

	r.InvitationCode = strings.TrimSpace(r.InvitationCode)

	return nil
}

// LoginRequest, giriş yaparken client'tan gelen veri.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate, LoginRequest kontrolü.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// isValidUsernameChar, username'de izin verilen karakterleri kontrol eder.
func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
