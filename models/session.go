package models

import "time"

// Session, JWT refresh token oturumunu temsil eder.
//
// Access token kısa ömürlü (15dk), refresh token uzun ömürlü (7 gün).
// Refresh token'ları DB'de tutarak çalınan token iptal edilebilir
// ve logout'ta sadece ilgili oturum silinebilir.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"` // API'ye gönderilmez
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
