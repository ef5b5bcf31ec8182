package models

import (
	"fmt"
	"time"
)

// CreditsBalance, bir kullanıcının kredi bakiyesini temsil eder.
// Kullanıcı başına tek satır; bakiye hiçbir zaman negatif olamaz
// (DB'de CHECK constraint + koşullu UPDATE ile korunur).
type CreditsBalance struct {
	UserID    string    `json:"user_id"`
	Credits   int       `json:"credits"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SpendCreditsRequest, kredi harcama isteği.
// Reason opsiyoneldir, sadece loglanır (ör: "preview").
type SpendCreditsRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// Validate, SpendCreditsRequest kontrolü.
func (r *SpendCreditsRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
