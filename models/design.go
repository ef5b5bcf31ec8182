package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Design, bir kullanıcının tırnak fotoğrafını ve (varsa) üretilmiş AI
// preview'ını temsil eder.
//
// PhotoURL: kullanıcının yüklediği orijinal fotoğraf (/api/uploads/ altında).
// PreviewURL: AI generator'ın ürettiği uzak görsel — nil ise henüz preview
// istenmemiş demektir.
// Shared: true ise tasarım public galeride görünür.
type Design struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PhotoURL   string    `json:"photo_url"`
	PreviewURL *string   `json:"preview_url"`
	Prompt     *string   `json:"prompt"`
	Shared     bool      `json:"shared"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpdateDesignRequest, tasarım güncelleme isteği (partial update).
// nil alanlar dokunulmadan bırakılır.
type UpdateDesignRequest struct {
	Prompt *string `json:"prompt"`
	Shared *bool   `json:"shared"`
}

// Validate, UpdateDesignRequest kontrolü.
func (r *UpdateDesignRequest) Validate() error {
	if r.Prompt != nil {
		trimmed := strings.TrimSpace(*r.Prompt)
		if utf8.RuneCountInString(trimmed) > 500 {
			return fmt.Errorf("prompt must be at most 500 characters")
		}
		r.Prompt = &trimmed
	}
	return nil
}
