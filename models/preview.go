package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// StartPreviewRequest, AI preview üretimi başlatırken client'tan gelen veri.
type StartPreviewRequest struct {
	DesignID string  `json:"design_id"`
	Prompt   *string `json:"prompt,omitempty"`
}

// Validate, StartPreviewRequest kontrolü.
func (r *StartPreviewRequest) Validate() error {
	r.DesignID = strings.TrimSpace(r.DesignID)
	if r.DesignID == "" {
		return fmt.Errorf("design_id is required")
	}

	if r.Prompt != nil {
		trimmed := strings.TrimSpace(*r.Prompt)
		if utf8.RuneCountInString(trimmed) > 500 {
			return fmt.Errorf("prompt must be at most 500 characters")
		}
		r.Prompt = &trimmed
	}

	return nil
}
