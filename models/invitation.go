// Package models — davet domain modelleri.
//
// Invitation, bir kullanıcının arkadaşını davet etmek için ürettiği tek
// kullanımlık koddur. InvitationUse, kodun tüketildiğini kaydeden append-only
// ledger satırıdır: kim kullandı, referrer kimdi.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Invitation, bir davet kodunu temsil eder.
// Kod server-side üretilir ve sistem genelinde en fazla bir kez redeem edilir.
type Invitation struct {
	Code        string    `json:"code"`
	OwnerUserID string    `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// InvitationUse, bir redemption kaydını temsil eder.
// ReferrerUserID, redemption anında Invitation.OwnerUserID'den kopyalanır —
// davet silinse bile ledger kendi başına anlamlı kalır.
type InvitationUse struct {
	InvitationCode string    `json:"invitation_code"`
	UsedByUserID   string    `json:"used_by_user_id"`
	ReferrerUserID string    `json:"referrer_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// InvitationWithUse, davet listesinde kodun kullanılıp kullanılmadığını gösterir.
// UsedBy nil ise kod hâlâ redeem edilebilir durumdadır.
type InvitationWithUse struct {
	Invitation
	UsedBy *string    `json:"used_by"`
	UsedAt *time.Time `json:"used_at"`
}

// InvitationPreview, redeem landing sayfasında auth olmadan gösterilen bilgi:
// "X seni GeNails'e davet etti".
type InvitationPreview struct {
	OwnerUsername    string  `json:"owner_username"`
	OwnerDisplayName *string `json:"owner_display_name"`
}

// RedeemRequest, davet kodu redemption isteği.
type RedeemRequest struct {
	InvitationCode string `json:"invitation_code"`
	NewUserID      string `json:"new_user_id"`
}

// Validate, her iki alanın da dolu olduğunu kontrol eder.
// Boş alan, store'a hiç gitmeden reddedilir.
func (r *RedeemRequest) Validate() error {
	r.InvitationCode = strings.TrimSpace(r.InvitationCode)
	r.NewUserID = strings.TrimSpace(r.NewUserID)

	if r.InvitationCode == "" {
		return fmt.Errorf("invitation_code is required")
	}
	if r.NewUserID == "" {
		return fmt.Errorf("new_user_id is required")
	}
	return nil
}

// SendInvitationRequest, davet kodunu email ile gönderme isteği.
type SendInvitationRequest struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

// Validate, SendInvitationRequest kontrolü.
func (r *SendInvitationRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	r.Email = strings.TrimSpace(r.Email)

	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	return nil
}
