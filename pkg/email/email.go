// Package email, uygulama genelinde email gönderimi için soyutlama katmanı sağlar.
//
// EmailSender interface'i ile email gönderim detayları soyutlanır.
// Şu anki implementasyon Resend API kullanır; farklı bir sağlayıcıya geçmek
// için yeni bir implementasyon yazıp constructor'da değiştirmek yeterli.
//
// Bu paket dışarıya iki şey sunar:
// 1. EmailSender interface — service'ler buna bağımlı olur
// 2. NewResendSender constructor — main.go'da wire-up için
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// EmailSender, email gönderimi için interface.
// Service katmanı bu interface'e bağımlıdır, concrete Resend implementasyonuna değil.
type EmailSender interface {
	// SendInvitation, davet kodunu içeren email gönderir.
	// inviterName: daveti gönderen kullanıcının görünen adı,
	// code: davet kodu (signup linkine gömülür).
	SendInvitation(ctx context.Context, toEmail, inviterName, code string) error
}

// resendSender, Resend API ile email gönderen EmailSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi (ör: noreply@genails.app)
	appURL    string // Uygulamanın public URL'i (ör: https://app.genails.app)
}

// NewResendSender, Resend API client'ı ile yeni bir EmailSender oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
// fromEmail: Gönderici email adresi — Resend'de doğrulanmış domain altında olmalı.
// appURL: Uygulamanın public URL'i — davet link'lerinde kullanılır.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

// SendInvitation, davet email'i gönderir.
//
// Email içeriği:
// - Subject: "{inviterName} invited you to GeNails"
// - Body: Davet linkini içeren basit HTML
// - Link format: {appURL}/signup?invitation={code}
//
// Kullanıcı link'e tıkladığında frontend kodu URL'den okur ve kayıt
// formunu önceden doldurur.
func (s *resendSender) SendInvitation(ctx context.Context, toEmail, inviterName, code string) error {
	inviteLink := fmt.Sprintf("%s/signup?invitation=%s", s.appURL, code)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#1f1026;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#1f1026;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#2b1638;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#f3e8ff;font-size:24px;margin:0 0 8px 0;">GeNails</h1>
              <h2 style="color:#f3e8ff;font-size:18px;margin:0 0 24px 0;">You&rsquo;re Invited</h2>
              <p style="color:#c4b5fd;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
                %s invited you to try GeNails &mdash; AI-powered nail art previews on your own hands. Join with the button below and you&rsquo;ll start with free credits.
              </p>
              <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
                <tr>
                  <td style="background-color:#d946ef;border-radius:6px;padding:12px 32px;">
                    <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">
                      Accept Invitation
                    </a>
                  </td>
                </tr>
              </table>
              <p style="color:#a78bfa;font-size:13px;line-height:1.6;margin:0 0 16px 0;">
                Your invitation code is <strong>%s</strong>. Each code can only be used once.
              </p>
              <p style="color:#7c6aa6;font-size:13px;line-height:1.6;margin:0;word-break:break-all;">
                If the button doesn't work, copy and paste this link:<br>
                <a href="%s" style="color:#d946ef;">%s</a>
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, inviterName, inviteLink, code, inviteLink, inviteLink)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("GeNails <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: fmt.Sprintf("%s invited you to GeNails", inviterName),
		Html:    html,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	return nil
}
