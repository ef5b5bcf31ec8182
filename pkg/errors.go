// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir. errors.New() ile sabit error
// değişkenleri tanımlarız — karşılaştırma string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrCodeAlreadyUsed) { ... }
//
// Service katmanı bu sentinel'leri fmt.Errorf("%w: ...") ile sarıp döner,
// handler katmanı errors.Is ile yakalayıp HTTP status'a çevirir.
package pkg

import "errors"

// Domain-level error'lar.
// Handler katmanı bu error'ları HTTP status code'larına map'ler.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")

	// ErrCodeAlreadyUsed, tek kullanımlık davet kodunun ikinci kez
	// redeem edilmeye çalışıldığını belirtir. invitation_uses tablosundaki
	// UNIQUE constraint ihlali de bu error'a çevrilir — read-then-write
	// ön kontrolü yarışabilir, constraint otoritedir.
	ErrCodeAlreadyUsed = errors.New("invitation code already used")

	// ErrInsufficientCredits, kullanıcının bakiyesi harcamaya yetmediğinde döner.
	ErrInsufficientCredits = errors.New("insufficient credits")
)
