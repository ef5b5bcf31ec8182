// Package ratelimit — IP bazlı sliding-window rate limiting.
//
// İki yerde kullanılır:
// - Login endpoint'i: brute-force parola denemelerine karşı.
// - Davet kodu redemption endpoint'i: kod enumeration'a karşı (rastgele
//   kod deneyerek geçerli davet bulma girişimleri).
//
// Tasarım:
// - Her IP adresi için sliding window ile istek sayısı takip edilir.
// - Window süresi içinde maxAttempts aşılırsa istek reddedilir.
// - Başarılı işlem sonrası Reset() ile sayaç sıfırlanır.
// - Background goroutine süresi dolmuş bucket'ları temizler (memory leak engeli).
//
// Neden in-memory?
// SQLite'a her request'te yazma gereksiz I/O + contention yaratır;
// tek instance deploy için Redis bağımlılığına gerek yok.
//
// pkg/ratelimit hiçbir proje içi pakete bağımlı değildir (leaf dependency) —
// handlers ↔ middleware arasında import cycle oluşmaz.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket, bir IP adresi için istek sayacı ve window başlangıç zamanı tutar.
type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter, IP bazlı sliding-window rate limiter.
//
// Kullanım:
//
//	limiter := ratelimit.New(5, 2*time.Minute)
//	if !limiter.Allow(ip) { return 429 }
//	// Başarılı işlemde:
//	limiter.Reset(ip)
type Limiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	stopCleanup chan struct{}
}

// New, yeni rate limiter oluşturur ve arka plan temizleme goroutine'ini başlatır.
//
// maxAttempts: Pencere başına izin verilen istek sayısı (ör: 5).
// window: Pencere süresi (ör: 2*time.Minute → 2 dakikada 5 deneme).
func New(maxAttempts int, window time.Duration) *Limiter {
	rl := &Limiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, verilen IP adresinin isteğine izin verilip verilmediğini kontrol eder.
//
// true: istek kabul edildi. false: limit aşıldı → caller 429 dönmeli.
// Her çağrı sayacı artırır; başarılı işlemde caller Reset() çağırmalıdır.
func (rl *Limiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists {
		rl.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		// Yeni pencere — eski sayaç sıfırlanır
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset, başarılı işlem sonrası IP sayacını sıfırlar.
// Meşru kullanıcı başarılı girişten sonra bloke olmamalıdır.
func (rl *Limiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, ip)
}

// RetryAfterSeconds, rate limit aşıldığında kalan bekleme süresini saniye
// cinsinden döner. HTTP Retry-After header değeri olarak kullanılır.
func (rl *Limiter) RetryAfterSeconds(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[ip]
	if !exists {
		return 0
	}

	remaining := rl.window - time.Since(b.windowStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1 // +1 yuvarlama — client tam süreyi beklesin
}

// cleanupLoop, arka planda süresi dolmuş bucket'ları temizler.
func (rl *Limiter) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup, window süresi geçmiş tüm bucket'ları siler.
func (rl *Limiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// Close, arka plan temizleme goroutine'ini durdurur.
func (rl *Limiter) Close() {
	close(rl.stopCleanup)
}

// ExtractIP, HTTP request'ten client IP adresini çıkarır.
//
// Öncelik sırası:
// 1. X-Forwarded-For header (reverse proxy arkasındaysa, ilk IP)
// 2. X-Real-IP header
// 3. RemoteAddr (doğrudan bağlantı)
//
// Production'da uygulama genellikle nginx/Caddy arkasındadır; bu durumda
// RemoteAddr her zaman proxy'nin IP'sidir.
func ExtractIP(r *http.Request) string {
	// X-Forwarded-For: client, proxy1, proxy2 — ilk değer gerçek client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage, kalan süreyi okunabilir formata çevirir.
// Örn: 120 → "2 minute(s)", 45 → "45 second(s)"
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
