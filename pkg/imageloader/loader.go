// Package imageloader — dayanıklı (resilient) uzak görsel yükleyici.
//
// AI generator'ın ürettiği preview görselleri CDN'e yazıldıktan hemen sonra
// her zaman erişilebilir olmaz: 404, yarım yazılmış dosya veya geçici ağ
// hatası görülebilir. Loader, bir kaynak URL'i lineer backoff ile sınırlı
// sayıda probe ederek client'ın sonsuza kadar "yükleniyor" durumunda
// kalmamasını garanti eder.
//
// Davranış:
//   - Her probe, URL'e cache-buster query suffix'i ekler (t=<unix-ms> +
//     token=<uuid>) — iki probe asla aynı URL'i kullanmaz, HTTP cache'i
//     her denemede bypass edilir.
//   - Başarısız probe'dan sonra n. retry, BaseDelay*n gecikmeyle planlanır
//     (lineer backoff) ve URL'e retry=<n> marker'ı eklenir.
//   - MaxRetries tükendiğinde Errored=true terminal state'tir — manuel
//     retry affordance'ı çağıranın sorumluluğudur (Observe tekrar çağrılır).
//
// Staleness guard:
// Observe her çağrıldığında generation sayacı artar. Eski URL'in timer'ı
// veya uçuştaki probe callback'i, generation eşleşmediği için state'e
// dokunamaz — URL A'nın sonucu URL B gözlenirken asla sızmaz.
package imageloader

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Varsayılan konfigürasyon değerleri.
const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 1000 * time.Millisecond
	DefaultTimeout    = 10 * time.Second
)

// sniffLen, content-type tespiti için okunan maksimum byte sayısı.
// http.DetectContentType ilk 512 byte'tan fazlasına bakmaz.
const sniffLen = 512

// Config, loader davranışını belirler. Sıfır değerler varsayılanlarla doldurulur.
type Config struct {
	MaxRetries int           // probe başına retry bütçesi
	BaseDelay  time.Duration // n. retry gecikmesi = BaseDelay * n
	Timeout    time.Duration // tek bir probe'un HTTP timeout'u
}

// State, bir gözlemin dışarıya açık anlık durumu.
//
// Loaded ve Errored hiçbir anda birlikte true olamaz; yeni bir deneme
// başlarken ikisi de temizlenir.
type State struct {
	SourceURL  string `json:"source_url"`
	DisplayURL string `json:"display_url"`
	Loaded     bool   `json:"loaded"`
	Errored    bool   `json:"errored"`
	RetryCount int    `json:"retry_count"`
}

// Terminal, gözlemin sonuca ulaşıp ulaşmadığını döner:
// ya yüklendi, ya da retry bütçesi tükendi.
func (s State) Terminal(maxRetries int) bool {
	return s.Loaded || (s.Errored && s.RetryCount >= maxRetries)
}

// Loader, tek bir mantıksal gözlem hattı yürütür.
// Aynı anda tek URL gözlenir; Observe yeni URL ile çağrıldığında eski
// hattın tüm callback'leri geçersizleşir.
//
// Tüm metodlar thread-safe'dir.
type Loader struct {
	mu       sync.Mutex
	cfg      Config
	client   *http.Client
	onChange func(State) // her state geçişinde çağrılır (lock dışında), nil olabilir

	gen    uint64 // staleness guard — her Observe/Close'ta artar
	state  State
	timer  *time.Timer
	closed bool
}

// New, yeni bir Loader oluşturur.
//
// client nil ise cfg.Timeout'lu bir http.Client kullanılır.
// onChange nil olabilir — yalnızca polling (State) ile kullanım için.
func New(cfg Config, client *http.Client, onChange func(State)) *Loader {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Loader{
		cfg:      cfg,
		client:   client,
		onChange: onChange,
	}
}

// Observe, yeni bir kaynak URL'i gözlemeye başlar.
//
// Boş URL no-op'tur: tracking başlamaz, tüm flag'ler varsayılanda kalır.
// Önceki gözlemin bekleyen timer'ı iptal edilir ve uçuştaki probe'u
// geçersizleşir. Terminal hatadan sonra manuel retry için aynı URL ile
// tekrar çağrılabilir — sayaçlar sıfırdan başlar.
func (l *Loader) Observe(sourceURL string) {
	l.mu.Lock()

	if l.closed {
		l.mu.Unlock()
		return
	}

	l.gen++
	l.stopTimerLocked()
	l.state = State{SourceURL: sourceURL}

	if sourceURL == "" {
		l.mu.Unlock()
		return
	}

	displayURL := cacheBustURL(sourceURL, 0)
	l.state.DisplayURL = displayURL
	gen := l.gen
	snapshot := l.state
	l.mu.Unlock()

	l.notify(snapshot)
	go l.probe(gen, displayURL)
}

// State, mevcut gözlemin anlık kopyasını döner.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// MaxRetries, konfigüre edilmiş retry bütçesini döner.
func (l *Loader) MaxRetries() int {
	return l.cfg.MaxRetries
}

// Close, loader'ı kalıcı olarak durdurur.
// Bekleyen timer iptal edilir, uçuştaki probe sonucu yoksayılır.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.gen++
	l.stopTimerLocked()
}

// probe, tek bir yükleme denemesi yapar ve sonucu finish'e iletir.
// Ayrı goroutine'de çalışır — çağıranı bloklamaz.
func (l *Loader) probe(gen uint64, probeURL string) {
	l.finish(gen, l.fetch(probeURL))
}

// fetch, görseli indirir ve decode edilebilir bir görsel olduğunu doğrular.
// Tek hata türü vardır (LoadFailure) — sebep ayrımı yapılmaz, hepsi
// retry edilebilir kabul edilir.
func (l *Loader) fetch(probeURL string) bool {
	req, err := http.NewRequest(http.MethodGet, probeURL, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	// İlk 512 byte'tan content sniffing — Content-Type header'ına güvenme,
	// CDN'ler yarım yazılmış dosyaya da image/* header'ı koyabilir.
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	if n == 0 {
		return false
	}

	return strings.HasPrefix(http.DetectContentType(buf[:n]), "image/")
}

// finish, probe sonucunu state'e uygular.
// gen güncel generation ile eşleşmiyorsa sonuç stale'dir ve yoksayılır.
func (l *Loader) finish(gen uint64, ok bool) {
	l.mu.Lock()

	if l.closed || gen != l.gen {
		l.mu.Unlock()
		return
	}

	if ok {
		l.state.Loaded = true
		l.state.Errored = false
		snapshot := l.state
		l.mu.Unlock()
		l.notify(snapshot)
		return
	}

	l.state.Errored = true
	l.state.Loaded = false

	if l.state.RetryCount >= l.cfg.MaxRetries {
		// Bütçe tükendi — terminal state. Manuel retry çağıranın işi.
		snapshot := l.state
		l.mu.Unlock()
		l.notify(snapshot)
		return
	}

	// n. retry, BaseDelay*n sonra (lineer backoff)
	n := l.state.RetryCount + 1
	delay := time.Duration(n) * l.cfg.BaseDelay
	l.timer = time.AfterFunc(delay, func() {
		l.retry(gen, n)
	})

	snapshot := l.state
	l.mu.Unlock()
	l.notify(snapshot)
}

// retry, zamanlanmış bir retry'ı başlatır: yeni cache-buster + retry
// marker'lı display URL üretir, flag'leri temizler ve yeniden probe eder.
func (l *Loader) retry(gen uint64, n int) {
	l.mu.Lock()

	if l.closed || gen != l.gen {
		l.mu.Unlock()
		return
	}

	displayURL := cacheBustURL(l.state.SourceURL, n)
	l.state.RetryCount = n
	l.state.DisplayURL = displayURL
	l.state.Loaded = false
	l.state.Errored = false

	snapshot := l.state
	l.mu.Unlock()

	l.notify(snapshot)
	go l.probe(gen, displayURL)
}

// stopTimerLocked, bekleyen retry timer'ını iptal eder. mu tutularak çağrılır.
func (l *Loader) stopTimerLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// notify, onChange callback'ini lock dışında çağırır —
// callback içinde State() çağrılsa bile deadlock olmaz.
func (l *Loader) notify(s State) {
	if l.onChange != nil {
		l.onChange(s)
	}
}

// cacheBustURL, kaynak URL'e cache-buster suffix'i ekler:
// t=<unix-ms> + token=<uuid>, retry > 0 ise retry=<n> marker'ı.
// Timestamp + rastgele token kombinasyonu sayesinde iki probe URL'i
// asla çakışmaz.
func cacheBustURL(sourceURL string, retry int) string {
	params := fmt.Sprintf("t=%d&token=%s", time.Now().UnixMilli(), uuid.NewString())
	if retry > 0 {
		params += fmt.Sprintf("&retry=%d", retry)
	}

	u, err := url.Parse(sourceURL)
	if err != nil {
		// Parse edilemeyen URL — naive suffix ekle, probe zaten başarısız olur
		if strings.Contains(sourceURL, "?") {
			return sourceURL + "&" + params
		}
		return sourceURL + "?" + params
	}

	if u.RawQuery == "" {
		u.RawQuery = params
	} else {
		u.RawQuery += "&" + params
	}
	return u.String()
}
