// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı preview başlatır → HTTP POST → Service → generator + loader
// 2. Loader her state geçişinde service callback'ini tetikler
// 3. Service, Hub'ın BroadcastToUser metodunu çağırır
// 4. Client'ın WritePump'ı event'i WebSocket'e yazar
// 5. Frontend event'i alır ve preview/kredi state'ini günceller
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "preview_status", "credits_update" vb.
// Data: Event'e özgü payload.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
//   Frontend eksik event tespit etmek için seq'i takip eder.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat = "heartbeat" // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
)

// Server → Client operasyonları
const (
	OpReady        = "ready"         // Bağlantı kurulduğunda ilk gönderilen
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt

	OpPreviewStatus = "preview_status" // Preview job'ının yükleme durumu değişti
	OpCreditsUpdate = "credits_update" // Kullanıcının kredi bakiyesi değişti
	OpDesignShare   = "design_share"   // Public galeriye yeni tasarım paylaşıldı
)

// ReadyData, bağlantı kurulduğunda client'a gönderilen ilk event'in payload'ı.
type ReadyData struct {
	UserID string `json:"user_id"`
}

// PreviewStatusData, preview_status event'inin payload'ı.
// Loader'ın anlık durumunu job kimliğiyle birlikte taşır.
type PreviewStatusData struct {
	JobID      string `json:"job_id"`
	DesignID   string `json:"design_id,omitempty"`
	SourceURL  string `json:"source_url"`
	DisplayURL string `json:"display_url"`
	Loaded     bool   `json:"loaded"`
	Errored    bool   `json:"errored"`
	RetryCount int    `json:"retry_count"`
	Terminal   bool   `json:"terminal"`
}

// CreditsUpdateData, credits_update event'inin payload'ı.
// Redemption ödülü veya preview harcaması sonrası yeni bakiyeyi taşır.
type CreditsUpdateData struct {
	Credits int    `json:"credits"`
	Reason  string `json:"reason"` // "welcome", "referral_reward", "preview", "spend"
}

// DesignShareData, design_share event'inin payload'ı.
// Galeri görünümündeki client'lar listeyi tazeler.
type DesignShareData struct {
	DesignID string `json:"design_id"`
	Shared   bool   `json:"shared"`
}
