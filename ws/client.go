package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	// Görseller HTTP ile yüklenir — WS mesajları küçüktür.
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) client disconnect edilir.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: Client'dan gelen mesajları okur (heartbeat)
// - WritePump: Hub'dan gelen mesajları client'a yazar
//
// gorilla/websocket aynı anda tek okuma ve tek yazma destekler —
// iki goroutine sayesinde okuma ve yazma birbirini bloklamaz.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	// send, client'a gönderilecek mesajların buffer'landığı channel.
	send chan []byte
	mu   sync.Mutex // conn.WriteMessage çağrılarını korur
}

// ReadPump, WebSocket bağlantısından gelen mesajları okur ve işler.
// Bağlantı kapanana kadar döngüde kalır; kapandığında Hub'dan çıkış yapar.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// Her heartbeat geldiğinde deadline yenilenir.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen event'leri türüne göre işler.
// Preview ve kredi akışları HTTP üzerinden yürür — client'tan WS ile
// yalnızca heartbeat beklenir.
func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

// sendEvent, client'a tek bir event gönderir.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.hub.unregister <- c
	}
}

// WritePump, Hub'dan gelen mesajları WebSocket bağlantısına yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket conn'a aynı anda birden fazla yazma yasaktır.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
