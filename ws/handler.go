package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/genails/server/models"
)

// TokenValidator, WebSocket handler'ın JWT doğrulaması için kullandığı interface.
//
// services.AuthService yerine kendi interface'imiz:
// - services paketi ws.EventPublisher'ı kullanıyor (broadcast için)
// - ws paketi services'i import etseydi döngü oluşurdu
// WS handler'ın yalnızca ValidateAccessToken'a ihtiyacı var — küçük,
// odaklı interface'i authService implicit olarak karşılar.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// upgrader, HTTP bağlantısını WebSocket bağlantısına yükseltir.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: Production'da domain kontrolü yapılmalı.
	// Şimdilik tüm origin'lere izin veriyoruz (development için).
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, tokenValidator TokenValidator) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı Hub'a kaydeder.
//
// WebSocket bağlantısında HTTP header göndermek zordur (tarayıcı sınırlaması),
// bu yüzden token URL query parameter'ı olarak gönderilir:
//
//	ws://server/ws?token=JWT_TOKEN
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, sendBufferSize),
	}

	h.hub.register <- client

	// İlk event: ready — client kendi user ID'sini doğrular.
	client.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID}})

	// WritePump ayrı goroutine'de; ReadPump bağlantı kapanana kadar bloklar.
	go client.WritePump()
	client.ReadPump()
}
