// Package main, GeNails backend uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'lar ile)
//  3. Upload dizinini oluştur
//  4. Repository'leri oluştur (DB bağlantısı ile)
//  5. WebSocket Hub'ı başlat
//  6. Service'leri ve rate limiter'ları oluştur (repository'ler + hub ile)
//  7. Handler'ları oluştur (service'ler ile)
//  8. HTTP router'ı kur, route'ları bağla
//  9. CORS yapılandır
//  10. HTTP Server'ı başlat
//  11. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genails/server/config"
	"github.com/genails/server/database"
	"github.com/genails/server/ws"
	"github.com/rs/cors"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] genails server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrations)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Upload Dizini ───
	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		log.Fatalf("[main] failed to create upload directory: %v", err)
	}

	// ─── 4. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 5. WebSocket Hub ───
	//
	// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı bir goroutine'de event loop başlatır:
	// register/unregister channel'larını dinler ve client map'ini günceller.
	// Hub aynı zamanda EventPublisher interface'ini implement eder —
	// service'ler hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub()
	go hub.Run()

	// ─── 6. Service Layer + Rate Limiters ───
	svcs, limiters := initServices(db.Conn, repos, hub, cfg)
	defer limiters.Login.Close()
	defer limiters.Redeem.Close()

	// ─── 7. Handler Layer ───
	h := initHandlers(svcs, limiters, hub, cfg)

	// ─── 8. HTTP Router ───
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User, cfg)

	// ─── 9. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000", // web dev server
			"http://localhost:8081", // Expo dev
			"https://genails.app",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})

	handler := corsHandler.Handler(mux)

	// ─── 10. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 11. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WebSocket bağlantılarını kapat — client'lar "server shutting down" bilir.
	// Sonra HTTP server'ı kapat — yeni request kabul etmeyi durdurur,
	// mevcut request'lerin bitmesini bekler (5sn timeout).
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
