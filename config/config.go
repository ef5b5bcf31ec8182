// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar — her yerde ayrı ayrı
// os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her biri tek bir concern'ü temsil eder.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Credits  CreditsConfig
	Upload   UploadConfig
	Email    EmailConfig
	Preview  PreviewConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/genails.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret             string // Token imzalama anahtarı — GİZLİ TUTULMALI
	AccessTokenExpiry  int    // Dakika cinsinden (varsayılan: 15)
	RefreshTokenExpiry int    // Gün cinsinden (varsayılan: 7)
}

// CreditsConfig, davet redemption sırasında verilen kredi miktarları.
//
// WelcomeAmount: davet kodunu kullanan yeni kullanıcının başlangıç bakiyesi.
// ReferralReward: kodu üreten kullanıcıya (referrer) eklenen ödül.
type CreditsConfig struct {
	WelcomeAmount  int
	ReferralReward int
}

// UploadConfig, tırnak fotoğrafı yükleme ayarları.
type UploadConfig struct {
	Dir     string // Fotoğrafların kaydedileceği dizin
	MaxSize int64  // Byte cinsinden max dosya boyutu (varsayılan: 10MB)
}

// EmailConfig, davet email'i gönderimi (Resend) ayarları.
// Üç değer de set edilmemişse email gönderimi devre dışı kalır.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string // Resend'de doğrulanmış domain altında olmalı
	AppURL       string // Davet linklerinde kullanılan public URL
}

// PreviewConfig, AI preview üretimi ve image loader ayarları.
type PreviewConfig struct {
	GeneratorBaseURL string // Üretilen preview görsellerinin servis edildiği base URL
	MaxRetries       int    // Başarısız probe başına retry bütçesi (varsayılan: 5)
	RetryBaseMS      int    // Lineer backoff taban gecikmesi, ms (varsayılan: 1000)
	ProbeTimeoutMS   int    // Tek bir probe'un HTTP timeout'u, ms (varsayılan: 10000)
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// Dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	welcomeAmount, err := strconv.Atoi(getEnv("CREDITS_WELCOME_AMOUNT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CREDITS_WELCOME_AMOUNT: %w", err)
	}

	referralReward, err := strconv.Atoi(getEnv("CREDITS_REFERRAL_REWARD", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid CREDITS_REFERRAL_REWARD: %w", err)
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "10485760"), 10, 64) // 10MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	maxRetries, err := strconv.Atoi(getEnv("PREVIEW_MAX_RETRIES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREVIEW_MAX_RETRIES: %w", err)
	}

	retryBase, err := strconv.Atoi(getEnv("PREVIEW_RETRY_BASE_MS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREVIEW_RETRY_BASE_MS: %w", err)
	}

	probeTimeout, err := strconv.Atoi(getEnv("PREVIEW_PROBE_TIMEOUT_MS", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREVIEW_PROBE_TIMEOUT_MS: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/genails.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Credits: CreditsConfig{
			WelcomeAmount:  welcomeAmount,
			ReferralReward: referralReward,
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       getEnv("APP_URL", ""),
		},
		Preview: PreviewConfig{
			GeneratorBaseURL: getEnv("PREVIEW_GENERATOR_BASE_URL", "https://previews.genails.app"),
			MaxRetries:       maxRetries,
			RetryBaseMS:      retryBase,
			ProbeTimeoutMS:   probeTimeout,
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
