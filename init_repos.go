// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository bir SQL.DB bağlantısı alır ve interface döner.
// main.go'daki wire-up'ı modülerleştirmek için bu dosyaya taşındı.
package main

import (
	"database/sql"

	"github.com/genails/server/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
// Fonksiyon imzalarını temiz tutar ve yeni repository eklendiğinde sadece
// struct + initRepositories güncellenir.
type Repositories struct {
	User       repository.UserRepository
	Session    repository.SessionRepository
	Invitation repository.InvitationRepository
	Credits    repository.CreditsRepository
	Design     repository.DesignRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
//
// Her NewSQLite* fonksiyonu aynı *sql.DB'yi alır — Go'nun sql.DB'si
// thread-safe connection pool'dur, paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:       repository.NewSQLiteUserRepo(conn),
		Session:    repository.NewSQLiteSessionRepo(conn),
		Invitation: repository.NewSQLiteInvitationRepo(conn),
		Credits:    repository.NewSQLiteCreditsRepo(conn),
		Design:     repository.NewSQLiteDesignRepo(conn),
	}
}
