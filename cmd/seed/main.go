package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/raditya/chatwave/config"
	"github.com/raditya/chatwave/pkg/helpers"
)

// Seeds a couple of demo accounts for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	demo := []struct {
		email     string
		password  string
		firstName string
		lastName  string
	}{
		{"alice@chatwave.dev", "password123", "Alice", "Tan"},
		{"bob@chatwave.dev", "password123", "Bob", "Hartono"},
	}

	for _, u := range demo {
		hash, err := helpers.HashPassword(u.password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		var id string
		err = db.QueryRow(`
			INSERT INTO users (email, password_hash, first_name, last_name, profile_setup)
			VALUES ($1, $2, $3, $4, true)
			ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
			RETURNING id
		`, u.email, hash, u.firstName, u.lastName).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}
		fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, u.email, u.password)
	}
}
