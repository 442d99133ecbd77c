package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/youneed/marketplace-api/internal/db"
)

// Every seeded account gets the same password so the simulate tool and manual
// testing can log in.
const seedPassword = "youneed-dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}
	passwordHash := string(hash)

	if err := seedAdmin(context.Background(), pool, passwordHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedProviders(context.Background(), pool, passwordHash, 50); err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	if err := seedClients(context.Background(), pool, passwordHash, 500); err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, passwordHash string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, name, phone, role, created_at, updated_at)
		VALUES ('admin@youneed.local', $1, 'Administrator', NULL, 'admin', now(), now())
		ON CONFLICT (email) DO NOTHING
	`, passwordHash)
	return err
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) error {
	log.Printf("seeding %d providers", count)

	professions := []string{
		"Fryzjer",
		"Elektryk",
		"Hydraulik",
		"Kosmetyczka",
		"Mechanik",
		"Masażysta",
		"Fotograf",
		"Korepetytor",
		"Stolarz",
		"Ogrodnik",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := gofakeit.Email()
		phone := gofakeit.Phone()
		profession := professions[gofakeit.Number(0, len(professions)-1)]

		var providerID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, name, phone, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'provider', now(), now())
			RETURNING id
		`, email, passwordHash, name, phone).Scan(&providerID)
		if err != nil {
			return err
		}

		// Open Monday to Friday, some providers also Saturday.
		lastDay := 5
		if gofakeit.Bool() {
			lastDay = 6
		}
		for day := 1; day <= lastDay; day++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO opening_hours (provider_id, day_of_week, is_open, open_time, close_time, created_at, updated_at)
				VALUES ($1, $2, true, '09:00', '17:00', now(), now())
			`, providerID, day)
			if err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO services (provider_id, name, description, price_cents, duration_min, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, providerID, profession, gofakeit.Sentence(8), int64(gofakeit.Number(2000, 50000)), gofakeit.Number(1, 4)*30)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("providers seeded")
	return nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) error {
	log.Printf("seeding %d clients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO users (email, password_hash, name, phone, role, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'client', now(), now())
			`, gofakeit.Email(), passwordHash, gofakeit.Name(), gofakeit.Phone())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("clients seeded: %d/%d", end, count)
	}

	log.Println("clients seeded")
	return nil
}
