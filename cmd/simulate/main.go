package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/youneed/marketplace-api/internal/db"
)

// simulate hammers one provider with concurrent overlapping booking requests.
// With the per-provider lock in place, exactly one request per slot should
// succeed and the rest should come back as conflicts, never as double books.

type simConfig struct {
	APIBaseURL  string
	PostgresDSN string
	Workers     int
	Duration    time.Duration
	Password    string
}

type metrics struct {
	total     int64
	success   int64
	conflict  int64
	errored   int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict || status == http.StatusBadRequest:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.errored, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) percentile(p int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := simConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Workers:     getEnvInt("SIM_WORKERS", 20),
		Duration:    getEnvDuration("SIM_DURATION", 30*time.Second),
		Password:    getEnv("SIM_PASSWORD", "youneed-dev"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration+time.Minute)
	defer cancel()

	clients, providerID, err := loadActors(ctx, cfg)
	if err != nil {
		log.Fatalf("load actors: %v", err)
	}
	log.Printf("simulating %d workers against provider %d for %s", cfg.Workers, providerID, cfg.Duration)

	tokens := make([]string, 0, len(clients))
	for _, email := range clients {
		token, err := login(cfg, email)
		if err != nil {
			log.Fatalf("login %s: %v", email, err)
		}
		tokens = append(tokens, token)
	}

	// All workers fight over the same small set of hourly slots next Monday.
	base := nextMonday(time.Now()).Add(10 * time.Hour)

	var m metrics
	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			token := tokens[worker%len(tokens)]
			slot := 0
			for time.Now().Before(deadline) {
				start := base.Add(time.Duration(slot%4) * time.Hour)
				end := start.Add(time.Hour)
				status, latency := book(cfg, token, providerID, start, end)
				m.record(latency, status)
				slot++
			}
		}(i)
	}

	wg.Wait()

	fmt.Printf("requests=%d success=%d conflict=%d error=%d p50=%s p95=%s\n",
		m.total, m.success, m.conflict, m.errored, m.percentile(50), m.percentile(95))
}

func loadActors(ctx context.Context, cfg simConfig) (clients []string, providerID int64, err error) {
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, 0, err
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `SELECT email FROM users WHERE role = 'client' ORDER BY id LIMIT 10`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, 0, err
		}
		clients = append(clients, email)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(clients) == 0 {
		return nil, 0, fmt.Errorf("no seeded clients, run cmd/seed first")
	}

	err = pool.QueryRow(ctx, `SELECT id FROM users WHERE role = 'provider' ORDER BY id LIMIT 1`).Scan(&providerID)
	if err != nil {
		return nil, 0, err
	}

	return clients, providerID, nil
}

func login(cfg simConfig, email string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": cfg.Password})

	resp, err := http.Post(cfg.APIBaseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %d %s", resp.StatusCode, data)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func book(cfg simConfig, token string, providerID int64, start, end time.Time) (int, time.Duration) {
	body, _ := json.Marshal(map[string]any{
		"title":      "Symulacja rezerwacji",
		"startAt":    start.Format(time.RFC3339),
		"endAt":      end.Format(time.RFC3339),
		"providerId": providerID,
	})

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return 0, 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	started := time.Now()
	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(started)
	if err != nil {
		return 0, latency
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, latency
}

func nextMonday(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, 1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
