// internal/storage/postgres.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
)

// Durable stores backed by Postgres via pgxpool. Each operation is a single
// statement, so every registry update and event append is independently
// atomic; there are no multi-table transactions.

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sensors (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	alert_level INTEGER NOT NULL DEFAULT 0,
	sensitivity DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	seq       BIGSERIAL,
	timestamp TIMESTAMPTZ NOT NULL,
	level     TEXT NOT NULL,
	source    TEXT NOT NULL,
	payload   TEXT
);

CREATE INDEX IF NOT EXISTS events_recent_idx ON events (timestamp DESC, seq DESC);

CREATE TABLE IF NOT EXISTS risk_assessments (
	id         TEXT PRIMARY KEY,
	timestamp  TIMESTAMPTZ NOT NULL,
	score      INTEGER NOT NULL,
	risk_level TEXT NOT NULL,
	details    TEXT
);
`

// EnsureSchema creates the tables on first startup. Safe to run repeatedly.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// --- Event store ---

type PostgresEventStore struct {
	pool *pgxpool.Pool
}

func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{pool: pool}
}

func (s *PostgresEventStore) Append(ctx context.Context, level, source string, payload map[string]interface{}) (data.Event, error) {
	ev := data.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     level,
		Source:    source,
		Payload:   payload,
	}

	var encoded interface{}
	if raw := data.EncodePayload(payload); raw != "" {
		encoded = raw
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO events (id, timestamp, level, source, payload)
		 VALUES ($1, $2, $3, $4, $5) RETURNING seq`,
		ev.ID, ev.Timestamp, ev.Level, ev.Source, encoded,
	).Scan(&ev.Seq)
	if err != nil {
		return data.Event{}, fmt.Errorf("inserting event: %w", err)
	}
	return ev, nil
}

func (s *PostgresEventStore) Recent(ctx context.Context, limit int) ([]data.Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, timestamp, seq, level, source, COALESCE(payload, '')
		 FROM events ORDER BY timestamp DESC, seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []data.Event
	for rows.Next() {
		var ev data.Event
		var raw string
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Seq, &ev.Level, &ev.Source, &raw); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Payload = data.DecodePayload(raw)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- Sensor registry ---

// PostgresSensorRegistry keeps Postgres as the source of truth for sensor
// rows and mirrors each sensor's current alert level into Redis
// (sensor:alert:<id>), so the live-dashboard read path stays off the
// relational store. Cache trouble is logged and otherwise ignored.
type PostgresSensorRegistry struct {
	pool  *pgxpool.Pool
	cache *redis.Client
}

func NewPostgresSensorRegistry(pool *pgxpool.Pool, cache *redis.Client) *PostgresSensorRegistry {
	return &PostgresSensorRegistry{pool: pool, cache: cache}
}

func alertCacheKey(sensorID string) string {
	return "sensor:alert:" + sensorID
}

func (s *PostgresSensorRegistry) List(ctx context.Context) ([]data.Sensor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, type, alert_level, sensitivity, created_at FROM sensors`)
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	var sensors []data.Sensor
	for rows.Next() {
		var sensor data.Sensor
		if err := rows.Scan(&sensor.ID, &sensor.Name, &sensor.Type,
			&sensor.AlertLevel, &sensor.Sensitivity, &sensor.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}

		// Prefer the cached live level when present; the row value covers
		// cache misses and a cold cache after restart.
		if s.cache != nil {
			if val, err := s.cache.Get(ctx, alertCacheKey(sensor.ID)).Result(); err == nil {
				if level, convErr := strconv.Atoi(val); convErr == nil {
					sensor.AlertLevel = level
				}
			}
		}
		sensors = append(sensors, sensor)
	}
	return sensors, rows.Err()
}

func (s *PostgresSensorRegistry) SetAlertLevel(ctx context.Context, sensorID string, level int) (data.Sensor, error) {
	var sensor data.Sensor
	err := s.pool.QueryRow(ctx,
		`UPDATE sensors SET alert_level = $2 WHERE id = $1
		 RETURNING id, name, type, alert_level, sensitivity, created_at`,
		sensorID, level,
	).Scan(&sensor.ID, &sensor.Name, &sensor.Type,
		&sensor.AlertLevel, &sensor.Sensitivity, &sensor.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return data.Sensor{}, ErrNotFound
	}
	if err != nil {
		return data.Sensor{}, fmt.Errorf("updating sensor %s: %w", sensorID, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, alertCacheKey(sensorID), level, 0).Err(); err != nil {
			log.Printf("Error caching alert level for sensor %s: %v", sensorID, err)
		}
	}
	return sensor, nil
}

func (s *PostgresSensorRegistry) SeedIfEmpty(ctx context.Context, seed []data.Sensor) error {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM sensors`).Scan(&count); err != nil {
		return fmt.Errorf("counting sensors: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, sensor := range seed {
		if sensor.ID == "" {
			sensor.ID = uuid.NewString()
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO sensors (id, name, type, alert_level, sensitivity)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			sensor.ID, sensor.Name, sensor.Type, sensor.AlertLevel, sensor.Sensitivity)
		if err != nil {
			return fmt.Errorf("seeding sensor %q: %w", sensor.Name, err)
		}
	}
	log.Printf("Seeded %d sensors", len(seed))
	return nil
}

// --- Risk assessments ---

type PostgresAssessmentStore struct {
	pool *pgxpool.Pool
}

func NewPostgresAssessmentStore(pool *pgxpool.Pool) *PostgresAssessmentStore {
	return &PostgresAssessmentStore{pool: pool}
}

func (s *PostgresAssessmentStore) Save(ctx context.Context, score int, details map[string]interface{}) (data.RiskAssessment, error) {
	a := data.RiskAssessment{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Score:     score,
		RiskLevel: RiskLevel(score),
		Details:   details,
	}

	var encoded interface{}
	if raw := data.EncodePayload(details); raw != "" {
		encoded = raw
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO risk_assessments (id, timestamp, score, risk_level, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Timestamp, a.Score, a.RiskLevel, encoded)
	if err != nil {
		return data.RiskAssessment{}, fmt.Errorf("inserting assessment: %w", err)
	}
	return a, nil
}

func (s *PostgresAssessmentStore) Latest(ctx context.Context) (data.RiskAssessment, bool, error) {
	var a data.RiskAssessment
	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT id, timestamp, score, risk_level, COALESCE(details, '')
		 FROM risk_assessments ORDER BY timestamp DESC LIMIT 1`,
	).Scan(&a.ID, &a.Timestamp, &a.Score, &a.RiskLevel, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return data.RiskAssessment{}, false, nil
	}
	if err != nil {
		return data.RiskAssessment{}, false, fmt.Errorf("querying latest assessment: %w", err)
	}
	a.Details = data.DecodePayload(raw)
	return a, true, nil
}

// --- Users ---

type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

func (s *PostgresUserStore) Create(ctx context.Context, username, passwordHash string) (data.User, error) {
	u := data.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return data.User{}, ErrConflict
		}
		return data.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (data.User, error) {
	var u data.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return data.User{}, ErrNotFound
	}
	if err != nil {
		return data.User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// Interface conformance.
var (
	_ EventStore      = (*PostgresEventStore)(nil)
	_ SensorRegistry  = (*PostgresSensorRegistry)(nil)
	_ AssessmentStore = (*PostgresAssessmentStore)(nil)
	_ UserStore       = (*PostgresUserStore)(nil)

	_ EventStore      = (*MemoryEventStore)(nil)
	_ SensorRegistry  = (*MemorySensorRegistry)(nil)
	_ AssessmentStore = (*MemoryAssessmentStore)(nil)
	_ UserStore       = (*MemoryUserStore)(nil)
)
