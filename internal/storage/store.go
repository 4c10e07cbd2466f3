// internal/storage/store.go
package storage

import (
	"context"
	"errors"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
)

// DefaultEventLimit is the number of events Recent returns when the caller
// does not ask for a specific count.
const DefaultEventLimit = 20

// SafeScoreThreshold - assessment scores at or above this classify as "Safe".
const SafeScoreThreshold = 80

var (
	// ErrNotFound - the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict - a uniqueness constraint was violated (duplicate username).
	ErrConflict = errors.New("already exists")
)

// EventStore is the append-only audit log. Events are immutable; there is no
// update or delete.
type EventStore interface {
	// Append assigns a fresh id and a server-side timestamp, persists the
	// event and returns the stored record.
	Append(ctx context.Context, level, source string, payload map[string]interface{}) (data.Event, error)
	// Recent returns up to limit events, strictly newest first. Same-instant
	// writes keep their insertion order. limit <= 0 means DefaultEventLimit.
	Recent(ctx context.Context, limit int) ([]data.Event, error)
}

// SensorRegistry holds the fixed sensor set and each sensor's alert level.
type SensorRegistry interface {
	List(ctx context.Context) ([]data.Sensor, error)
	// SetAlertLevel atomically overwrites one sensor's alert level and
	// returns the updated row. ErrNotFound for an unknown id.
	SetAlertLevel(ctx context.Context, sensorID string, level int) (data.Sensor, error)
	// SeedIfEmpty inserts the given sensors only when the registry holds
	// none. Startup concern; a populated registry is left untouched.
	SeedIfEmpty(ctx context.Context, seed []data.Sensor) error
}

// AssessmentStore keeps risk-quiz submissions.
type AssessmentStore interface {
	Save(ctx context.Context, score int, details map[string]interface{}) (data.RiskAssessment, error)
	// Latest returns the most recent assessment, or ok=false when none exist.
	Latest(ctx context.Context) (data.RiskAssessment, bool, error)
}

// UserStore backs the login-gated API. Exposed to the auth layer only.
type UserStore interface {
	// Create persists a new user. ErrConflict on a duplicate username.
	Create(ctx context.Context, username, passwordHash string) (data.User, error)
	GetByUsername(ctx context.Context, username string) (data.User, error)
}

// RiskLevel derives the stored level string from a quiz score.
func RiskLevel(score int) string {
	if score >= SafeScoreThreshold {
		return "Safe"
	}
	return "Risk"
}

// DefaultSensors is the fixed set seeded into an empty registry at first
// startup.
func DefaultSensors() []data.Sensor {
	return []data.Sensor{
		{Name: "Front Door", Type: "door", Sensitivity: 1.0},
		{Name: "Kitchen Window", Type: "window", Sensitivity: 1.0},
		{Name: "Living Room Motion", Type: "motion", Sensitivity: 1.0},
		{Name: "Backyard Camera", Type: "camera", Sensitivity: 1.0},
	}
}
