// internal/data/models.go
package data

import "time"

// Alert levels a sensor can be in. Stored as plain integers.
const (
	LevelSafe     = 0
	LevelStandard = 1
	LevelWarning  = 2
	LevelCritical = 3
)

// Event severity strings as they appear in the log and on the wire.
const (
	SeverityInfo     = "info"
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// Sensor - a monitored device with its current alert state.
type Sensor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"` // e.g., "door", "window", "motion", "camera"
	AlertLevel  int       `json:"alert_level"`
	Sensitivity float64   `json:"sensitivity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event - an immutable audit-log record. Seq is assigned by the store and
// breaks ties between events written at the same instant.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Seq       int64                  `json:"-"`
	Level     string                 `json:"level"` // "info", "warn", "critical"
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// RiskAssessment - a quiz-style score submission with its derived level.
type RiskAssessment struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Score     int                    `json:"score"`
	RiskLevel string                 `json:"risk_level"` // "Safe" or "Risk"
	Details   map[string]interface{} `json:"details,omitempty"`
}

// User - an account record. Only the auth layer looks at PasswordHash.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventMessage is the event body pushed to live viewers. Deliberately a
// subset of Event: viewers get level/source/payload, history queries get
// the full record.
type EventMessage struct {
	Level   string                 `json:"level"`
	Source  string                 `json:"source"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
