// internal/storage/memory.go
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
)

// In-memory store implementations. They back tests and standalone runs;
// production wiring uses the Postgres stores.

// MemoryEventStore keeps the event log in an append-ordered slice.
// Timestamps are assigned under the lock, so slice order is the total order
// (the explicit seq mirrors what the durable store does with a sequence
// column).
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []data.Event
	seq    int64
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) Append(ctx context.Context, level, source string, payload map[string]interface{}) (data.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev := data.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Seq:       s.seq,
		Level:     level,
		Source:    source,
		Payload:   copyMap(payload),
	}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *MemoryEventStore) Recent(ctx context.Context, limit int) ([]data.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > len(s.events) {
		limit = len(s.events)
	}

	// Newest first: walk the tail of the slice backwards.
	result := make([]data.Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		result = append(result, s.events[i])
	}
	return result, nil
}

// Count reports the number of stored events. Test helper.
func (s *MemoryEventStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// MemorySensorRegistry holds sensors keyed by id.
type MemorySensorRegistry struct {
	mu      sync.RWMutex
	sensors map[string]data.Sensor
}

func NewMemorySensorRegistry() *MemorySensorRegistry {
	return &MemorySensorRegistry{sensors: make(map[string]data.Sensor)}
}

func (s *MemorySensorRegistry) List(ctx context.Context) ([]data.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]data.Sensor, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		result = append(result, sensor)
	}
	return result, nil
}

func (s *MemorySensorRegistry) SetAlertLevel(ctx context.Context, sensorID string, level int) (data.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sensor, ok := s.sensors[sensorID]
	if !ok {
		return data.Sensor{}, ErrNotFound
	}
	sensor.AlertLevel = level
	s.sensors[sensorID] = sensor
	return sensor, nil
}

func (s *MemorySensorRegistry) SeedIfEmpty(ctx context.Context, seed []data.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sensors) > 0 {
		return nil
	}
	for _, sensor := range seed {
		if sensor.ID == "" {
			sensor.ID = uuid.NewString()
		}
		if sensor.CreatedAt.IsZero() {
			sensor.CreatedAt = time.Now().UTC()
		}
		s.sensors[sensor.ID] = sensor
	}
	return nil
}

// MemoryAssessmentStore keeps submissions append-ordered; Latest is the tail.
type MemoryAssessmentStore struct {
	mu          sync.RWMutex
	assessments []data.RiskAssessment
}

func NewMemoryAssessmentStore() *MemoryAssessmentStore {
	return &MemoryAssessmentStore{}
}

func (s *MemoryAssessmentStore) Save(ctx context.Context, score int, details map[string]interface{}) (data.RiskAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := data.RiskAssessment{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Score:     score,
		RiskLevel: RiskLevel(score),
		Details:   copyMap(details),
	}
	s.assessments = append(s.assessments, a)
	return a, nil
}

func (s *MemoryAssessmentStore) Latest(ctx context.Context) (data.RiskAssessment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.assessments) == 0 {
		return data.RiskAssessment{}, false, nil
	}
	return s.assessments[len(s.assessments)-1], true, nil
}

// MemoryUserStore keeps users keyed by username.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]data.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]data.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, username, passwordHash string) (data.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return data.User{}, ErrConflict
	}
	u := data.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[username] = u
	return u, nil
}

func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (data.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return data.User{}, ErrNotFound
	}
	return u, nil
}

// copyMap shallow-copies a payload so callers cannot mutate stored records.
func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
