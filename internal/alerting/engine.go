// internal/alerting/engine.go
package alerting

import (
	"context"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/severity"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/storage"
)

// SourceManualTrigger tags events produced by the trigger API.
const SourceManualTrigger = "manual.trigger"

// Broadcaster pushes a stored event to the live viewers. Delivery is
// best-effort and must never fail the caller; the websocket hub satisfies
// this.
type Broadcaster interface {
	BroadcastEvent(event data.EventMessage)
}

// Engine is the trigger state machine. It coordinates the sensor registry,
// the event log and the live broadcast; it owns no state of its own. The
// three writes are deliberately not transactional: a registry update that
// succeeds stands even if the subsequent log append is lost.
type Engine struct {
	registry    storage.SensorRegistry
	events      storage.EventStore
	broadcaster Broadcaster
}

func NewEngine(registry storage.SensorRegistry, events storage.EventStore, broadcaster Broadcaster) *Engine {
	return &Engine{
		registry:    registry,
		events:      events,
		broadcaster: broadcaster,
	}
}

// Trigger marks a sensor active or inactive and returns the resulting alert
// level.
//
// active=true classifies the event text into a level, updates the registry,
// appends an audit event and broadcasts it. active=false sets the sensor
// back to Safe with no event and no broadcast - deactivation is not
// newsworthy, matching the dedicated Reset path.
//
// An unknown sensor id yields storage.ErrNotFound before anything is logged
// or broadcast.
func (e *Engine) Trigger(ctx context.Context, sensorID string, active bool, eventText string) (int, error) {
	level := data.LevelSafe
	if active {
		level = severity.Classify(eventText)
	}

	sensor, err := e.registry.SetAlertLevel(ctx, sensorID, level)
	if err != nil {
		return 0, err
	}
	if !active {
		return level, nil
	}

	event, err := e.events.Append(ctx, severity.EventLevel(level), SourceManualTrigger,
		map[string]interface{}{"sensor": sensor.Name, "msg": eventText})
	if err != nil {
		// The registry update already stands; surface the append failure.
		return level, err
	}

	e.broadcaster.BroadcastEvent(data.EventMessage{
		Level:   event.Level,
		Source:  event.Source,
		Payload: event.Payload,
	})
	return level, nil
}

// Reset unconditionally returns a sensor to Safe. Silent: no event, no
// broadcast.
func (e *Engine) Reset(ctx context.Context, sensorID string) error {
	_, err := e.registry.SetAlertLevel(ctx, sensorID, data.LevelSafe)
	return err
}
