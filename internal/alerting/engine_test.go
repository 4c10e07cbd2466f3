package alerting

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/storage"
)

// captureBroadcaster records broadcast messages for assertions.
type captureBroadcaster struct {
	mu       sync.Mutex
	messages []data.EventMessage
}

func (c *captureBroadcaster) BroadcastEvent(event data.EventMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, event)
}

func (c *captureBroadcaster) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func newTestEngine(t *testing.T) (*Engine, *storage.MemorySensorRegistry, *storage.MemoryEventStore, *captureBroadcaster) {
	t.Helper()
	registry := storage.NewMemorySensorRegistry()
	require.NoError(t, registry.SeedIfEmpty(context.Background(), storage.DefaultSensors()))
	events := storage.NewMemoryEventStore()
	bc := &captureBroadcaster{}
	return NewEngine(registry, events, bc), registry, events, bc
}

func firstSensor(t *testing.T, registry *storage.MemorySensorRegistry) data.Sensor {
	t.Helper()
	sensors, err := registry.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sensors)
	return sensors[0]
}

func sensorLevel(t *testing.T, registry *storage.MemorySensorRegistry, id string) int {
	t.Helper()
	sensors, err := registry.List(context.Background())
	require.NoError(t, err)
	for _, s := range sensors {
		if s.ID == id {
			return s.AlertLevel
		}
	}
	t.Fatalf("sensor %s not found", id)
	return -1
}

func TestTriggerCritical(t *testing.T) {
	engine, registry, events, bc := newTestEngine(t)
	sensor := firstSensor(t, registry)

	level, err := engine.Trigger(context.Background(), sensor.ID, true, "critical glass break")
	require.NoError(t, err)
	assert.Equal(t, data.LevelCritical, level)
	assert.Equal(t, data.LevelCritical, sensorLevel(t, registry, sensor.ID))

	recent, err := events.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, data.SeverityCritical, recent[0].Level)
	assert.Equal(t, SourceManualTrigger, recent[0].Source)
	assert.Equal(t, sensor.Name, recent[0].Payload["sensor"])
	assert.Equal(t, "critical glass break", recent[0].Payload["msg"])

	require.Equal(t, 1, bc.count())
	assert.Equal(t, data.SeverityCritical, bc.messages[0].Level)
	assert.Equal(t, SourceManualTrigger, bc.messages[0].Source)
}

func TestTriggerLevels(t *testing.T) {
	engine, registry, _, _ := newTestEngine(t)
	sensor := firstSensor(t, registry)
	ctx := context.Background()

	level, err := engine.Trigger(ctx, sensor.ID, true, "warn now")
	require.NoError(t, err)
	assert.Equal(t, data.LevelWarning, level)

	level, err = engine.Trigger(ctx, sensor.ID, true, "hello")
	require.NoError(t, err)
	assert.Equal(t, data.LevelStandard, level)
}

func TestTriggerInactiveIsSilent(t *testing.T) {
	engine, registry, events, bc := newTestEngine(t)
	sensor := firstSensor(t, registry)
	ctx := context.Background()

	_, err := engine.Trigger(ctx, sensor.ID, true, "tamper")
	require.NoError(t, err)
	require.Equal(t, 1, events.Count())

	// Deactivation resets the sensor but logs and broadcasts nothing.
	level, err := engine.Trigger(ctx, sensor.ID, false, "going quiet")
	require.NoError(t, err)
	assert.Equal(t, data.LevelSafe, level)
	assert.Equal(t, data.LevelSafe, sensorLevel(t, registry, sensor.ID))
	assert.Equal(t, 1, events.Count())
	assert.Equal(t, 1, bc.count())
}

func TestResetIsSilent(t *testing.T) {
	engine, registry, events, bc := newTestEngine(t)
	sensor := firstSensor(t, registry)
	ctx := context.Background()

	_, err := engine.Trigger(ctx, sensor.ID, true, "forced entry")
	require.NoError(t, err)
	require.Equal(t, data.LevelCritical, sensorLevel(t, registry, sensor.ID))

	require.NoError(t, engine.Reset(ctx, sensor.ID))
	assert.Equal(t, data.LevelSafe, sensorLevel(t, registry, sensor.ID))
	assert.Equal(t, 1, events.Count())
	assert.Equal(t, 1, bc.count())
}

func TestTriggerUnknownSensor(t *testing.T) {
	engine, _, events, bc := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Trigger(ctx, "no-such-id", true, "break in")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// No event, no broadcast for a registry update that did not happen.
	assert.Equal(t, 0, events.Count())
	assert.Equal(t, 0, bc.count())

	assert.ErrorIs(t, engine.Reset(ctx, "no-such-id"), storage.ErrNotFound)
}

func TestConcurrentTriggersOnDistinctSensors(t *testing.T) {
	engine, registry, _, _ := newTestEngine(t)
	sensors, err := registry.List(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(sensors), 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := engine.Trigger(context.Background(), id, true, "tamper detected")
				assert.NoError(t, err)
			}
		}(sensors[i].ID)
	}
	wg.Wait()

	assert.Equal(t, data.LevelWarning, sensorLevel(t, registry, sensors[0].ID))
	assert.Equal(t, data.LevelWarning, sensorLevel(t, registry, sensors[1].ID))
}
