package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	gwebsocket "github.com/gorilla/websocket" // Alias to avoid name conflict

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/alerting"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/auth"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/storage"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/websocket"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Browser dashboard connects cross-origin
}

type APIHandler struct {
	registry    storage.SensorRegistry
	events      storage.EventStore
	assessments storage.AssessmentStore
	engine      *alerting.Engine
	hub         *websocket.Hub
	auth        *auth.Manager
}

func NewAPIHandler(registry storage.SensorRegistry, events storage.EventStore,
	assessments storage.AssessmentStore, engine *alerting.Engine,
	hub *websocket.Hub, authMgr *auth.Manager) *APIHandler {
	return &APIHandler{
		registry:    registry,
		events:      events,
		assessments: assessments,
		engine:      engine,
		hub:         hub,
		auth:        authMgr,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
	case errors.Is(err, storage.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"detail": "Username already exists"})
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
	default:
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
	}
}

// HandleRoot is a liveness probe.
func (h *APIHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Security Hub Online"})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if _, err := h.auth.Register(r.Context(), creds.Username, creds.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *APIHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.GenerateJWT(user.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"username": user.Username,
		"token":    token,
	})
}

func (h *APIHandler) HandleSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if sensors == nil {
		sensors = []data.Sensor{}
	}
	writeJSON(w, http.StatusOK, sensors)
}

// HandleTrigger simulates a sensor firing. active and event_text arrive as
// query parameters, defaulting to a plain manual trigger.
func (h *APIHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	sensorID := chi.URLParam(r, "sensorID")

	active := true
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "Bad Request: invalid active flag", http.StatusBadRequest)
			return
		}
		active = parsed
	}

	eventText := r.URL.Query().Get("event_text")
	if eventText == "" {
		eventText = "Manual Trigger"
	}

	level, err := h.engine.Trigger(r.Context(), sensorID, active, eventText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "updated", "level": level})
}

func (h *APIHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Reset(r.Context(), chi.URLParam(r, "sensorID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *APIHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Bad Request: invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []data.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

type assessmentRequest struct {
	Score   int                    `json:"score"`
	Details map[string]interface{} `json:"details"`
}

func (h *APIHandler) HandleSaveAssessment(w http.ResponseWriter, r *http.Request) {
	var req assessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	assessment, err := h.assessments.Save(r.Context(), req.Score, req.Details)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *APIHandler) HandleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, ok, err := h.assessments.Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// HandleWebSocket upgrades the connection and attaches the viewer to the hub
// until it disconnects.
func (h *APIHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn)

	// Queue the snapshot before attaching: the viewer's first frame is the
	// current state, followed by live events in broadcast order.
	h.sendSnapshot(client)
	h.hub.RegisterClient(client)

	go client.WritePump()
	go client.ReadPump()
}

// sendSnapshot queues the current sensor set and recent events for a newly
// connected viewer so the dashboard does not start blank. The request
// context is gone once the connection is hijacked, so this uses its own.
func (h *APIHandler) sendSnapshot(client *websocket.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sensors, err := h.registry.List(ctx)
	if err != nil {
		log.Printf("Error loading sensors for snapshot: %v", err)
		return
	}
	events, err := h.events.Recent(ctx, storage.DefaultEventLimit)
	if err != nil {
		log.Printf("Error loading events for snapshot: %v", err)
		return
	}

	messageBytes, err := json.Marshal(map[string]interface{}{
		"type":    "snapshot",
		"sensors": sensors,
		"events":  events,
	})
	if err != nil {
		log.Printf("Error marshalling snapshot: %v", err)
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		// Cannot happen with a fresh client, its buffer is empty.
		log.Printf("Dropped snapshot, viewer buffer full")
	}
}
