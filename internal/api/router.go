package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRouter wires all endpoints onto a single router. Registration, login
// and the websocket endpoint are open; everything else sits behind the
// bearer-token middleware.
func SetupRouter(h *APIHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/", h.HandleRoot)
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Get("/ws", h.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)

		r.Get("/sensors", h.HandleSensors)
		r.Post("/sensors/{sensorID}/trigger", h.HandleTrigger)
		r.Post("/sensors/{sensorID}/reset", h.HandleReset)
		r.Get("/events", h.HandleEvents)
		r.Post("/assessment", h.HandleSaveAssessment)
		r.Get("/assessment/latest", h.HandleLatestAssessment)
	})

	return r
}

// corsMiddleware lets the browser dashboard call the API from a file:// or
// separately hosted origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
