package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"holdspeed/internal/control"
	"holdspeed/internal/speed"
)

// ============================================================================
// HTTP control API
// ============================================================================
//
//   GET  /health
//   GET  /api/speed                 state snapshot
//   GET  /api/catalog               supported speeds and bounds
//   POST /api/speed/{action}        up|down|reset|hold-up|hold-down|release
//   PUT  /api/settings              control.SettingsUpdate JSON
//   GET  /ws/state                  state websocket
//
// Mutating routes only enqueue an action; they answer 202 once the daemon
// loop has accepted it.
// ============================================================================

type apiServer struct {
	events chan<- Event
	logger *slog.Logger
}

type apiError struct {
	Error string `json:"error"`
}

type catalogResponse struct {
	Speeds []float64 `json:"speeds"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Auto   float64   `json:"auto"`
}

// speedActions maps POST /api/speed/{action} to control actions.
var speedActions = map[string]control.Action{
	"up":        control.SpeedStep{Direction: control.Up},
	"down":      control.SpeedStep{Direction: control.Down},
	"reset":     control.SpeedReset{},
	"hold-up":   control.SpeedHeld{Direction: control.Up},
	"hold-down": control.SpeedHeld{Direction: control.Down},
	"release":   control.SpeedRelease{},
}

// newRouter builds the API router. state may be nil to disable /ws/state.
func newRouter(events chan<- Event, state http.Handler, logger *slog.Logger) *mux.Router {
	api := &apiServer{events: events, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", api.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/speed", api.handleGetSpeed).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog", api.handleCatalog).Methods(http.MethodGet)
	r.HandleFunc("/api/speed/{action}", api.handleSpeedAction).Methods(http.MethodPost)
	r.HandleFunc("/api/settings", api.handleSettings).Methods(http.MethodPut)
	if state != nil {
		r.Handle("/ws/state", state).Methods(http.MethodGet)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, control.Response{Status: "ok"})
}

func (a *apiServer) handleGetSpeed(w http.ResponseWriter, r *http.Request) {
	snap, err := requestSnapshot(r.Context(), a.events)
	if err != nil {
		a.logger.Warn("speed snapshot request failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "daemon busy"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *apiServer) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{
		Speeds: speed.Catalog(),
		Min:    speed.MinSpeed,
		Max:    speed.MaxSpeed,
		Auto:   speed.AutoSpeed,
	})
}

func (a *apiServer) handleSpeedAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["action"]
	action, ok := speedActions[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: fmt.Sprintf("unknown action %q", name)})
		return
	}
	a.enqueue(w, action)
}

func (a *apiServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	var u control.SettingsUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: fmt.Sprintf("decode settings: %v", err)})
		return
	}
	if err := u.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	a.enqueue(w, u)
}

func (a *apiServer) enqueue(w http.ResponseWriter, action control.Action) {
	if !offerEvent(a.events, ActionEvent{Action: action}) {
		writeJSON(w, http.StatusServiceUnavailable, control.Response{Status: "error", Error: "event queue full"})
		return
	}
	writeJSON(w, http.StatusAccepted, control.Response{Status: "ok"})
}

// runHTTPServer serves handler on addr and shuts it down gracefully when ctx
// is canceled.
func runHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		// ListenAndServe returns http.ErrServerClosed on Shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
