package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tasksync/internal/session"
)

// RegisterRoutes sets up all routes of the local API.
func RegisterRoutes(router *mux.Router, c *TaskController) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/accounts", c.GetAccounts).Methods(http.MethodGet)
	api.HandleFunc("/lists", c.GetLists).Methods(http.MethodGet)
	api.HandleFunc("/tasks", c.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", c.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}", c.UpdateTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{taskID}", c.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{taskID}/toggle", c.ToggleTask).Methods(http.MethodPost)
	api.HandleFunc("/refresh", c.Refresh).Methods(http.MethodPost)
}

// NewHandler returns the API handler for a session.
func NewHandler(s *session.Session) http.Handler {
	router := mux.NewRouter()
	RegisterRoutes(router, NewTaskController(s))
	return router
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, s *session.Session, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.Log.Info().Str("addr", addr).Msg("serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
