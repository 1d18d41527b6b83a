package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"erp-sync-service/internal/sync"
)

type Handler struct {
	svc *sync.Service
}

func NewHandler(svc *sync.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware)

	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/connections", func(r chi.Router) {
			r.Post("/", h.CreateConnection)
			r.Get("/", h.ListConnections)
			r.Get("/{id}", h.GetConnection)
			r.Put("/{id}", h.UpdateConnection)
			r.Delete("/{id}", h.DeleteConnection)
			r.Post("/{id}/test", h.TestConnection)
			r.Post("/{id}/orders", h.PushOrder)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", h.CreateSchedule)
			r.Get("/", h.ListSchedules)
			r.Get("/due", h.DueSchedules)
			r.Post("/process", h.ProcessDue)
			r.Get("/{id}", h.GetSchedule)
			r.Put("/{id}", h.UpdateSchedule)
			r.Delete("/{id}", h.DeleteSchedule)
			r.Post("/{id}/run", h.RunSchedule)
			r.Get("/{id}/logs", h.ListExecutionLogs)
		})
	})

	return r
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn sync.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.Connections.Create(r.Context(), conn)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.svc.Connections.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conns)
}

func (h *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.svc.Connections.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if conn == nil {
		respondError(w, http.StatusNotFound, "connection not found")
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

func (h *Handler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	var patch sync.ConnectionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	conn, err := h.svc.Connections.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if conn == nil {
		respondError(w, http.StatusNotFound, "connection not found")
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.Connections.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.svc.Connections.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if conn == nil {
		respondError(w, http.StatusNotFound, "connection not found")
		return
	}
	respondJSON(w, http.StatusOK, h.svc.Connections.Test(r.Context(), conn))
}

func (h *Handler) PushOrder(w http.ResponseWriter, r *http.Request) {
	var order sync.OrderSyncPayload
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Executor.PushOrder(r.Context(), chi.URLParam(r, "id"), order); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var sched sync.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.Schedules.Create(r.Context(), sched)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.svc.Schedules.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, schedules)
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.svc.Schedules.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if sched == nil {
		respondError(w, http.StatusNotFound, "schedule not found")
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var patch sync.SchedulePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sched, err := h.svc.Schedules.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if sched == nil {
		respondError(w, http.StatusNotFound, "schedule not found")
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.Schedules.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) RunSchedule(w http.ResponseWriter, r *http.Request) {
	log, err := h.svc.Executor.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

func (h *Handler) DueSchedules(w http.ResponseWriter, r *http.Request) {
	due, err := h.svc.Schedules.Due(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, due)
}

func (h *Handler) ProcessDue(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.Runner.ProcessDue(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) ListExecutionLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	logs, err := h.svc.Executor.ListExecutionLogs(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case sync.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case sync.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sync.ErrConnectionInUse):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}
