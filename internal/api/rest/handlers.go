package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/scheduler"
	"github.com/fortuna/accolade/internal/service"
	"github.com/fortuna/accolade/internal/store"
)

// Dashboard is the read service behind the API.
type Dashboard interface {
	Leaders(ctx context.Context) (service.Leaders, error)
	WeeklyAwards(ctx context.Context) ([]service.AwardView, error)
	MonthlyAwards(ctx context.Context) ([]service.AwardView, error)
	OfficialAwards(ctx context.Context, kind store.OfficialKind) ([]service.OfficialAwardView, error)
	StatLeaders(ctx context.Context) ([]service.StatLineView, error)
	RecentRuns(ctx context.Context) ([]service.RunView, error)
}

// HealthChecker is anything that can be pinged.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	dashboard  Dashboard
	runner     scheduler.Runner
	runTimeout time.Duration
	checks     map[string]HealthChecker
	log        *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(dashboard Dashboard, runner scheduler.Runner, runTimeout time.Duration, checks map[string]HealthChecker, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		dashboard:  dashboard,
		runner:     runner,
		runTimeout: runTimeout,
		checks:     checks,
		log:        log,
	}
}

// HealthCheck pings each dependency
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       overall,
		"service":      "accolade",
		"dependencies": deps,
	})
}

// TriggerIngestion runs the daily ingestion synchronously. The run is
// detached from the request so a dropped connection does not abort it.
func (h *Handler) TriggerIngestion(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	rep, err := h.runner.RunDaily(ctx)
	if scheduler.IsRunInProgress(err) {
		respondError(w, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		h.log.WithError(err).Error("triggered ingestion failed")
		respondError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  rep,
	})
}

// GetLeaders returns the current award holders per conference
func (h *Handler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	leaders, err := h.dashboard.Leaders(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch leaders", err)
		return
	}
	respondJSON(w, http.StatusOK, leaders)
}

// GetWeeklyAwards returns recent weekly awards
func (h *Handler) GetWeeklyAwards(w http.ResponseWriter, r *http.Request) {
	list, err := h.dashboard.WeeklyAwards(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch weekly awards", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"awards": list,
		"count":  len(list),
	})
}

// GetMonthlyAwards returns recent monthly awards
func (h *Handler) GetMonthlyAwards(w http.ResponseWriter, r *http.Request) {
	list, err := h.dashboard.MonthlyAwards(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch monthly awards", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"awards": list,
		"count":  len(list),
	})
}

// GetOfficialAwards returns imported league awards, ?kind=pow|pom|rom|com
func (h *Handler) GetOfficialAwards(w http.ResponseWriter, r *http.Request) {
	kind := store.OfficialKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = store.OfficialPlayerOfWeek
	}
	if !kind.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid kind (use pow, pom, rom or com)", nil)
		return
	}

	list, err := h.dashboard.OfficialAwards(r.Context(), kind)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch official awards", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"kind":   kind,
		"awards": list,
		"count":  len(list),
	})
}

// GetStatLeaders returns the best lines of the latest ingested day
func (h *Handler) GetStatLeaders(w http.ResponseWriter, r *http.Request) {
	lines, err := h.dashboard.StatLeaders(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stat leaders", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaders": lines,
		"count":   len(lines),
	})
}

// GetRuns returns recent ingestion runs
func (h *Handler) GetRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.dashboard.RecentRuns(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch ingestion runs", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
