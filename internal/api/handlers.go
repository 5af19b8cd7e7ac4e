package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/ingest"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/storage"
)

// triggerRequest is the optional body accepted by the trigger endpoints.
type triggerRequest struct {
	Season          string `json:"season,omitempty"`
	LeagueIDs       []int  `json:"leagueIds,omitempty"`
	SkipPlayers     bool   `json:"skipPlayers,omitempty"`
	SkipTeamStats   bool   `json:"skipTeamStats,omitempty"`
	SkipPlayerStats bool   `json:"skipPlayerStats,omitempty"`
}

// triggerResponse is the immediate acknowledgement of a scheduled run.
type triggerResponse struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId"`
	Status  string `json:"status"`
}

// statusResponse is the payload of the ingestion status endpoint.
type statusResponse struct {
	ActiveRun *activeRun         `json:"activeRun,omitempty"`
	Usage     *usageStatus       `json:"usage,omitempty"`
	Governor  interface{}        `json:"governor"`
	LatestRun *models.RunSummary `json:"latestRun,omitempty"`
}

// usageStatus summarizes today's call budget consumption.
type usageStatus struct {
	Date        string  `json:"date"`
	Calls       int     `json:"calls"`
	Limit       int     `json:"limit"`
	PercentUsed float64 `json:"percentUsed"`
}

// handleIngestRun schedules a full ingestion run and acknowledges
// immediately. Only one run may be active at a time; a second trigger while
// one is running is rejected rather than queued.
func (s *Server) handleIngestRun(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.parseTrigger(w, r)
	if !ok {
		return
	}
	if !s.quotaGate(w, r) {
		return
	}

	runID := uuid.New().String()
	if !s.beginRun(runID, ingest.JobFull) {
		respondError(w, http.StatusConflict, ErrCodeAlreadyRunning, "An ingestion run is already in progress", nil)
		return
	}
	opts.RunID = runID

	go func() {
		defer s.endRun()
		// The run outlives the HTTP request deliberately.
		if _, err := s.runner.Run(context.Background(), opts); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{"runId": runID}).Error("scheduled run failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, triggerResponse{Success: true, RunID: runID, Status: "scheduled"})
}

// handleIngestStage returns a handler scheduling one standalone stage.
func (s *Server) handleIngestStage(stage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, ok := s.parseTrigger(w, r)
		if !ok {
			return
		}
		if !s.quotaGate(w, r) {
			return
		}

		runID := uuid.New().String()
		if !s.beginRun(runID, stage) {
			respondError(w, http.StatusConflict, ErrCodeAlreadyRunning, "An ingestion run is already in progress", nil)
			return
		}
		opts.RunID = runID

		go func() {
			defer s.endRun()
			if _, err := s.runner.RunStage(context.Background(), stage, opts); err != nil {
				s.logger.WithError(err).WithFields(map[string]interface{}{"runId": runID, "stage": stage}).Error("scheduled stage run failed")
			}
		}()

		respondJSON(w, http.StatusAccepted, triggerResponse{Success: true, RunID: runID, Status: "scheduled"})
	}
}

// handleIngestStatus reports the active run, the governor counters and the
// most recent persisted run summary.
func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{ActiveRun: s.currentRun()}
	if s.usage != nil {
		today := models.UsageDate(time.Now())
		counter := s.usage.GetUsage(r.Context(), s.provider, today)
		status := &usageStatus{Date: today, Calls: counter.TotalCalls, Limit: s.config.DailyLimit}
		if status.Limit > 0 {
			status.PercentUsed = float64(status.Calls) / float64(status.Limit) * 100
		}
		resp.Usage = status
	}
	if s.governor != nil {
		resp.Governor = s.governor.Snapshot()
	}
	if s.runs != nil {
		latest, err := s.runs.Latest(r.Context())
		if err != nil {
			s.logger.WithError(err).Warn("failed to load latest run")
		} else {
			resp.LatestRun = latest
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleGetUsage returns the usage counter for a date (today by default).
// Responses for past dates are immutable, so they are served through the
// cache when one is wired.
func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "date must be formatted YYYY-MM-DD", nil)
			return
		}
	}

	if s.cache != nil && date != "" {
		key := s.cache.GenerateCacheKey(storage.CacheKeyUsage, s.provider, date)
		var cached models.UsageCounter
		if hit, err := s.cache.Get(r.Context(), key, &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	counter := s.usage.GetUsage(r.Context(), s.provider, date)

	if s.cache != nil && date != "" && date != models.UsageDate(time.Now()) {
		key := s.cache.GenerateCacheKey(storage.CacheKeyUsage, s.provider, date)
		if err := s.cache.Set(r.Context(), key, counter); err != nil {
			s.logger.WithError(err).Debug("failed to cache usage counter")
		}
	}

	respondJSON(w, http.StatusOK, counter)
}

// quotaGate rejects a trigger when today's call budget is already spent.
// A run started now would only discover the same thing after spinning up.
func (s *Server) quotaGate(w http.ResponseWriter, r *http.Request) bool {
	if s.usage == nil || s.config.DailyLimit <= 0 {
		return true
	}
	counter := s.usage.GetUsage(r.Context(), s.provider, models.UsageDate(time.Now()))
	if counter.TotalCalls >= s.config.DailyLimit {
		respondCategorizedError(w, apperrors.NewQuotaExceededError(s.provider, counter.TotalCalls, s.config.DailyLimit))
		return false
	}
	return true
}

// parseTrigger decodes the optional trigger body. An empty body is valid.
func (s *Server) parseTrigger(w http.ResponseWriter, r *http.Request) (ingest.RunOptions, bool) {
	var req triggerRequest
	if err := parseJSONBody(r, &req); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "invalid request body: "+err.Error(), nil)
		return ingest.RunOptions{}, false
	}

	if req.Season != "" {
		if _, err := time.Parse("2006", req.Season); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "season must be a four-digit year", nil)
			return ingest.RunOptions{}, false
		}
	}
	for _, id := range req.LeagueIDs {
		if id <= 0 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "league ids must be positive", nil)
			return ingest.RunOptions{}, false
		}
	}

	return ingest.RunOptions{
		Season:          req.Season,
		LeagueIDs:       req.LeagueIDs,
		SkipPlayers:     req.SkipPlayers,
		SkipTeamStats:   req.SkipTeamStats,
		SkipPlayerStats: req.SkipPlayerStats,
	}, true
}

func (s *Server) beginRun(runID, jobType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return false
	}
	s.active = &activeRun{RunID: runID, JobType: jobType, StartedAt: time.Now().UTC()}
	return true
}

func (s *Server) endRun() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

func (s *Server) currentRun() *activeRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	run := *s.active
	return &run
}
