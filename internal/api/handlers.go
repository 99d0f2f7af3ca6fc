// Package api exposes the admin HTTP surface: health, registered sports,
// match context inspection, bonus recalculation and live totals
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/XavierBriggs/Nike/internal/totals"
	"github.com/XavierBriggs/Nike/pkg/contracts"
	"github.com/XavierBriggs/Nike/pkg/models"
)

// ContextBuilder rebuilds a match context from the event log (internal/matchctx)
type ContextBuilder interface {
	Build(ctx context.Context, matchID string) (*models.MatchContext, error)
}

// BonusProcessor recalculates and replaces a match's bonuses (internal/bonus)
type BonusProcessor interface {
	Process(ctx context.Context, matchID string) (*models.MatchBonusResult, error)
}

// TotalsReader reads and rebuilds running live totals (internal/totals)
type TotalsReader interface {
	GetMatchTotals(ctx context.Context, matchID string) ([]totals.PlayerTotal, error)
	RebuildMatch(ctx context.Context, matchID string, points map[string]int) error
}

// SportLister lists registered sport plugins (internal/registry)
type SportLister interface {
	GetAll() []contracts.SportModule
}

// Pinger checks database connectivity (*sql.DB)
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db      Pinger
	sports  SportLister
	builder ContextBuilder
	bonuses BonusProcessor
	totals  TotalsReader
	logger  *slog.Logger
	timeout time.Duration
	nowFunc func() time.Time
}

// NewHandler creates a new handler with dependencies. db and totals may be nil.
func NewHandler(db Pinger, sports SportLister, builder ContextBuilder, bonuses BonusProcessor, totalsReader TotalsReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:      db,
		sports:  sports,
		builder: builder,
		bonuses: bonuses,
		totals:  totalsReader,
		logger:  logger.With("component", "api"),
		timeout: 10 * time.Second,
		nowFunc: time.Now,
	}
}

// SportInfo describes one registered sport plugin
type SportInfo struct {
	SportKey       string     `json:"sport_key"`
	DisplayName    string     `json:"display_name"`
	EventTypes     []string   `json:"event_types"`
	LiveRules      []RuleInfo `json:"live_rules"`
	PostMatchRules []RuleInfo `json:"post_match_rules"`
}

// RuleInfo is the serializable part of a rule
type RuleInfo struct {
	Name     string `json:"name"`
	Points   int    `json:"points,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.nowFunc().UTC(),
		"service":   "nike",
	})
}

// GetSports lists the registered sports with their rule sets
func (h *Handler) GetSports(w http.ResponseWriter, r *http.Request) {
	modules := h.sports.GetAll()
	sports := make([]SportInfo, 0, len(modules))
	for _, m := range modules {
		sports = append(sports, describeSport(m))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sports": sports,
		"count":  len(sports),
	})
}

func describeSport(m contracts.SportModule) SportInfo {
	info := SportInfo{
		SportKey:       m.GetSportKey(),
		DisplayName:    m.GetDisplayName(),
		EventTypes:     m.EventTypes(),
		LiveRules:      make([]RuleInfo, 0),
		PostMatchRules: make([]RuleInfo, 0),
	}
	for _, rule := range m.LiveRules() {
		info.LiveRules = append(info.LiveRules, RuleInfo{Name: rule.Name, Points: rule.Points})
	}
	for _, rule := range m.PostMatchRules() {
		info.PostMatchRules = append(info.PostMatchRules, RuleInfo{Name: rule.Name, Priority: rule.Priority})
	}
	return info
}

// GetMatchContext rebuilds and returns a match's context from its event log
func (h *Handler) GetMatchContext(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	matchID := chi.URLParam(r, "matchID")
	mc, err := h.builder.Build(ctx, matchID)
	if err != nil {
		h.respondError(w, errorStatus(err), "failed to build match context", err)
		return
	}

	respondJSON(w, http.StatusOK, mc)
}

// RecalculateBonuses recomputes a match's bonuses and replaces the stored result
func (h *Handler) RecalculateBonuses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	matchID := chi.URLParam(r, "matchID")
	result, err := h.bonuses.Process(ctx, matchID)
	if err != nil {
		h.respondError(w, errorStatus(err), "failed to calculate bonuses", err)
		return
	}

	h.logger.Info("bonuses recalculated", "match_id", matchID, "awards", len(result.Entries))
	respondJSON(w, http.StatusOK, result)
}

// GetMatchTotals returns the running live totals of a match
func (h *Handler) GetMatchTotals(w http.ResponseWriter, r *http.Request) {
	if h.totals == nil {
		h.respondError(w, http.StatusNotImplemented, "live totals are not enabled", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	matchID := chi.URLParam(r, "matchID")
	playerTotals, err := h.totals.GetMatchTotals(ctx, matchID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to read totals", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": matchID,
		"totals":   playerTotals,
		"count":    len(playerTotals),
	})
}

// RebuildMatchTotals recomputes a match's running totals from its event log
// and replaces the cached ones
func (h *Handler) RebuildMatchTotals(w http.ResponseWriter, r *http.Request) {
	if h.totals == nil {
		h.respondError(w, http.StatusNotImplemented, "live totals are not enabled", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	matchID := chi.URLParam(r, "matchID")
	mc, err := h.builder.Build(ctx, matchID)
	if err != nil {
		h.respondError(w, errorStatus(err), "failed to build match context", err)
		return
	}

	points := make(map[string]int, len(mc.Players))
	for _, p := range mc.Players {
		if p.Events > 0 {
			points[p.PlayerID] = p.Points
		}
	}
	if err := h.totals.RebuildMatch(ctx, matchID, points); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to rebuild totals", err)
		return
	}

	h.logger.Info("totals rebuilt", "match_id", matchID, "players", len(points))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": matchID,
		"totals":   points,
		"count":    len(points),
	})
}

// errorStatus maps engine errors to HTTP status codes
func errorStatus(err error) int {
	var buildErr *contracts.ContextBuildError
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrUnknownSport):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &buildErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Warn(message, "status", status, "error", err)
		message = message + ": " + err.Error()
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
