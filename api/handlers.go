/*
handlers.go - HTTP handler implementations

PURPOSE:
  Implements the REST surface over the farm record store and the feed-cost
  engine. Handlers follow a consistent pattern:
  1. Parse and validate input
  2. Call the store / engine
  3. Serialize response
  4. Map errors to HTTP status

  Report handlers recompute everything from the three source feeds on every
  request - derived periods and timelines are never cached or persisted.

ERROR HANDLING:
  - 400: validation errors, invalid input
  - 404: record not found
  - 409: conflict (duplicate id, bag already depleted)
  - 500: store failures

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coopledger/feedcost/factory"
	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
	"github.com/coopledger/feedcost/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. Now supplies the
// reference date for fallback snapshots and default depletion dates; tests
// pin it.
type Handler struct {
	Store store.Store
	Now   func() flock.TimePoint
}

func NewHandler(st store.Store) *Handler {
	return &Handler{
		Store: st,
		Now:   func() flock.TimePoint { return flock.FromTime(time.Now().UTC()) },
	}
}

// =============================================================================
// FLOCK BATCH ENDPOINTS
// =============================================================================

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Store.ListBatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batches", err)
		return
	}
	dtos := make([]BatchDTO, 0, len(batches))
	for _, b := range batches {
		dtos = append(dtos, toBatchDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BatchName == "" {
		writeError(w, http.StatusBadRequest, "batchName is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = fmt.Sprintf("batch-%d", time.Now().UnixNano())
	}

	batch, err := factory.Batch(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid batch record", err)
		return
	}
	if err := h.Store.CreateBatch(r.Context(), batch); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "Batch id already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create batch", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBatchDTO(batch))
}

func (h *Handler) DeactivateBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeactivateBatch(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Batch not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to deactivate batch", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// =============================================================================
// DEATH RECORD ENDPOINTS
// =============================================================================

func (h *Handler) ListDeaths(w http.ResponseWriter, r *http.Request) {
	deaths, err := h.Store.ListDeaths(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list death records", err)
		return
	}
	dtos := make([]DeathDTO, 0, len(deaths))
	for _, d := range deaths {
		dtos = append(dtos, toDeathDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateDeath(w http.ResponseWriter, r *http.Request) {
	var req CreateDeathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BatchID == "" {
		writeError(w, http.StatusBadRequest, "batchId is required", nil)
		return
	}
	if req.Count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be positive", nil)
		return
	}

	death, err := factory.Death(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid death record", err)
		return
	}
	if err := h.Store.CreateDeath(r.Context(), death); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create death record", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeathDTO(death))
}

// =============================================================================
// TIMELINE ENDPOINT
// =============================================================================

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	batches, deaths, _, err := h.loadFeeds(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load records", err)
		return
	}

	timeline := flock.BuildTimeline(flock.TimelineInput{
		Batches:       batches,
		Deaths:        deaths,
		ReferenceDate: h.Now(),
	})
	dtos := make([]SnapshotDTO, 0, len(timeline))
	for _, s := range timeline {
		dtos = append(dtos, toSnapshotDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// FEED BAG ENDPOINTS
// =============================================================================

func (h *Handler) ListFeedBags(w http.ResponseWriter, r *http.Request) {
	bags, err := h.Store.ListFeedBags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list feed bags", err)
		return
	}
	dtos := make([]FeedBagDTO, 0, len(bags))
	for _, b := range bags {
		dtos = append(dtos, toFeedBagDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateFeedBag(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedBagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = fmt.Sprintf("bag-%d", time.Now().UnixNano())
	}

	bag, err := factory.FeedBag(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid feed bag record", err)
		return
	}
	if err := h.Store.CreateFeedBag(r.Context(), bag); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "Feed bag id already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create feed bag", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeedBagDTO(bag))
}

func (h *Handler) DepleteFeedBag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DepleteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	at := h.Now()
	if req.DepletedDate != "" {
		parsed, err := factory.ParseDate(req.DepletedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid depletedDate", err)
			return
		}
		at = parsed
	}

	if err := h.Store.MarkDepleted(r.Context(), id, at); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Feed bag not found", nil)
		case errors.Is(err, store.ErrAlreadyDepleted):
			writeError(w, http.StatusConflict, "Feed bag already depleted", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to deplete feed bag", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "depleted", "depletedDate": at.String()})
}

func (h *Handler) DeleteFeedBag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteFeedBag(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Feed bag not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete feed bag", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

func (h *Handler) GetFeedPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.allocatePeriods(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute feed periods", err)
		return
	}
	dtos := make([]FeedPeriodDTO, 0, len(periods))
	for _, p := range periods {
		dtos = append(dtos, toFeedPeriodDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMonthlyTrends accepts optional ?from=YYYY-MM and ?to=YYYY-MM bounds.
func (h *Handler) GetMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	var filter feed.TrendFilter
	if from := r.URL.Query().Get("from"); from != "" {
		tp, err := parseMonth(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from month (use YYYY-MM)", err)
			return
		}
		filter.From = &tp
	}
	if to := r.URL.Query().Get("to"); to != "" {
		tp, err := parseMonth(to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to month (use YYYY-MM)", err)
			return
		}
		filter.To = &tp
	}

	periods, err := h.allocatePeriods(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute feed periods", err)
		return
	}

	trends := feed.MonthlyTrends(periods, filter)
	dtos := make([]MonthlyTrendDTO, 0, len(trends))
	for _, t := range trends {
		dtos = append(dtos, toMonthlyTrendDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadFeeds(r *http.Request) ([]flock.Batch, []flock.DeathRecord, []feed.Bag, error) {
	ctx := r.Context()
	batches, err := h.Store.ListBatches(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	deaths, err := h.Store.ListDeaths(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	bags, err := h.Store.ListFeedBags(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return batches, deaths, bags, nil
}

func (h *Handler) allocatePeriods(r *http.Request) ([]feed.Period, error) {
	batches, deaths, bags, err := h.loadFeeds(r)
	if err != nil {
		return nil, err
	}
	timeline := flock.BuildTimeline(flock.TimelineInput{
		Batches:       batches,
		Deaths:        deaths,
		ReferenceDate: h.Now(),
	})
	allocator := feed.Allocator{Timeline: timeline, Batches: batches, Deaths: deaths}
	return allocator.Allocate(bags), nil
}

func parseMonth(s string) (flock.TimePoint, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return flock.TimePoint{}, err
	}
	return flock.FromTime(t), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
