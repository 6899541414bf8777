/*
handlers.go - HTTP API handlers for the payroll service

PURPOSE:
  Exposes the payroll core via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to payroll.Calculate.

ENDPOINTS:
  Jobs:
    GET    /api/jobs                          Configured jobs
    PUT    /api/jobs/{name}/wage              Change a wage (settings token)

  Auth:
    POST   /api/auth/login                    Settings password -> token

  Events:
    POST   /api/events                        Import an events.list payload
    GET    /api/events?year=&month=           Stored events in a month

  Months:
    GET    /api/months/{year}/{month}         Range strings and neighbours

  Payroll:
    POST   /api/payroll/calculate             Compute a month, record a run
    GET    /api/payroll/runs                  Recent runs
    GET    /api/payroll/runs/{id}             One run with its result
    GET    /api/payroll/{year}/{month}/payslip.pdf
    GET    /api/payroll/{year}/{month}/shares.png

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Configuration, events and runs
  - Logger: zap
  - Auth: Settings password hash, token secret and lifetime

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Load configuration + events, call payroll.Calculate
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, unknown formula, invalid configuration
  - 401: Missing or bad credentials
  - 404: Unknown job or run, empty chart
  - 422: Malformed shift event (the month is not computed)
  - 429: Too many login attempts
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/warp/shift-payroll/auth"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/report"
	"github.com/warp/shift-payroll/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// AuthConfig guards wage edits. An empty PasswordHash disables them.
type AuthConfig struct {
	PasswordHash string
	Secret       string
	TokenTTL     time.Duration
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  store.Store
	Logger *zap.Logger
	Auth   AuthConfig

	// Now is the clock; tests replace it.
	Now func() time.Time

	// RecurrenceHorizon bounds how far imported recurring shifts are expanded.
	RecurrenceHorizon time.Duration

	// DemoScenarios mounts /api/scenarios (development only).
	DemoScenarios bool

	loginLimiter *rate.Limiter
}

// NewHandler creates a new handler with the given store.
func NewHandler(st store.Store, logger *zap.Logger, authCfg AuthConfig) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if authCfg.TokenTTL <= 0 {
		authCfg.TokenTTL = 12 * time.Hour
	}
	return &Handler{
		Store:             st,
		Logger:            logger,
		Auth:              authCfg,
		Now:               time.Now,
		RecurrenceHorizon: 366 * 24 * time.Hour,
		// Five attempts at once, then one every two seconds.
		loginLimiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
	}
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// AUTH
// =============================================================================

// Login exchanges the settings password for a token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.loginLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts", nil)
		return
	}
	if h.Auth.PasswordHash == "" {
		writeError(w, http.StatusForbidden, "Wage settings are disabled", nil)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := auth.CheckPassword(h.Auth.PasswordHash, req.Password); err != nil {
		h.Logger.Warn("settings login rejected", zap.String("request_id", middleware.GetReqID(r.Context())))
		writeError(w, http.StatusUnauthorized, "Invalid password", nil)
		return
	}

	now := h.Now()
	token, err := auth.GenerateToken(h.Auth.Secret, now, h.Auth.TokenTTL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: now.Add(h.Auth.TokenTTL).UTC()})
}

// RequireSettings rejects requests without a valid settings token.
func (h *Handler) RequireSettings(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		if _, err := auth.ParseToken(h.Auth.Secret, token, h.Now()); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// JOBS
// =============================================================================

// ListJobs returns the configured jobs in configuration order.
// GET /api/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.LoadConfig(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTOs(cfg))
}

// UpdateWage changes one job's wage.
// PUT /api/jobs/{name}/wage
func (h *Handler) UpdateWage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	var req UpdateWageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Wage == nil {
		writeError(w, http.StatusBadRequest, "wage is required", nil)
		return
	}

	cfg, err := h.Store.UpdateWage(r.Context(), name, *req.Wage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("wage updated", zap.String("job", name), zap.String("wage", req.Wage.String()))
	writeJSON(w, http.StatusOK, toJobDTOs(cfg))
}

// =============================================================================
// EVENTS
// =============================================================================

// ImportEvents stores an events.list payload. Recurring entries are
// expanded up to RecurrenceHorizon from now. Items with unparseable
// timestamps are rejected only when they name a configured job.
// POST /api/events
func (h *Handler) ImportEvents(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.LoadConfig(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	events, err := calendar.DecodeFor(r.Body, cfg)
	if err != nil {
		if errors.Is(err, payroll.ErrMalformedEvent) {
			h.fail(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid events payload", err)
		return
	}
	events, err = calendar.Expand(events, time.Time{}, h.Now().Add(h.RecurrenceHorizon))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	n, err := h.Store.SaveEvents(r.Context(), events)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("events imported", zap.Int("count", n))
	writeJSON(w, http.StatusCreated, ImportResponse{Imported: n})
}

// ListEvents returns stored events intersecting a month.
// GET /api/events?year=2026&month=2
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	m, err := monthFrom(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	from, to := m.Range()
	events, err := h.Store.ListEvents(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// =============================================================================
// MONTHS
// =============================================================================

// GetMonth describes a month for navigation.
// GET /api/months/{year}/{month}
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	m, err := monthFrom(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(m))
}

// =============================================================================
// PAYROLL
// =============================================================================

// Calculate computes a month and records the run.
// POST /api/payroll/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	m := payroll.NewMonth(req.Year, time.Month(req.Month))
	if !m.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid month", fmt.Errorf("month %d out of range", req.Month))
		return
	}

	var (
		shifts []payroll.ShiftEvent
		err    error
	)
	if req.Events != nil {
		shifts, err = parseShifts(*req.Events)
	} else {
		shifts, err = h.storedShifts(ctx, m)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.calculate(ctx, m, shifts)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dto := NewResultDTO(res)
	dto.RunID = uuid.NewString()
	resultJSON, err := json.Marshal(dto)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	run := store.Run{
		ID:          dto.RunID,
		Month:       m,
		EventCount:  len(shifts),
		TotalHours:  res.TotalHours,
		TotalSalary: res.TotalSalary,
		ResultJSON:  string(resultJSON),
		CreatedAt:   h.Now().UTC(),
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		h.fail(w, r, err)
		return
	}

	h.Logger.Info("payroll calculated",
		zap.String("run_id", run.ID),
		zap.Stringer("month", m),
		zap.Int("events", run.EventCount),
		zap.String("total_hours", res.TotalHours.String()),
		zap.String("total_salary", res.TotalSalary.String()),
	)
	writeJSON(w, http.StatusOK, dto)
}

// ListRuns returns recent runs, newest first.
// GET /api/payroll/runs?limit=20
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run including its full result.
// GET /api/payroll/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run, true))
}

// Payslip renders a month from stored events as PDF.
// GET /api/payroll/{year}/{month}/payslip.pdf
func (h *Handler) Payslip(w http.ResponseWriter, r *http.Request) {
	res, ok := h.storedResult(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WritePayslip(&buf, res, h.Now()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payslip-%s.pdf"`, res.Month))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ShareChart renders the month's salary shares as PNG.
// GET /api/payroll/{year}/{month}/shares.png
func (h *Handler) ShareChart(w http.ResponseWriter, r *http.Request) {
	res, ok := h.storedResult(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteShareChart(&buf, res); err != nil {
		if errors.Is(err, report.ErrNoShares) {
			writeError(w, http.StatusNotFound, "No salary in this month", nil)
			return
		}
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) calculate(ctx context.Context, m payroll.Month, shifts []payroll.ShiftEvent) (*payroll.Result, error) {
	cfg, err := h.Store.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return payroll.Calculate(m.Year, m.Month, shifts, cfg)
}

func (h *Handler) storedShifts(ctx context.Context, m payroll.Month) ([]payroll.ShiftEvent, error) {
	from, to := m.Range()
	events, err := h.Store.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return calendar.Shifts(events), nil
}

// storedResult computes the month in the URL from stored events, writing
// the error response itself when it fails.
func (h *Handler) storedResult(w http.ResponseWriter, r *http.Request) (*payroll.Result, bool) {
	m, err := monthFrom(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return nil, false
	}
	shifts, err := h.storedShifts(r.Context(), m)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	res, err := h.calculate(r.Context(), m, shifts)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return res, true
}

// parseShifts converts inline shifts. An unparseable timestamp is a
// malformed event at that index.
func parseShifts(dtos []ShiftDTO) ([]payroll.ShiftEvent, error) {
	shifts := make([]payroll.ShiftEvent, len(dtos))
	for i, d := range dtos {
		start, err := parseOptionalTime(d.Start)
		if err != nil {
			return nil, &payroll.MalformedEventError{Index: i, Title: d.Title, Reason: "start: " + err.Error()}
		}
		end, err := parseOptionalTime(d.End)
		if err != nil {
			return nil, &payroll.MalformedEventError{Index: i, Title: d.Title, Reason: "end: " + err.Error()}
		}
		shifts[i] = payroll.ShiftEvent{ID: d.ID, Title: d.Title, Start: start, End: end}
	}
	return shifts, nil
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func monthFrom(year, month string) (payroll.Month, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return payroll.Month{}, fmt.Errorf("year %q: %w", year, err)
	}
	mo, err := strconv.Atoi(month)
	if err != nil {
		return payroll.Month{}, fmt.Errorf("month %q: %w", month, err)
	}
	m := payroll.NewMonth(y, time.Month(mo))
	if !m.Valid() {
		return payroll.Month{}, fmt.Errorf("month %d out of range", mo)
	}
	return m, nil
}

// fail maps a domain error to its HTTP status and logs it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := zap.String("request_id", middleware.GetReqID(r.Context()))

	var malformed *payroll.MalformedEventError
	switch {
	case errors.As(err, &malformed):
		h.Logger.Warn("malformed shift event", zap.Error(err), reqID)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Malformed shift event",
			Code:  "malformed_event",
			Details: map[string]any{
				"index":  malformed.Index,
				"title":  malformed.Title,
				"reason": malformed.Reason,
			},
		})
	case errors.Is(err, payroll.ErrMalformedEvent):
		h.Logger.Warn("malformed shift event", zap.Error(err), reqID)
		writeErrorCode(w, http.StatusUnprocessableEntity, "Malformed shift event", "malformed_event", err)
	case errors.Is(err, payroll.ErrUnknownFormula):
		h.Logger.Warn("unknown formula", zap.Error(err), reqID)
		writeErrorCode(w, http.StatusBadRequest, "Unknown formula", "unknown_formula", err)
	case errors.Is(err, payroll.ErrInvalidConfig):
		h.Logger.Warn("invalid configuration", zap.Error(err), reqID)
		writeErrorCode(w, http.StatusBadRequest, "Invalid configuration", "invalid_config", err)
	case errors.Is(err, store.ErrJobNotFound), errors.Is(err, store.ErrRunNotFound),
		errors.Is(err, store.ErrConfigNotFound), errors.Is(err, ErrUnknownScenario):
		writeErrorCode(w, http.StatusNotFound, "Not found", "not_found", err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeErrorCode(w, http.StatusUnauthorized, "Unauthorized", "unauthorized", nil)
	default:
		h.Logger.Error("request failed", zap.Error(err), reqID, zap.String("path", r.URL.Path))
		writeErrorCode(w, http.StatusInternalServerError, "Internal error", "internal", err)
	}
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

func writeErrorCode(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
