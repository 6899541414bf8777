/*
scenarios.go - Demo scenario loaders for development and demonstrations

PURPOSE:

	Provides pre-built shift months that populate the store with realistic
	calendar events, so the calculation, payslip and chart endpoints can be
	tried without a calendar export.

AVAILABLE SCENARIOS:

	reference-month:  February 2026 with both koma and shop shifts
	weekly-tutor:     A recurring weekly cram-school shift over March 2026
	noisy-calendar:   Private entries and holidays mixed with one shift

HOW SCENARIOS WORK:
 1. Ensure a job configuration exists (the reference jobs)
 2. Build the scenario's calendar events
 3. Expand recurring entries
 4. Upsert them into the store

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "reference-month"}

NOTE:

	Routes are only mounted outside production.

SEE ALSO:
  - handlers.go: Calculation endpoints
  - jobs/jobs.go: Reference jobs
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
)

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type scenario struct {
	ScenarioDTO
	events func() []calendar.Event
}

var jst = time.FixedZone("JST", 9*60*60)

func shiftAt(id, title string, year int, month time.Month, day, h1, m1, h2, m2 int) calendar.Event {
	return calendar.Event{
		ID:      id,
		Summary: title,
		Start:   time.Date(year, month, day, h1, m1, 0, 0, jst),
		End:     time.Date(year, month, day, h2, m2, 0, 0, jst),
	}
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "reference-month",
			Name:        "Reference month",
			Description: "Two koma days at the cram school and two shop shifts",
			Year:        2026,
			Month:       2,
		},
		events: func() []calendar.Event {
			return []calendar.Event{
				shiftAt("demo-ref-w1", jobs.Waseaka+" 授業", 2026, time.February, 3, 16, 0, 21, 30),
				shiftAt("demo-ref-w2", jobs.Waseaka, 2026, time.February, 5, 12, 20, 13, 50),
				shiftAt("demo-ref-t1", jobs.Toraya, 2026, time.February, 7, 10, 0, 18, 0),
				shiftAt("demo-ref-t2", jobs.Toraya+" 早番", 2026, time.February, 8, 10, 0, 14, 0),
			}
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "weekly-tutor",
			Name:        "Weekly tutor",
			Description: "Every Tuesday evening at the cram school, koma A to D",
			Year:        2026,
			Month:       3,
		},
		events: func() []calendar.Event {
			e := shiftAt("demo-weekly", jobs.Waseaka, 2026, time.March, 3, 15, 0, 21, 30)
			e.Recurrence = []string{"RRULE:FREQ=WEEKLY;COUNT=5"}
			return []calendar.Event{e}
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "noisy-calendar",
			Name:        "Noisy calendar",
			Description: "Private appointments and a holiday around one call-centre shift",
			Year:        2026,
			Month:       4,
		},
		events: func() []calendar.Event {
			return []calendar.Event{
				shiftAt("demo-noise-dentist", "歯医者", 2026, time.April, 6, 15, 0, 16, 0),
				{ID: "demo-noise-holiday", Summary: "昭和の日", AllDayStart: "2026-04-29", AllDayEnd: "2026-04-30"},
				shiftAt("demo-noise-h1", jobs.Haluene, 2026, time.April, 10, 9, 0, 12, 20),
				shiftAt("demo-noise-lunch", "ランチ", 2026, time.April, 10, 12, 30, 13, 30),
			}
		},
	},
}

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario stores a scenario's events.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	n, err := h.loadScenario(r.Context(), req.ScenarioID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.Int("events", n))
	writeJSON(w, http.StatusOK, map[string]any{"scenario_id": req.ScenarioID, "imported": n})
}

// ErrUnknownScenario is returned for an unknown scenario ID.
var ErrUnknownScenario = errors.New("unknown scenario")

func (h *Handler) loadScenario(ctx context.Context, id string) (int, error) {
	for _, s := range scenarios {
		if s.ID != id {
			continue
		}
		if _, err := store.EnsureConfig(ctx, h.Store, jobs.Default()); err != nil {
			return 0, err
		}
		m := payroll.NewMonth(s.Year, time.Month(s.Month))
		from, to := m.Range()
		events, err := calendar.Expand(s.events(), from, to)
		if err != nil {
			return 0, err
		}
		return h.Store.SaveEvents(ctx, events)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
}
