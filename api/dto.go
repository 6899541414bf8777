/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll core from the external API contract. Amounts are decimals
  serialized as strings ("12500", "7.5") so no precision is lost in
  JavaScript clients; *_display fields carry the formatted forms.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Jobs:       JobDTO, UpdateWageRequest
  Auth:       LoginRequest, LoginResponse
  Months:     MonthDTO, MonthRefDTO
  Events:     EventDTO, ShiftDTO, ImportResponse
  Payroll:    CalculateRequest, ResultDTO, JobResultDTO, ShareDTO
  Runs:       RunDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - report/report.go: Display formatting
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/report"
	"github.com/warp/shift-payroll/store"
)

// =============================================================================
// JOBS
// =============================================================================

// JobDTO is one configured employer.
type JobDTO struct {
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Color   string          `json:"color"`
	Wage    decimal.Decimal `json:"wage"`
	Formula payroll.Formula `json:"formula"`
}

// UpdateWageRequest changes one job's hourly wage.
type UpdateWageRequest struct {
	Wage *decimal.Decimal `json:"wage"`
}

func toJobDTOs(cfg payroll.Config) []JobDTO {
	dtos := make([]JobDTO, len(cfg.Jobs))
	for i, j := range cfg.Jobs {
		dtos[i] = JobDTO{
			Name:    j.Name,
			Label:   jobs.Label(j.Name),
			Color:   jobs.Color(j.Name),
			Wage:    j.Wage,
			Formula: j.Formula,
		}
	}
	return dtos
}

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// =============================================================================
// MONTHS
// =============================================================================

type MonthRefDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// MonthDTO describes a payroll month and its neighbours.
type MonthDTO struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	Label      string      `json:"label"`
	RangeStart string      `json:"range_start"`
	RangeEnd   string      `json:"range_end"`
	Prev       MonthRefDTO `json:"prev"`
	Next       MonthRefDTO `json:"next"`
}

func toMonthRef(m payroll.Month) MonthRefDTO {
	return MonthRefDTO{Year: m.Year, Month: int(m.Month)}
}

func toMonthDTO(m payroll.Month) MonthDTO {
	from, to := m.QueryRange()
	return MonthDTO{
		Year:       m.Year,
		Month:      int(m.Month),
		Label:      m.String(),
		RangeStart: from,
		RangeEnd:   to,
		Prev:       toMonthRef(m.Prev()),
		Next:       toMonthRef(m.Next()),
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO is a stored calendar event.
type EventDTO struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	AllDayStart string     `json:"all_day_start,omitempty"`
	AllDayEnd   string     `json:"all_day_end,omitempty"`
}

func toEventDTOs(events []calendar.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dto := EventDTO{ID: e.ID, Summary: e.Summary, AllDayStart: e.AllDayStart, AllDayEnd: e.AllDayEnd}
		if !e.Start.IsZero() {
			start, end := e.Start, e.End
			dto.Start, dto.End = &start, &end
		}
		dtos[i] = dto
	}
	return dtos
}

// ShiftDTO is an inline shift in a calculate request. Start and End are
// RFC 3339; either may be empty.
type ShiftDTO struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ImportResponse reports how many events were stored.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// =============================================================================
// PAYROLL
// =============================================================================

// CalculateRequest asks for one month. Events, when present, replace the
// stored events for this calculation.
type CalculateRequest struct {
	Year   int         `json:"year"`
	Month  int         `json:"month"`
	Events *[]ShiftDTO `json:"events,omitempty"`
}

type JobResultDTO struct {
	Name          string          `json:"name"`
	Label         string          `json:"label"`
	Color         string          `json:"color"`
	Formula       payroll.Formula `json:"formula"`
	Wage          decimal.Decimal `json:"wage"`
	Hours         decimal.Decimal `json:"hours"`
	HoursDisplay  string          `json:"hours_display"`
	ShiftCount    int             `json:"shift_count"`
	SlotCount     *int            `json:"slot_count,omitempty"` // slot_based only
	Salary        decimal.Decimal `json:"salary"`
	SalaryDisplay string          `json:"salary_display"`
}

type ShareDTO struct {
	Job     string          `json:"job"`
	Label   string          `json:"label"`
	Color   string          `json:"color"`
	Percent decimal.Decimal `json:"percent"`
}

// ResultDTO is a monthly payroll result.
type ResultDTO struct {
	RunID              string          `json:"run_id,omitempty"`
	Month              MonthDTO        `json:"month"`
	Jobs               []JobResultDTO  `json:"jobs"`
	TotalHours         decimal.Decimal `json:"total_hours"`
	TotalHoursDisplay  string          `json:"total_hours_display"`
	TotalSalary        decimal.Decimal `json:"total_salary"`
	TotalSalaryDisplay string          `json:"total_salary_display"`
	Shares             []ShareDTO      `json:"shares"`
}

// NewResultDTO converts a calculation result to its JSON form.
func NewResultDTO(res *payroll.Result) ResultDTO {
	dto := ResultDTO{
		Month:              toMonthDTO(res.Month),
		Jobs:               make([]JobResultDTO, len(res.Jobs)),
		TotalHours:         res.TotalHours,
		TotalHoursDisplay:  report.FormatHours(res.TotalHours),
		TotalSalary:        res.TotalSalary,
		TotalSalaryDisplay: report.FormatYen(res.TotalSalary),
		Shares:             []ShareDTO{},
	}
	for i, j := range res.Jobs {
		line := JobResultDTO{
			Name:          j.Name,
			Label:         jobs.Label(j.Name),
			Color:         jobs.Color(j.Name),
			Formula:       j.Formula,
			Wage:          j.Wage,
			Hours:         j.Hours,
			HoursDisplay:  report.FormatHours(j.Hours),
			ShiftCount:    j.ShiftCount,
			Salary:        j.Salary,
			SalaryDisplay: report.FormatYen(j.Salary),
		}
		if j.Formula == payroll.FormulaSlotBased {
			slots := j.SlotCount
			line.SlotCount = &slots
		}
		dto.Jobs[i] = line
	}
	for _, s := range report.Shares(res) {
		dto.Shares = append(dto.Shares, ShareDTO{Job: s.Job, Label: s.Label, Color: s.Color, Percent: s.Percent})
	}
	return dto
}

// =============================================================================
// RUNS
// =============================================================================

// RunDTO is a recorded calculation. Result is only filled for a single run.
type RunDTO struct {
	ID          string          `json:"id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	EventCount  int             `json:"event_count"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	TotalSalary decimal.Decimal `json:"total_salary"`
	CreatedAt   time.Time       `json:"created_at"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func toRunDTO(r store.Run, withResult bool) RunDTO {
	dto := RunDTO{
		ID:          r.ID,
		Year:        r.Month.Year,
		Month:       int(r.Month.Month),
		EventCount:  r.EventCount,
		TotalHours:  r.TotalHours,
		TotalSalary: r.TotalSalary,
		CreatedAt:   r.CreatedAt,
	}
	if withResult {
		dto.Result = json.RawMessage(r.ResultJSON)
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
