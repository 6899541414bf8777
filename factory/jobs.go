/*
Package factory converts job configuration documents into payroll.Config.

PURPOSE:
  Wages change (the settings screen edits them) and the koma timetable may
  change between school years, so both live in a document rather than in
  code. The formulas themselves stay a closed set: a document may only pick
  one of the three known names.

JSON SCHEMA:
  {
    "jobs": [
      {"name": "早稲アカ", "wage": 1410, "formula": "slot_based"},
      {"name": "とらや", "wage": 1250, "formula": "hourly_minus_break"}
    ],
    "slots": [
      {"name": "Y", "start": "10:40", "end": "12:10"}
    ]
  }

  YAML files use the same keys. When "slots" is omitted the reference koma
  schedule is used.

KEY FEATURES:
  - Unknown formulas fail with payroll.UnknownFormulaError
  - Job order in the document is the classification order
  - Round-trips through ToJSON for storage and the API

SEE ALSO:
  - jobs/presets.go: Reference document
  - payroll/types.go: Config
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// ConfigJSON is the document form of payroll.Config.
type ConfigJSON struct {
	Jobs  []JobJSON  `json:"jobs" yaml:"jobs"`
	Slots []SlotJSON `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// JobJSON is one employer entry.
type JobJSON struct {
	Name    string  `json:"name" yaml:"name"`
	Wage    float64 `json:"wage" yaml:"wage"`
	Formula string  `json:"formula" yaml:"formula"`
}

// SlotJSON is one koma.
type SlotJSON struct {
	Name  string `json:"name" yaml:"name"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// =============================================================================
// JOB FACTORY
// =============================================================================

// JobFactory converts configuration documents to payroll.Config.
type JobFactory struct{}

// NewJobFactory creates a new job factory.
func NewJobFactory() *JobFactory {
	return &JobFactory{}
}

// ParseJSON parses a JSON document.
func (f *JobFactory) ParseJSON(doc string) (payroll.Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal([]byte(doc), &cj); err != nil {
		return payroll.Config{}, fmt.Errorf("failed to parse job config JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// ParseYAML parses a YAML document.
func (f *JobFactory) ParseYAML(doc []byte) (payroll.Config, error) {
	var cj ConfigJSON
	if err := yaml.Unmarshal(doc, &cj); err != nil {
		return payroll.Config{}, fmt.Errorf("failed to parse job config YAML: %w", err)
	}
	return f.FromJSON(cj)
}

// LoadFile reads a .json, .yaml or .yml configuration file.
func (f *JobFactory) LoadFile(path string) (payroll.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payroll.Config{}, fmt.Errorf("read job config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParseYAML(data)
	default:
		return f.ParseJSON(string(data))
	}
}

// FromJSON converts the document form and validates it.
func (f *JobFactory) FromJSON(cj ConfigJSON) (payroll.Config, error) {
	cfg := payroll.Config{Jobs: make([]payroll.Job, 0, len(cj.Jobs))}

	for _, jj := range cj.Jobs {
		formula, err := payroll.ParseFormula(jj.Formula)
		if err != nil {
			return payroll.Config{}, &payroll.UnknownFormulaError{Job: jj.Name, Formula: jj.Formula}
		}
		cfg.Jobs = append(cfg.Jobs, payroll.Job{
			Name:    jj.Name,
			Wage:    decimal.NewFromFloat(jj.Wage),
			Formula: formula,
		})
	}

	if len(cj.Slots) == 0 {
		cfg.Slots = jobs.Slots()
	} else {
		slots, err := parseSlots(cj.Slots)
		if err != nil {
			return payroll.Config{}, err
		}
		cfg.Slots = slots
	}

	if err := cfg.Validate(); err != nil {
		return payroll.Config{}, err
	}
	return cfg, nil
}

func parseSlots(sj []SlotJSON) (payroll.SlotSchedule, error) {
	slots := make(payroll.SlotSchedule, 0, len(sj))
	for _, s := range sj {
		start, err := payroll.ParseClock(s.Start)
		if err != nil {
			return nil, &payroll.InvalidConfigError{Reason: fmt.Sprintf("slot %s: %v", s.Name, err)}
		}
		end, err := payroll.ParseClock(s.End)
		if err != nil {
			return nil, &payroll.InvalidConfigError{Reason: fmt.Sprintf("slot %s: %v", s.Name, err)}
		}
		slots = append(slots, payroll.Slot{Name: s.Name, Start: start, End: end})
	}
	return slots, nil
}

// ToJSON converts a Config back to its document form.
func (f *JobFactory) ToJSON(cfg payroll.Config) ConfigJSON {
	cj := ConfigJSON{
		Jobs:  make([]JobJSON, 0, len(cfg.Jobs)),
		Slots: make([]SlotJSON, 0, len(cfg.Slots)),
	}
	for _, j := range cfg.Jobs {
		wage, _ := j.Wage.Float64()
		cj.Jobs = append(cj.Jobs, JobJSON{Name: j.Name, Wage: wage, Formula: string(j.Formula)})
	}
	for _, s := range cfg.Slots {
		cj.Slots = append(cj.Slots, SlotJSON{Name: s.Name, Start: s.Start.String(), End: s.End.String()})
	}
	return cj
}

// Marshal renders a Config as an indented JSON document.
func (f *JobFactory) Marshal(cfg payroll.Config) (string, error) {
	b, err := json.MarshalIndent(f.ToJSON(cfg), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job config: %w", err)
	}
	return string(b), nil
}
