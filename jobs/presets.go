package jobs

import (
	"encoding/json"
	"fmt"
)

// DefaultJSON returns the reference configuration in the factory's JSON
// schema, for seeding a store or writing a starter config file.
func DefaultJSON() string {
	return `{
  "jobs": [
    {"name": "早稲アカ", "wage": 1410, "formula": "slot_based"},
    {"name": "とらや", "wage": 1250, "formula": "hourly_minus_break"},
    {"name": "ハルエネ", "wage": 1500, "formula": "flat_hourly"}
  ],
  "slots": [
    {"name": "Y", "start": "10:40", "end": "12:10"},
    {"name": "Z", "start": "12:20", "end": "13:50"},
    {"name": "A", "start": "15:00", "end": "16:30"},
    {"name": "B", "start": "16:40", "end": "18:10"},
    {"name": "C", "start": "18:20", "end": "19:50"},
    {"name": "D", "start": "20:00", "end": "21:30"}
  ]
}`
}

// JobJSON builds a single job entry, e.g. for tests or admin tooling.
func JobJSON(name string, wage float64, formula string) string {
	b, err := json.Marshal(map[string]any{"name": name, "wage": wage, "formula": formula})
	if err != nil {
		panic(fmt.Sprintf("marshal job: %v", err))
	}
	return string(b)
}
