package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/store/memory"
)

func TestScenarios_NotMountedByDefault(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/scenarios", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarios_ReferenceMonth(t *testing.T) {
	// GIVEN: A development server with an empty store
	h := api.NewHandler(memory.New(), zap.NewNop(), api.AuthConfig{Secret: "s"})
	h.DemoScenarios = true
	env := &testEnv{handler: h, router: api.NewRouter(h, nil)}

	rec := env.do(t, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.ScenarioDTO](t, rec), 3)

	// WHEN: Loading the reference month
	rec = env.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "reference-month"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: February computes to the reference total
	rec = env.do(t, http.MethodPost, "/api/payroll/calculate", `{"year": 2026, "month": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertDecimal(t, "26834", decode[api.ResultDTO](t, rec).TotalSalary)
}

func TestScenarios_WeeklyTutor(t *testing.T) {
	h := api.NewHandler(memory.New(), zap.NewNop(), api.AuthConfig{Secret: "s"})
	h.DemoScenarios = true
	h.Now = func() time.Time { return testNow }
	env := &testEnv{handler: h, router: api.NewRouter(h, nil)}

	rec := env.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "weekly-tutor"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/payroll/calculate", `{"year": 2026, "month": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[api.ResultDTO](t, rec)

	// Five Tuesdays in March 2026, four koma each
	wa := res.Jobs[0]
	assert.Equal(t, 5, wa.ShiftCount)
	require.NotNil(t, wa.SlotCount)
	assert.Equal(t, 20, *wa.SlotCount)
}

func TestScenarios_Unknown(t *testing.T) {
	h := api.NewHandler(memory.New(), zap.NewNop(), api.AuthConfig{Secret: "s"})
	h.DemoScenarios = true
	env := &testEnv{handler: h, router: api.NewRouter(h, nil)}

	rec := env.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
