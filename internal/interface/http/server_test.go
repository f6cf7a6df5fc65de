package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/application/command"
	"github.com/geargrade/geargrade-backend/internal/application/query"
	"github.com/geargrade/geargrade-backend/internal/domain/planner"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/messaging"
)

// ──────────────────────────────────────────────────────────────────────────────
// Test fixtures
// ──────────────────────────────────────────────────────────────────────────────

type fakeArchive struct {
	records []transcript.ArchiveRecord
}

func (f *fakeArchive) Append(ctx context.Context, record transcript.ArchiveRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeArchive) History(ctx context.Context, since time.Time, limit int) ([]transcript.ArchiveRecord, error) {
	return f.records, nil
}

type fakeAdvisor struct {
	suggestion string
	err        error
}

func (f *fakeAdvisor) Suggest(ctx context.Context, scores map[string]float64) (string, error) {
	return f.suggestion, f.err
}

type fakeVerifier struct {
	key string
}

func (f *fakeVerifier) Verify(ctx context.Context, rawKey string) error {
	if rawKey != f.key {
		return errors.New("unknown api key")
	}
	return nil
}

type testEnv struct {
	server  *Server
	store   *transcript.Store
	planner *planner.Planner
	archive *fakeArchive
	advisor *fakeAdvisor
}

func newTestEnv(t *testing.T, configure func(*Config, *Dependencies)) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := transcript.NewStore(transcript.Params{})
	plan := planner.NewPlanner(planner.Params{Base: store})
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{Logger: logger})
	archive := &fakeArchive{}
	advisor := &fakeAdvisor{suggestion: "focus on the weakest course"}

	overview := query.NewGetOverviewHandler(store, store.Scale(), nil)

	deps := Dependencies{
		EditTranscript: command.NewEditTranscriptHandler(store, bus, logger),
		EditPlanner:    command.NewEditPlannerHandler(plan, bus, logger),
		GetOverview:    overview,
		GetProjection:  query.NewGetProjectionHandler(plan, store, overview),
		GetHistory:     query.NewGetHistoryHandler(archive),
		SuggestFocus:   query.NewSuggestFocusHandler(store, store.Scale(), advisor, logger),
		Logger:         logger,
	}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0

	if configure != nil {
		configure(&config, &deps)
	}

	return &testEnv{
		server:  NewServer(config, deps),
		store:   store,
		planner: plan,
		archive: archive,
		advisor: advisor,
	}
}

// envelope mirrors JSONResponse with raw data for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	// Auth rejections are plain JSON strings rather than the envelope,
	// so a failed decode just yields a zero envelope.
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Read side
// ──────────────────────────────────────────────────────────────────────────────

func TestGetTranscript_InitialState(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/transcript", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	overview := decodeData[query.GetOverviewResult](t, resp)
	assert.Equal(t, 1, overview.SemesterCount)
	assert.Equal(t, 0, overview.CourseCount)
	assert.Equal(t, 0.0, overview.CGPA)
	require.Len(t, overview.Semesters, 1)
	assert.Equal(t, "Semester 1", overview.Semesters[0].Name)
}

func TestGetTranscript_IncludesScaleOnRequest(t *testing.T) {
	env := newTestEnv(t, nil)

	_, resp := env.do(t, http.MethodGet, "/api/v1/transcript?include_scale=true", nil, nil)

	overview := decodeData[query.GetOverviewResult](t, resp)
	assert.NotEmpty(t, overview.GradeOptions)
}

func TestGetHistory_ReturnsArchivedPoints(t *testing.T) {
	env := newTestEnv(t, nil)
	env.archive.records = []transcript.ArchiveRecord{
		{CGPA: 8.5, TotalCredits: 12, SemesterCount: 2, CourseCount: 4, ArchivedAt: time.Now().UTC()},
	}

	rec, resp := env.do(t, http.MethodGet, "/api/v1/history", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeData[query.GetHistoryResult](t, resp)
	require.Len(t, history.Points, 1)
	assert.Equal(t, 8.5, history.Points[0].CGPA)
}

func TestGetHistory_RejectsMalformedSince(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/history?since=yesterday", nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_parameter", resp.Error.Code)
}

func TestGetAdvice_NoGradedCourses(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/advice", nil, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "no_graded_courses", resp.Error.Code)
}

func TestGetAdvice_ReturnsSuggestion(t *testing.T) {
	env := newTestEnv(t, nil)
	seedGradedCourse(t, env)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/advice", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[query.SuggestFocusResult](t, resp)
	assert.Equal(t, "focus on the weakest course", result.Suggestion)
	assert.Equal(t, 1, result.CoursesConsidered)
}

func TestGetProjection_EmptyPlannerMatchesBase(t *testing.T) {
	env := newTestEnv(t, nil)
	seedGradedCourse(t, env)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/projection", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	projection := decodeData[query.GetProjectionResult](t, resp)
	assert.Equal(t, projection.BaseCGPA, projection.ProjectedCGPA)
	assert.Equal(t, 0.0, projection.Delta)
}

// seedGradedCourse adds one course with grade A to the first semester.
func seedGradedCourse(t *testing.T, env *testEnv) {
	t.Helper()

	semesters := env.store.Semesters()
	require.NotEmpty(t, semesters)
	semID := semesters[0].ID

	_, resp := env.do(t, http.MethodPost, "/api/v1/transcript/semesters/"+semID+"/courses", nil, nil)
	created := decodeData[editResponse](t, resp)
	require.True(t, created.Applied)
	require.NotNil(t, created.Course)

	name := "Algorithms"
	grade := "A"
	_, resp = env.do(t, http.MethodPatch,
		"/api/v1/transcript/semesters/"+semID+"/courses/"+created.Course.ID,
		updateCourseRequest{Name: &name, Grade: &grade}, nil)
	updated := decodeData[editResponse](t, resp)
	require.True(t, updated.Applied)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transcript write side
// ──────────────────────────────────────────────────────────────────────────────

func TestAddSemester(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/transcript/semesters", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[editResponse](t, resp)
	assert.True(t, result.Applied)
	require.NotNil(t, result.Semester)
	assert.Equal(t, "Semester 2", result.Semester.Name)
	assert.Len(t, env.store.Semesters(), 2)
}

func TestRenameSemester(t *testing.T) {
	env := newTestEnv(t, nil)
	semID := env.store.Semesters()[0].ID

	rec, resp := env.do(t, http.MethodPatch, "/api/v1/transcript/semesters/"+semID,
		renameSemesterRequest{Name: "Fall 2025"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[editResponse](t, resp)
	assert.True(t, result.Applied)
	assert.Equal(t, "Fall 2025", env.store.Semesters()[0].Name)
}

func TestRenameSemester_EmptyNameRejectedWithoutError(t *testing.T) {
	env := newTestEnv(t, nil)
	semID := env.store.Semesters()[0].ID

	rec, resp := env.do(t, http.MethodPatch, "/api/v1/transcript/semesters/"+semID,
		renameSemesterRequest{Name: "   "}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[editResponse](t, resp)
	assert.False(t, result.Applied)
	assert.NotEmpty(t, result.Reason)
	assert.Equal(t, "Semester 1", env.store.Semesters()[0].Name)
}

func TestDeleteSemester_LastOneIsRejectedWithoutError(t *testing.T) {
	env := newTestEnv(t, nil)
	semID := env.store.Semesters()[0].ID

	rec, resp := env.do(t, http.MethodDelete, "/api/v1/transcript/semesters/"+semID, nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[editResponse](t, resp)
	assert.False(t, result.Applied)
	assert.NotEmpty(t, result.Reason)
	assert.Len(t, env.store.Semesters(), 1)
}

func TestDeleteSemester_UnknownIDIs404(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodDelete, "/api/v1/transcript/semesters/nope", nil, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
}

func TestUpdateCourse_RecomputesAggregates(t *testing.T) {
	env := newTestEnv(t, nil)
	semID := env.store.Semesters()[0].ID

	_, resp := env.do(t, http.MethodPost, "/api/v1/transcript/semesters/"+semID+"/courses", nil, nil)
	created := decodeData[editResponse](t, resp)
	require.NotNil(t, created.Course)

	grade := "A"
	credits := 4.0
	rec, resp := env.do(t, http.MethodPatch,
		"/api/v1/transcript/semesters/"+semID+"/courses/"+created.Course.ID,
		updateCourseRequest{Grade: &grade, Credits: &credits}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[editResponse](t, resp)
	assert.True(t, result.Applied)
	require.NotNil(t, result.CGPA)
	assert.Equal(t, 9.0, *result.CGPA)
	require.NotNil(t, result.TotalCredits)
	assert.Equal(t, 4.0, *result.TotalCredits)
}

func TestUpdateCourse_UnknownCourseIs404(t *testing.T) {
	env := newTestEnv(t, nil)
	semID := env.store.Semesters()[0].ID

	grade := "A"
	rec, _ := env.do(t, http.MethodPatch,
		"/api/v1/transcript/semesters/"+semID+"/courses/nope",
		updateCourseRequest{Grade: &grade}, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCourse_MalformedBodyIs400(t *testing.T) {
	env := newTestEnv(t, nil)
	semID := env.store.Semesters()[0].ID

	req := httptest.NewRequest(http.MethodPatch,
		"/api/v1/transcript/semesters/"+semID+"/courses/whatever",
		bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetTranscript(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/v1/transcript/semesters", nil, nil)
	env.do(t, http.MethodPost, "/api/v1/transcript/semesters", nil, nil)
	require.Len(t, env.store.Semesters(), 3)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/transcript/reset", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[editResponse](t, resp)
	assert.True(t, result.Applied)
	assert.Len(t, env.store.Semesters(), 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Planner write side
// ──────────────────────────────────────────────────────────────────────────────

func TestPlannerAddSemesterAndProjection(t *testing.T) {
	env := newTestEnv(t, nil)
	seedGradedCourse(t, env)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/planner/semesters", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData[editResponse](t, resp)
	assert.True(t, result.Applied)
	require.NotNil(t, result.Semester)
	require.NotNil(t, result.ProjectedCGPA)

	_, resp = env.do(t, http.MethodGet, "/api/v1/planner", nil, nil)
	projection := decodeData[query.GetProjectionResult](t, resp)
	require.Len(t, projection.Hypothetical, 1)
}

func TestPlannerDeleteSemester_UnknownIDIs404(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, http.MethodDelete, "/api/v1/planner/semesters/nope", nil, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Middleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAPIKeyAuth_ProtectsMutations(t *testing.T) {
	env := newTestEnv(t, func(_ *Config, deps *Dependencies) {
		deps.KeyVerifier = &fakeVerifier{key: "s3cret"}
	})

	// Reads stay open.
	rec, _ := env.do(t, http.MethodGet, "/api/v1/transcript", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Mutations without a key are rejected.
	rec, _ = env.do(t, http.MethodPost, "/api/v1/transcript/semesters", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key is rejected.
	rec, _ = env.do(t, http.MethodPost, "/api/v1/transcript/semesters", nil,
		map[string]string{"X-API-Key": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct key passes.
	rec, _ = env.do(t, http.MethodPost, "/api/v1/transcript/semesters", nil,
		map[string]string{"X-API-Key": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_LocalFallback(t *testing.T) {
	env := newTestEnv(t, func(config *Config, _ *Dependencies) {
		config.RateLimitPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		rec, _ := env.do(t, http.MethodGet, "/api/v1/transcript", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, resp := env.do(t, http.MethodGet, "/api/v1/transcript", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "rate_limit_exceeded", resp.Error.Code)
}

func TestRequestID_PropagatedToResponse(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, http.MethodGet, "/api/v1/transcript", nil,
		map[string]string{"X-Request-ID": "req-42"})

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestHealth_NoCheckerConfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestRoot_UnknownPathIs404(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, http.MethodGet, "/definitely-not-here", nil, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlannerRoutes_NotRegisteredWhenDisabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, deps *Dependencies) {
		deps.EditPlanner = nil
		deps.GetProjection = nil
	})

	rec, _ := env.do(t, http.MethodGet, "/api/v1/planner", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/projection", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Транскрипт не зависит от планировщика.
	rec, _ = env.do(t, http.MethodGet, "/api/v1/transcript", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjectionRoute_GatedIndependently(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, deps *Dependencies) {
		cfg.EnableProjection = false
	})

	rec, _ := env.do(t, http.MethodGet, "/api/v1/projection", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/planner", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistoryRoute_NotRegisteredWithoutArchive(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, deps *Dependencies) {
		deps.GetHistory = nil
	})

	rec, _ := env.do(t, http.MethodGet, "/api/v1/history", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
