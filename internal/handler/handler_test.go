package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-admin/internal/match"
	"github.com/iliyamo/venue-admin/internal/middleware"
	"github.com/iliyamo/venue-admin/internal/model"
	"github.com/iliyamo/venue-admin/internal/repository"
	"github.com/iliyamo/venue-admin/internal/service"
)

var riyadh = time.FixedZone("AST", 3*60*60)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ----- fakes -----

type fakeMatches struct {
	mu   sync.Mutex
	rows map[uint64]model.FootballMatch
}

func (f *fakeMatches) List(ctx context.Context) ([]*model.FootballMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.FootballMatch
	for _, m := range f.rows {
		c := m
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeMatches) ListUnfinished(ctx context.Context) ([]*model.FootballMatch, error) {
	return f.List(ctx)
}

func (f *fakeMatches) GetByID(_ context.Context, id uint64) (*model.FootballMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrMatchNotFound
	}
	return &m, nil
}

func (f *fakeMatches) Create(_ context.Context, m *model.FootballMatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = uint64(len(f.rows) + 1)
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeMatches) Update(_ context.Context, m *model.FootballMatch, _ match.Status, _ map[uint64]match.Points) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeMatches) AdvanceStatus(_ context.Context, id uint64, from, to match.Status, _ map[uint64]match.Points) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.rows[id]
	if m.Status != from {
		return false, nil
	}
	m.Status = to
	f.rows[id] = m
	return true, nil
}

func (f *fakeMatches) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrMatchNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakePredictions struct {
	seen  map[[2]uint64]bool
	limit int
}

func (f *fakePredictions) Upsert(_ context.Context, p *model.Prediction) (bool, error) {
	k := [2]uint64{p.UserID, p.MatchID}
	created := !f.seen[k]
	f.seen[k] = true
	return created, nil
}

func (f *fakePredictions) ListByMatch(context.Context, uint64) ([]*model.Prediction, error) {
	return nil, nil
}

func (f *fakePredictions) ListByUser(_ context.Context, userID uint64) ([]*model.Prediction, error) {
	return []*model.Prediction{
		{ID: 1, UserID: userID, MatchID: 9, Points: 3},
		{ID: 2, UserID: userID, MatchID: 8, Points: 1},
	}, nil
}

func (f *fakePredictions) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	f.limit = limit
	return []model.LeaderboardEntry{{UserID: 1, Name: "سارة", TotalPoints: 7}}, nil
}

type fakeFiles struct {
	saved   []string
	deleted []string
}

func (f *fakeFiles) Save(fh *multipart.FileHeader, dir string) (string, error) {
	rel := dir + "/" + fh.Filename
	f.saved = append(f.saved, rel)
	return rel, nil
}

func (f *fakeFiles) Delete(rel string) error {
	f.deleted = append(f.deleted, rel)
	return nil
}

// ----- helpers -----

func newMatchHandler(t *testing.T, ms ...model.FootballMatch) (*MatchHandler, *fakePredictions) {
	t.Helper()
	store := &fakeMatches{rows: map[uint64]model.FootballMatch{}}
	for _, m := range ms {
		store.rows[m.ID] = m
	}
	preds := &fakePredictions{seen: map[[2]uint64]bool{}}
	svc := service.NewMatchService(store, preds, nil, nil, riyadh, quietLog())
	svc.Now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, riyadh) }
	return NewMatchHandler(svc, &fakeFiles{}, quietLog()), preds
}

func jsonRequest(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ----- matches -----

func TestMatchCreateDefaultsToUpcoming(t *testing.T) {
	h, _ := newMatchHandler(t)
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodPost, "/v1/matches",
		`{"team1":"الهلال","team2":"النصر","date":"2026-10-20","time":"20:00","channel":"SSC 1"}`)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	m := body["match"].(map[string]any)
	assert.Equal(t, "upcoming", m["status"])
	assert.Equal(t, "قادمة", m["status_label"])
	assert.Equal(t, msgCreated, body["message"])
}

func TestMatchCreateRejectsBadDate(t *testing.T) {
	h, _ := newMatchHandler(t)
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodPost, "/v1/matches",
		`{"team1":"A","team2":"B","date":"2026-13-01","time":"20:00","channel":"X"}`)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "ymd", fields["date"])
}

func TestMatchGetRefreshesStatus(t *testing.T) {
	h, _ := newMatchHandler(t, model.FootballMatch{ID: 1, Team1: "A", Team2: "B", Date: "2026-10-18", Time: "20:00:00", Status: match.Upcoming})
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodGet, "/v1/matches/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "finished", decode(t, rec)["status"])
}

func TestMatchGetUnknownIs404(t *testing.T) {
	h, _ := newMatchHandler(t)
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodGet, "/v1/matches/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchUpdateRejectsRegression(t *testing.T) {
	h, _ := newMatchHandler(t, model.FootballMatch{ID: 1, Team1: "A", Team2: "B", Date: "2026-10-18", Time: "20:00:00", Status: match.Finished})
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodPatch, "/v1/matches/1", `{"status":"upcoming"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMatchUpdateRejectsMalformedResult(t *testing.T) {
	h, _ := newMatchHandler(t, model.FootballMatch{ID: 1, Team1: "A", Team2: "B", Date: "2026-10-18", Time: "20:00:00", Status: match.Finished})
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodPatch, "/v1/matches/1", `{"result":"two-one"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, msgBadResult, decode(t, rec)["message"])
}

func TestMatchCreateStoresLogos(t *testing.T) {
	h, _ := newMatchHandler(t)
	files := h.Files.(*fakeFiles)
	e := newEcho()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"team1": "A", "team2": "B", "date": "2026-10-20", "time": "20:00", "channel": "X"} {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("team1_logo", "a.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/matches", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"logos/a.png"}, files.saved)
	m := decode(t, rec)["match"].(map[string]any)
	assert.Equal(t, "logos/a.png", m["team1_logo"])
	assert.Nil(t, m["team2_logo"])
}

// ----- predictions -----

func TestSubmitPredictionCreatesThenUpdates(t *testing.T) {
	h, _ := newMatchHandler(t, model.FootballMatch{ID: 1, Team1: "A", Team2: "B", Date: "2026-10-20", Time: "20:00:00", Status: match.Upcoming})
	e := newEcho()
	body := `{"football_match_id":1,"team1_score":2,"team2_score":1}`

	c, rec := jsonRequest(e, http.MethodPost, "/v1/predictions", body)
	c.Set(middleware.CtxUserID, uint64(7))
	require.NoError(t, h.SubmitPrediction(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, msgPredictionSaved, decode(t, rec)["message"])

	c, rec = jsonRequest(e, http.MethodPost, "/v1/predictions", body)
	c.Set(middleware.CtxUserID, uint64(7))
	require.NoError(t, h.SubmitPrediction(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgPredictionUpdated, decode(t, rec)["message"])
}

func TestSubmitPredictionAfterKickoffIsForbidden(t *testing.T) {
	// Kick-off at 11:30 venue time; the clock reads 12:00.
	h, _ := newMatchHandler(t, model.FootballMatch{ID: 1, Team1: "A", Team2: "B", Date: "2026-10-19", Time: "11:30:00", Status: match.Upcoming})
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodPost, "/v1/predictions", `{"football_match_id":1,"team1_score":0,"team2_score":0}`)
	c.Set(middleware.CtxUserID, uint64(7))

	require.NoError(t, h.SubmitPrediction(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgPredictionsClosed, decode(t, rec)["message"])
}

func TestSubmitPredictionValidatesScores(t *testing.T) {
	h, _ := newMatchHandler(t)
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodPost, "/v1/predictions", `{"football_match_id":1,"team1_score":-1}`)
	c.Set(middleware.CtxUserID, uint64(7))

	require.NoError(t, h.SubmitPrediction(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "min", fields["team1_score"])
	assert.Equal(t, "required", fields["team2_score"])
}

func TestSubmitPredictionRequiresUser(t *testing.T) {
	h, _ := newMatchHandler(t)
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodPost, "/v1/predictions", `{}`)

	require.NoError(t, h.SubmitPrediction(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyPredictionsTotalsPoints(t *testing.T) {
	h, _ := newMatchHandler(t)
	e := newEcho()
	c, rec := jsonRequest(e, http.MethodGet, "/v1/my-predictions", "")
	c.Set(middleware.CtxUserID, uint64(7))

	require.NoError(t, h.MyPredictions(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 4, body["total_points"])
}

func TestLeaderboardLimit(t *testing.T) {
	h, preds := newMatchHandler(t)
	e := newEcho()

	c, rec := jsonRequest(e, http.MethodGet, "/v1/predictions/leaderboard", "")
	require.NoError(t, h.Leaderboard(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.DefaultLeaderboardSize, preds.limit)

	c, rec = jsonRequest(e, http.MethodGet, "/v1/predictions/leaderboard?limit=500", "")
	require.NoError(t, h.Leaderboard(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, preds.limit)

	c, rec = jsonRequest(e, http.MethodGet, "/v1/predictions/leaderboard?limit=abc", "")
	require.NoError(t, h.Leaderboard(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- error mapping -----

func TestFailMapping(t *testing.T) {
	b := base{Log: quietLog()}
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"transition", &service.TransitionError{From: match.Finished, To: match.Live, Reason: "x"}, http.StatusConflict},
		{"schedule", &match.MalformedScheduleError{Date: "x"}, http.StatusUnprocessableEntity},
		{"closed", repository.ErrPredictionsClosed, http.StatusForbidden},
		{"capacity", repository.ErrCapacityExceeded, http.StatusConflict},
		{"not found", repository.ErrRoomNotFound, http.StatusNotFound},
		{"conflict", repository.ErrConflict, http.StatusConflict},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := jsonRequest(newEcho(), http.MethodGet, "/", "")
			require.NoError(t, b.fail(c, tc.err))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
