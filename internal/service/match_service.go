// Package service holds the application logic that sits between the HTTP
// handlers and the repositories: keeping match statuses current, scoring
// predictions and caching room listings.
package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/venue-admin/internal/match"
	"github.com/iliyamo/venue-admin/internal/metrics"
	"github.com/iliyamo/venue-admin/internal/model"
	"github.com/iliyamo/venue-admin/internal/queue"
	"github.com/iliyamo/venue-admin/internal/repository"
)

// DefaultLeaderboardSize is used when no positive limit is requested.
const DefaultLeaderboardSize = 10

const maxLeaderboardSize = 100

// refresh gives up after this many lost compare-and-set races; each lost race
// means another writer advanced the status, which can happen at most twice.
const maxRefreshAttempts = 3

// MatchStore is the persistence the match service needs.
type MatchStore interface {
	List(ctx context.Context) ([]*model.FootballMatch, error)
	ListUnfinished(ctx context.Context) ([]*model.FootballMatch, error)
	GetByID(ctx context.Context, id uint64) (*model.FootballMatch, error)
	Create(ctx context.Context, m *model.FootballMatch) error
	Update(ctx context.Context, m *model.FootballMatch, prev match.Status, points map[uint64]match.Points) error
	AdvanceStatus(ctx context.Context, id uint64, from, to match.Status, points map[uint64]match.Points) (bool, error)
	Delete(ctx context.Context, id uint64) error
}

// PredictionStore is the persistence of user predictions.
type PredictionStore interface {
	Upsert(ctx context.Context, p *model.Prediction) (bool, error)
	ListByMatch(ctx context.Context, matchID uint64) ([]*model.Prediction, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.Prediction, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// EventPublisher delivers match.finished events.
type EventPublisher interface {
	PublishMatchFinished(ctx context.Context, ev queue.MatchFinishedEvent) error
}

// FileStore saves and removes uploaded images.
type FileStore interface {
	Save(fh *multipart.FileHeader, dir string) (string, error)
	Delete(rel string) error
}

// TransitionError rejects an explicit status change that would move a match
// backwards or finish it before its end time.
type TransitionError struct {
	From, To match.Status
	Reason   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move match from %s to %s: %s", e.From, e.To, e.Reason)
}

// MatchInput carries the writable fields of a match.  Nil fields are left
// unchanged on update; Create requires the teams, schedule and channel.
type MatchInput struct {
	Team1     *string
	Team2     *string
	Team1Logo *string
	Team2Logo *string
	Date      *string
	Time      *string
	Channel   *string
	Result    *string
	Status    *match.Status
}

// MatchService keeps match statuses in step with the clock and scores
// predictions when a match finishes with a result.
type MatchService struct {
	matches     MatchStore
	predictions PredictionStore
	publisher   EventPublisher
	files       FileStore
	loc         *time.Location
	log         logrus.FieldLogger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewMatchService wires the service.  loc is the venue time zone in which
// stored dates and times are interpreted; publisher and files may be nil.
func NewMatchService(matches MatchStore, predictions PredictionStore, publisher EventPublisher, files FileStore,
	loc *time.Location, log logrus.FieldLogger) *MatchService {
	if loc == nil {
		panic("nil location passed to NewMatchService")
	}
	return &MatchService{
		matches:     matches,
		predictions: predictions,
		publisher:   publisher,
		files:       files,
		loc:         loc,
		log:         log.WithField("component", "matches"),
		Now:         time.Now,
	}
}

func (s *MatchService) now() time.Time { return s.Now().In(s.loc) }

// List returns every match with its status brought up to date.
func (s *MatchService) List(ctx context.Context) ([]*model.FootballMatch, error) {
	ms, err := s.matches.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		if err := s.Refresh(ctx, m); err != nil {
			return nil, fmt.Errorf("match %d: %w", m.ID, err)
		}
	}
	return ms, nil
}

// Get returns one match with its status brought up to date.
func (s *MatchService) Get(ctx context.Context, id uint64) (*model.FootballMatch, error) {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Refresh re-evaluates m against the clock and persists the new status with a
// compare-and-set when it changed.  A transition into finished with a stored
// result scores the predictions in the same transaction.  When another writer
// wins the race m is reloaded and evaluated again.
func (s *MatchService) Refresh(ctx context.Context, m *model.FootballMatch) error {
	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		next, err := match.EvaluateSchedule(m.Status, m.Date, m.Time, s.now(), s.loc)
		if err != nil {
			return err
		}
		if next == m.Status {
			return nil
		}

		var points map[uint64]match.Points
		if next == match.Finished && m.ResultText() != "" {
			if points, err = s.score(ctx, m.ID, m.ResultText()); err != nil {
				return err
			}
		}

		ok, err := s.matches.AdvanceStatus(ctx, m.ID, m.Status, next, points)
		if err != nil {
			return err
		}
		if ok {
			from := m.Status
			m.Status = next
			s.recordTransition(m, from, points)
			return nil
		}

		fresh, err := s.matches.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		*m = *fresh
	}
	return fmt.Errorf("match %d: %w", m.ID, repository.ErrConflict)
}

// SweepStatuses refreshes every match that is not finished yet and returns
// how many changed status.  Failures are logged per match and joined.
func (s *MatchService) SweepStatuses(ctx context.Context) (int, error) {
	ms, err := s.matches.ListUnfinished(ctx)
	if err != nil {
		return 0, err
	}
	var (
		changed int
		errs    []error
	)
	for _, m := range ms {
		before := m.Status
		if err := s.Refresh(ctx, m); err != nil {
			s.log.WithError(err).WithField("match_id", m.ID).Warn("status sweep failed")
			errs = append(errs, fmt.Errorf("match %d: %w", m.ID, err))
			continue
		}
		if m.Status != before {
			changed++
		}
	}
	return changed, errors.Join(errs...)
}

// Create stores a new match.  The status defaults to upcoming; an explicit
// status may not be live before kickoff or finished before the match end.
func (s *MatchService) Create(ctx context.Context, in MatchInput) (*model.FootballMatch, error) {
	m := &model.FootballMatch{Status: match.Upcoming}
	if err := s.apply(m, in); err != nil {
		return nil, err
	}
	if err := s.matches.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"match_id": m.ID, "status": m.Status}).Info("match created")
	if m.Status != match.Upcoming {
		s.recordTransition(m, match.Upcoming, nil)
	}
	return m, nil
}

// Update applies the non-nil fields of in.  Fields, status and prediction
// points are written in one transaction guarded by the status that was read.
func (s *MatchService) Update(ctx context.Context, id uint64, in MatchInput) (*model.FootballMatch, error) {
	cur, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *cur
	if err := s.apply(&next, in); err != nil {
		return nil, err
	}

	var points map[uint64]match.Points
	resultChanged := next.ResultText() != cur.ResultText()
	if next.Status == match.Finished && next.ResultText() != "" && (cur.Status != match.Finished || resultChanged) {
		if points, err = s.score(ctx, id, next.ResultText()); err != nil {
			return nil, err
		}
	}

	if err := s.matches.Update(ctx, &next, cur.Status, points); err != nil {
		return nil, err
	}
	s.dropReplaced(cur.Team1Logo, next.Team1Logo)
	s.dropReplaced(cur.Team2Logo, next.Team2Logo)

	if next.Status != cur.Status || points != nil {
		s.recordTransition(&next, cur.Status, points)
	}
	fresh, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// Delete removes a match, its predictions and its logos.
func (s *MatchService) Delete(ctx context.Context, id uint64) error {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.matches.Delete(ctx, id); err != nil {
		return err
	}
	s.dropReplaced(m.Team1Logo, nil)
	s.dropReplaced(m.Team2Logo, nil)
	return nil
}

// SubmitPrediction records the user's guess for a match that is still
// upcoming, replacing an earlier guess.  created reports a first submission.
func (s *MatchService) SubmitPrediction(ctx context.Context, userID, matchID uint64, guess match.ScorePair) (*model.Prediction, bool, error) {
	if guess.Team1 < 0 || guess.Team2 < 0 {
		return nil, false, &match.MalformedResultError{Result: guess.String()}
	}
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, false, err
	}
	if m.Status != match.Upcoming {
		return nil, false, repository.ErrPredictionsClosed
	}
	p := &model.Prediction{UserID: userID, MatchID: matchID, Team1Score: guess.Team1, Team2Score: guess.Team2}
	created, err := s.predictions.Upsert(ctx, p)
	if err != nil {
		return nil, false, err
	}
	return p, created, nil
}

// UserPredictions returns the user's predictions with their matches.  Matches
// whose status is stale are refreshed first so the points are current.
func (s *MatchService) UserPredictions(ctx context.Context, userID uint64) ([]*model.Prediction, error) {
	ps, err := s.predictions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	changed := false
	seen := make(map[uint64]bool, len(ps))
	for _, p := range ps {
		if p.Match == nil || seen[p.MatchID] {
			continue
		}
		seen[p.MatchID] = true
		before := p.Match.Status
		if err := s.Refresh(ctx, p.Match); err != nil {
			return nil, fmt.Errorf("match %d: %w", p.MatchID, err)
		}
		changed = changed || p.Match.Status != before
	}
	if !changed {
		return ps, nil
	}
	return s.predictions.ListByUser(ctx, userID)
}

// Leaderboard returns the top users by total points.
func (s *MatchService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	return s.predictions.Leaderboard(ctx, limit)
}

// apply copies in onto m, validates the schedule, result and explicit status,
// and evaluates the status against the clock.  A started match keeps a
// schedule that agrees with its status; results are stored as <int>-<int>.
func (s *MatchService) apply(m *model.FootballMatch, in MatchInput) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&m.Team1, in.Team1)
	set(&m.Team2, in.Team2)
	set(&m.Date, in.Date)
	set(&m.Time, in.Time)
	set(&m.Channel, in.Channel)
	if in.Team1Logo != nil {
		m.Team1Logo = in.Team1Logo
	}
	if in.Team2Logo != nil {
		m.Team2Logo = in.Team2Logo
	}
	if in.Result != nil {
		r := strings.TrimSpace(*in.Result)
		if r == "" {
			m.Result = nil
		} else {
			pair, err := match.ParseResult(r)
			if err != nil {
				return err
			}
			canon := pair.String()
			m.Result = &canon
		}
	}

	start, err := match.ScheduledStart(m.Date, m.Time, s.loc)
	if err != nil {
		return err
	}
	now := s.now()
	end := match.End(start, match.Duration)
	if (m.Status == match.Finished && now.Before(end)) || (m.Status == match.Live && now.Before(start)) {
		return &TransitionError{From: m.Status, To: m.Status, Reason: "cannot reschedule a match that has started"}
	}
	if in.Status != nil {
		want := *in.Status
		if !m.Status.CanAdvanceTo(want) {
			return &TransitionError{From: m.Status, To: want, Reason: "status cannot move backwards"}
		}
		if want == match.Live && now.Before(start) {
			return &TransitionError{From: m.Status, To: want, Reason: "match has not kicked off"}
		}
		if want == match.Finished && now.Before(end) {
			return &TransitionError{From: m.Status, To: want, Reason: "match has not reached its end time"}
		}
		m.Status = want
	}
	m.Status = match.Evaluate(m.Status, start, now, match.Duration)
	return nil
}

// score computes the points of every prediction of a match against result.
func (s *MatchService) score(ctx context.Context, matchID uint64, result string) (map[uint64]match.Points, error) {
	preds, err := s.predictions.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	guesses := make(map[uint64]match.ScorePair, len(preds))
	for _, p := range preds {
		guesses[p.ID] = p.Guess()
	}
	return match.ScoreAll(result, guesses)
}

// recordTransition updates metrics, logs, and announces finished matches.
func (s *MatchService) recordTransition(m *model.FootballMatch, from match.Status, points map[uint64]match.Points) {
	if m.Status != from {
		metrics.MatchTransitionsTotal.WithLabelValues(string(m.Status)).Inc()
	}
	for _, p := range points {
		metrics.PredictionsScoredTotal.WithLabelValues(strconv.Itoa(int(p))).Inc()
	}
	s.log.WithFields(logrus.Fields{
		"match_id": m.ID,
		"from":     from,
		"to":       m.Status,
		"scored":   len(points),
	}).Info("match status advanced")

	if m.Status != match.Finished || s.publisher == nil {
		return
	}
	ev := queue.MatchFinishedEvent{
		MatchID:    m.ID,
		Team1:      m.Team1,
		Team2:      m.Team2,
		Result:     m.ResultText(),
		Scored:     len(points),
		FinishedAt: s.now().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.publisher.PublishMatchFinished(ctx, ev)
	}()
}

func (s *MatchService) dropReplaced(old, cur *string) {
	if s.files == nil || old == nil || *old == "" {
		return
	}
	if cur != nil && *cur == *old {
		return
	}
	if err := s.files.Delete(*old); err != nil {
		s.log.WithError(err).WithField("path", *old).Warn("remove replaced logo failed")
	}
}
