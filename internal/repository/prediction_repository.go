package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/venue-admin/internal/match"
	"github.com/iliyamo/venue-admin/internal/model"
)

// PredictionRepo persists user score predictions.
type PredictionRepo struct {
	db *sql.DB
}

// NewPredictionRepo constructs a PredictionRepo with the given DB handle.
func NewPredictionRepo(db *sql.DB) *PredictionRepo {
	return &PredictionRepo{db: db}
}

const predictionColumns = `p.id, p.user_id, p.football_match_id, p.team1_score, p.team2_score, p.points, p.created_at, p.updated_at`

func scanPrediction(s rowScanner, extra ...any) (*model.Prediction, error) {
	var p model.Prediction
	dest := append([]any{&p.ID, &p.UserID, &p.MatchID, &p.Team1Score, &p.Team2Score, &p.Points, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert stores p as the user's only guess for the match, replacing an
// earlier one.  The match row is share-locked for the duration so the status
// cannot advance between the upcoming check and the write; a match that is
// not upcoming yields ErrPredictionsClosed.  created reports whether a new
// row was inserted.
func (r *PredictionRepo) Upsert(ctx context.Context, p *model.Prediction) (created bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM football_matches WHERE id = ? LOCK IN SHARE MODE`, p.MatchID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrMatchNotFound
	}
	if err != nil {
		return false, err
	}
	if match.Status(status) != match.Upcoming {
		return false, ErrPredictionsClosed
	}

	var id uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM predictions WHERE user_id = ? AND football_match_id = ? FOR UPDATE`,
		p.UserID, p.MatchID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO predictions (user_id, football_match_id, team1_score, team2_score) VALUES (?, ?, ?, ?)`,
			p.UserID, p.MatchID, p.Team1Score, p.Team2Score)
		if err != nil {
			if isDuplicate(err) {
				return false, ErrConflict
			}
			return false, err
		}
		lid, err := res.LastInsertId()
		if err != nil {
			return false, err
		}
		id, created = uint64(lid), true
	case err != nil:
		return false, err
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE predictions SET team1_score = ?, team2_score = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			p.Team1Score, p.Team2Score, id); err != nil {
			return false, err
		}
	}

	fresh, err := scanPrediction(tx.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions p WHERE p.id = ?`, id))
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	*p = *fresh
	return created, nil
}

// ListByMatch returns every prediction for a match.
func (r *PredictionRepo) ListByMatch(ctx context.Context, matchID uint64) ([]*model.Prediction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions p WHERE p.football_match_id = ? ORDER BY p.id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByUser returns a user's predictions together with their matches.
func (r *PredictionRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Prediction, error) {
	const q = `SELECT ` + predictionColumns + `,
	                  m.id, m.team1, m.team2, m.team1_logo, m.team2_logo,
	                  DATE_FORMAT(m.date, '%Y-%m-%d'), TIME_FORMAT(m.time, '%H:%i:%s'),
	                  m.channel, m.result, m.status, m.created_at, m.updated_at
	           FROM predictions p
	           JOIN football_matches m ON m.id = p.football_match_id
	           WHERE p.user_id = ?
	           ORDER BY m.date DESC, m.time DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Prediction
	for rows.Next() {
		var (
			m      model.FootballMatch
			status string
		)
		p, err := scanPrediction(rows, &m.ID, &m.Team1, &m.Team2, &m.Team1Logo, &m.Team2Logo,
			&m.Date, &m.Time, &m.Channel, &m.Result, &status, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		m.Status = match.Status(status)
		p.Match = &m
		out = append(out, p)
	}
	return out, rows.Err()
}

// Leaderboard returns the users with the most points, highest first.
func (r *PredictionRepo) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	const q = `SELECT p.user_id, u.name, u.email, COALESCE(SUM(p.points), 0) AS total_points
	           FROM predictions p
	           JOIN users u ON u.id = p.user_id
	           GROUP BY p.user_id, u.name, u.email
	           ORDER BY total_points DESC, p.user_id ASC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Email, &e.TotalPoints); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
