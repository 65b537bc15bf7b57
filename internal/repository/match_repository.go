package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/iliyamo/venue-admin/internal/match"
	"github.com/iliyamo/venue-admin/internal/model"
)

// ErrMatchNotFound is returned when a match lookup fails.
var ErrMatchNotFound = fmt.Errorf("match %w", ErrNotFound)

// DATE and TIME are formatted in SQL so the row carries exactly the text the
// match package parses, independent of the driver's parseTime setting.
const matchColumns = `id, team1, team2, team1_logo, team2_logo,
	DATE_FORMAT(date, '%Y-%m-%d'), TIME_FORMAT(time, '%H:%i:%s'),
	channel, result, status, created_at, updated_at`

// MatchRepo persists football fixtures.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo constructs a MatchRepo with the given DB handle.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(s rowScanner) (*model.FootballMatch, error) {
	var (
		m      model.FootballMatch
		status string
	)
	if err := s.Scan(&m.ID, &m.Team1, &m.Team2, &m.Team1Logo, &m.Team2Logo,
		&m.Date, &m.Time, &m.Channel, &m.Result, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Status = match.Status(status)
	return &m, nil
}

func (r *MatchRepo) list(ctx context.Context, q string, args ...any) ([]*model.FootballMatch, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.FootballMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// List returns every match ordered by kickoff.
func (r *MatchRepo) List(ctx context.Context) ([]*model.FootballMatch, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM football_matches ORDER BY date ASC, time ASC, id ASC`)
}

// ListUnfinished returns the matches whose status can still advance.
func (r *MatchRepo) ListUnfinished(ctx context.Context) ([]*model.FootballMatch, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM football_matches WHERE status <> ? ORDER BY date ASC, time ASC, id ASC`,
		string(match.Finished))
}

// GetByID returns a single match or ErrMatchNotFound.
func (r *MatchRepo) GetByID(ctx context.Context, id uint64) (*model.FootballMatch, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM football_matches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	return m, err
}

// Create inserts m and reloads it so timestamps are populated.
func (r *MatchRepo) Create(ctx context.Context, m *model.FootballMatch) error {
	const q = `INSERT INTO football_matches (team1, team2, team1_logo, team2_logo, date, time, channel, result, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Team1, m.Team2, m.Team1Logo, m.Team2Logo,
		m.Date, m.Time, m.Channel, m.Result, string(m.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *fresh
	return nil
}

// Update writes every editable column of m, guarded by the status the caller
// read (prev).  When points is non-empty the prediction scores are written in
// the same transaction.  ErrConflict means the status moved concurrently and
// nothing was written.
func (r *MatchRepo) Update(ctx context.Context, m *model.FootballMatch, prev match.Status, points map[uint64]match.Points) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `UPDATE football_matches
	           SET team1 = ?, team2 = ?, team1_logo = ?, team2_logo = ?, date = ?, time = ?,
	               channel = ?, result = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, m.Team1, m.Team2, m.Team1Logo, m.Team2Logo, m.Date, m.Time,
		m.Channel, m.Result, string(m.Status), m.ID, string(prev))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missingOrMoved(ctx, tx, m.ID)
	}
	if err := writePoints(ctx, tx, m.ID, points); err != nil {
		return err
	}
	return tx.Commit()
}

// AdvanceStatus moves a match from one status to another with a
// compare-and-set and, in the same transaction, writes prediction points.
// It returns false when another writer already moved the status; the caller
// then simply reloads.
func (r *MatchRepo) AdvanceStatus(ctx context.Context, id uint64, from, to match.Status, points map[uint64]match.Points) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE football_matches SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	if err := writePoints(ctx, tx, id, points); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a match; its predictions cascade.
func (r *MatchRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM football_matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepo) missingOrMoved(ctx context.Context, tx *sql.Tx, id uint64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM football_matches WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func writePoints(ctx context.Context, tx *sql.Tx, matchID uint64, points map[uint64]match.Points) error {
	if len(points) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`UPDATE predictions SET points = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND football_match_id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	// Ascending id order keeps lock acquisition consistent across writers.
	for _, predID := range slices.Sorted(maps.Keys(points)) {
		if _, err := stmt.ExecContext(ctx, uint8(points[predID]), predID, matchID); err != nil {
			return fmt.Errorf("score prediction %d: %w", predID, err)
		}
	}
	return nil
}
