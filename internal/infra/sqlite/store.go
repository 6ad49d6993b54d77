package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/paydirt-network/paydirt/internal/domain"
)

// ─── Task Repository ────────────────────────────────────────────────────────

// UpsertTask inserts or replaces a task snapshot.
func (d *DB) UpsertTask(t domain.Task) error {
	_, err := d.db.Exec(
		`INSERT INTO tasks (id, creator, assignee, description, reward, state, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			assignee=excluded.assignee,
			state=excluded.state,
			deadline=excluded.deadline`,
		t.ID, string(t.Creator), nullStr(string(t.Assignee)), t.Description,
		t.Reward, string(t.State), nullableUnix(t.Deadline), t.CreatedAt.Unix(),
	)
	return err
}

// DeleteTask removes a task record (cancellation).
func (d *DB) DeleteTask(id string) error {
	_, err := d.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// ListTasks returns all task snapshots ordered by creation time.
func (d *DB) ListTasks() ([]domain.Task, error) {
	rows, err := d.db.Query(
		`SELECT id, creator, assignee, description, reward, state, deadline, created_at
		 FROM tasks ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var assignee sql.NullString
	var deadline sql.NullInt64
	var createdAt int64

	err := s.Scan(&t.ID, &t.Creator, &assignee, &t.Description,
		&t.Reward, &t.State, &deadline, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if assignee.Valid {
		t.Assignee = domain.Principal(assignee.String)
	}
	if deadline.Valid {
		t.Deadline = time.Unix(deadline.Int64, 0)
	}
	t.CreatedAt = time.Unix(createdAt, 0)
	return &t, nil
}

// ─── Training Repository ────────────────────────────────────────────────────

// UpsertTraining inserts or replaces a training record along with its
// certified list.
func (d *DB) UpsertTraining(tr domain.Training) error {
	_, err := d.db.Exec(
		`INSERT INTO trainings (id, creator, description, reward, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET completed=excluded.completed`,
		tr.ID, string(tr.Creator), tr.Description, tr.Reward, tr.Completed, tr.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}

	for _, p := range tr.Certified {
		_, err := d.db.Exec(
			`INSERT OR IGNORE INTO training_certified (training_id, principal) VALUES (?, ?)`,
			tr.ID, string(p),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListTrainings returns all training records with certified lists.
func (d *DB) ListTrainings() ([]domain.Training, error) {
	rows, err := d.db.Query(
		`SELECT id, creator, description, reward, completed, created_at
		 FROM trainings ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trainings []domain.Training
	for rows.Next() {
		var tr domain.Training
		var createdAt int64
		if err := rows.Scan(&tr.ID, &tr.Creator, &tr.Description, &tr.Reward, &tr.Completed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan training: %w", err)
		}
		tr.CreatedAt = time.Unix(createdAt, 0)
		trainings = append(trainings, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range trainings {
		certified, err := d.certifiedList(trainings[i].ID)
		if err != nil {
			return nil, err
		}
		trainings[i].Certified = certified
	}
	return trainings, nil
}

func (d *DB) certifiedList(trainingID string) ([]domain.Principal, error) {
	rows, err := d.db.Query(
		`SELECT principal FROM training_certified WHERE training_id = ? ORDER BY principal`,
		trainingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Principal
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, domain.Principal(p))
	}
	return out, rows.Err()
}

// ─── Rating Repository ──────────────────────────────────────────────────────

// InsertRating appends a rating. Ratings are never updated or deleted.
func (d *DB) InsertRating(r domain.Rating) error {
	_, err := d.db.Exec(
		`INSERT INTO ratings (id, task_id, rater, ratee, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, string(r.Rater), string(r.Ratee), r.Score, r.CreatedAt.Unix(),
	)
	return err
}

// ListRatings returns the full rating log in insertion order.
func (d *DB) ListRatings() ([]domain.Rating, error) {
	rows, err := d.db.Query(
		`SELECT id, task_id, rater, ratee, score, created_at
		 FROM ratings ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var r domain.Rating
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.TaskID, &r.Rater, &r.Ratee, &r.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// ─── Escrow Ledger ──────────────────────────────────────────────────────────

// InsertLedgerEntry persists a custody ledger entry.
func (d *DB) InsertLedgerEntry(e domain.LedgerEntry) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO escrow_ledger (id, timestamp, type, entry_type, account, amount, ref_id, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.Unix(), string(e.Type), string(e.EntryType),
		e.Account, e.Amount, nullStr(e.RefID), e.Balance,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LedgerEntries returns all entries in insertion order (daemon restore).
func (d *DB) LedgerEntries() ([]domain.LedgerEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, type, entry_type, account, amount, ref_id, balance
		 FROM escrow_ledger ORDER BY id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var ts int64
		var refID sql.NullString
		err := rows.Scan(&e.ID, &ts, &e.Type, &e.EntryType, &e.Account, &e.Amount, &refID, &e.Balance)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		if refID.Valid {
			e.RefID = refID.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
