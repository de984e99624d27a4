package prefs

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one finished job as recorded for the history view.
type HistoryEntry struct {
	ID        string
	Kind      string // "download" | "compression"
	Path      string
	Filename  string
	Size      int64
	Encoder   string
	CreatedAt time.Time
}

// AddHistory appends a finished job. Best effort: callers ignore the error on
// the completion path and only log it.
func (s *Store) AddHistory(e HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.SQL.Exec(`INSERT INTO history(id, kind, path, filename, size, encoder, created_at)
		VALUES(?,?,?,?,?,?,?)`,
		e.ID, e.Kind, e.Path, e.Filename, e.Size, e.Encoder, e.CreatedAt.Unix())
	return err
}

// ListHistory returns entries newest first, up to limit (0 = no limit).
func (s *Store) ListHistory(limit int) ([]HistoryEntry, error) {
	q := `SELECT id, kind, path, COALESCE(filename,''), COALESCE(size,0), COALESCE(encoder,''), created_at
		FROM history ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.SQL.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Path, &e.Filename, &e.Size, &e.Encoder, &ts); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
