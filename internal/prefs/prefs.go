package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/glebarez/sqlite"

	"udctl/internal/config"
)

// Store persists user preferences and job history in a local sqlite file.
// Every Set writes immediately and independently; there is no batching.
type Store struct {
	SQL  *sql.DB
	Path string
}

// Preference keys. Each is an independent scalar with its own default.
const (
	KeyActiveView            = "active_view"
	KeyFormat                = "format"
	KeyQualityKbps           = "quality_kbps"
	KeyResolution            = "resolution"
	KeyCompressionPercent    = "compression_percent"
	KeyCompressionResolution = "compression_resolution"
	KeyCompressionEngine     = "compression_engine"
)

// Defaults favor maximum fidelity: best resolution and the highest audio
// quality tier.
var defaults = map[string]string{
	KeyActiveView:            "downloader",
	KeyFormat:                "mp4",
	KeyQualityKbps:           "320",
	KeyResolution:            "best",
	KeyCompressionPercent:    "40",
	KeyCompressionResolution: "auto",
	KeyCompressionEngine:     "cpu",
}

func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if cfg.General.DataRoot == "" {
		return nil, errors.New("general.data_root required")
	}
	if err := os.MkdirAll(cfg.General.DataRoot, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.General.DataRoot, "prefs.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := initSchema(sqldb); err != nil {
		return nil, err
	}
	return &Store{SQL: sqldb, Path: path}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prefs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			path TEXT NOT NULL,
			filename TEXT,
			size INTEGER,
			encoder TEXT,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.SQL.Close() }

// Get returns the stored value for key, or its documented default.
func (s *Store) Get(key string) string {
	var v string
	err := s.SQL.QueryRow(`SELECT value FROM prefs WHERE key=?`, key).Scan(&v)
	if err != nil {
		return defaults[key]
	}
	return v
}

// GetInt is Get for numeric preferences; unparseable values fall back to the
// default.
func (s *Store) GetInt(key string) int {
	v := s.Get(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		n, _ = strconv.Atoi(defaults[key])
	}
	return n
}

// Set persists one preference immediately.
func (s *Store) Set(key, value string) error {
	_, err := s.SQL.Exec(`INSERT INTO prefs(key, value, updated_at) VALUES(?,?,strftime('%s','now'))
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value)
	return err
}

// SetInt persists a numeric preference.
func (s *Store) SetInt(key string, value int) error {
	return s.Set(key, strconv.Itoa(value))
}

// Default exposes the documented default for a key (used by tests and the
// settings view).
func Default(key string) string { return defaults[key] }
