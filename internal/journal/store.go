// Package journal persists captured moments in SQLite so that resonance
// memory can be rebuilt across process restarts.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AdaWorldAPI/ladybug-learning/internal/fingerprint"
	"github.com/AdaWorldAPI/ladybug-learning/internal/moment"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS moments (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	kind          TEXT NOT NULL,
	content       TEXT NOT NULL,
	fingerprint   BLOB NOT NULL,
	novelty       REAL,
	effort        REAL,
	satisfaction  REAL,
	cycle         INTEGER NOT NULL,
	ice_caked     INTEGER NOT NULL DEFAULT 0,
	ice_note      TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_moments_cycle ON moments(cycle);

CREATE TABLE IF NOT EXISTS collapse_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle         INTEGER NOT NULL,
	state         TEXT NOT NULL,
	action        TEXT NOT NULL,
	dispersion    REAL,
	can_collapse  INTEGER NOT NULL,
	winner_index  INTEGER,
	winner_score  REAL,
	hold_key      TEXT,
	scores_json   TEXT,
	reason        TEXT,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region record
// Record is a journaled moment plus its storage sequence and timestamp.
type Record struct {
	Seq       int64
	Moment    moment.Moment
	CreatedAt time.Time
}

// ErrNotFound is returned when a moment ID is not journaled.
var ErrNotFound = errors.New("moment not found")

// #endregion record

// #region store-struct
// Store manages the moment journal in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region append
// Append journals a moment. IDs are unique; appending the same ID twice fails.
func (s *Store) Append(m moment.Moment) error {
	blob, err := m.Fingerprint.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode fingerprint: %w", err)
	}
	var novelty, effort, satisfaction interface{}
	if m.Qualia != nil {
		novelty, effort, satisfaction = m.Qualia.Novelty, m.Qualia.Effort, m.Qualia.Satisfaction
	}
	iceCaked := 0
	if m.IceCaked {
		iceCaked = 1
	}
	_, err = s.db.Exec(
		`INSERT INTO moments (id, kind, content, fingerprint, novelty, effort, satisfaction, cycle, ice_caked, ice_note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(m.Kind), m.Content, blob, novelty, effort, satisfaction,
		int64(m.Cycle), iceCaked, nullIfEmpty(m.IceNote), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert moment %s: %w", m.ID, err)
	}
	return nil
}

// #endregion append

// #region ice-cake
// IceCake marks a journaled moment canonical. Identity and fingerprint are untouched.
func (s *Store) IceCake(id, note string) error {
	res, err := s.db.Exec(
		`UPDATE moments SET ice_caked = 1, ice_note = ? WHERE id = ?`, nullIfEmpty(note), id,
	)
	if err != nil {
		return fmt.Errorf("ice-cake %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ice-cake %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("ice-cake %s: %w", id, ErrNotFound)
	}
	return nil
}

// #endregion ice-cake

// #region queries
const selectColumns = `SELECT seq, id, kind, content, fingerprint, novelty, effort, satisfaction, cycle, ice_caked, ice_note, created_at FROM moments`

// Get retrieves a journaled moment by ID.
func (s *Store) Get(id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRow(selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit moments, newest first.
func (s *Store) List(limit int) ([]Record, error) {
	return s.query(selectColumns+` ORDER BY seq DESC LIMIT ?`, limit)
}

// All returns every moment in capture order.
func (s *Store) All() ([]Record, error) {
	return s.query(selectColumns + ` ORDER BY seq ASC`)
}

// MaxCycle returns the highest journaled cycle, or 0 for an empty journal.
func (s *Store) MaxCycle() (uint64, error) {
	var maxCycle sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(cycle) FROM moments`).Scan(&maxCycle); err != nil {
		return 0, fmt.Errorf("max cycle: %w", err)
	}
	if !maxCycle.Valid {
		return 0, nil
	}
	return uint64(maxCycle.Int64), nil
}

// Count returns the number of journaled moments.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM moments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (s *Store) query(q string, args ...interface{}) ([]Record, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion queries

// #region helpers
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                           Record
		kind, createdStr              string
		blob                          []byte
		novelty, effort, satisfaction sql.NullFloat64
		cycle                         int64
		iceCaked                      int
		iceNote                       sql.NullString
	)
	err := row.Scan(&rec.Seq, &rec.Moment.ID, &kind, &rec.Moment.Content, &blob,
		&novelty, &effort, &satisfaction, &cycle, &iceCaked, &iceNote, &createdStr)
	if err != nil {
		return Record{}, err
	}

	k, err := moment.ParseKind(kind)
	if err != nil {
		return Record{}, err
	}
	rec.Moment.Kind = k

	var fp fingerprint.Fingerprint
	if err := fp.UnmarshalBinary(blob); err != nil {
		return Record{}, fmt.Errorf("decode fingerprint of %s: %w", rec.Moment.ID, err)
	}
	rec.Moment.Fingerprint = fp

	if novelty.Valid || effort.Valid || satisfaction.Valid {
		q := moment.NewQualia(novelty.Float64, effort.Float64, satisfaction.Float64)
		rec.Moment.Qualia = &q
	}
	rec.Moment.Cycle = uint64(cycle)
	rec.Moment.IceCaked = iceCaked == 1
	if iceNote.Valid {
		rec.Moment.IceNote = iceNote.String
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
