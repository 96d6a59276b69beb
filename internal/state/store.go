// Package state persists build history in a SQLite database so the
// builds command and the dev UI can show what was compiled and when.
package state

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// BuildStatus is the lifecycle state of one build.
type BuildStatus string

const (
	StatusRunning BuildStatus = "running"
	StatusSuccess BuildStatus = "success"
	StatusFailed  BuildStatus = "failed"
)

// Build is one recorded compiler invocation.
type Build struct {
	ID          string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      BuildStatus
	Components  int
	Warnings    int
	Error       string
}

// BuildComponent is one component compiled within a build.
type BuildComponent struct {
	BuildID  string
	Name     string
	File     string
	ScopeID  string
	Warnings int
}

// Store is a SQLite-backed build history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the build database at path and ensures the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open build database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping build database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize build schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartBuild records the beginning of a build and returns it.
func (s *Store) StartBuild() (*Build, error) {
	build := &Build{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Status:    StatusRunning,
	}
	_, err := s.db.Exec(
		`INSERT INTO builds (id, started_at, status) VALUES (?, ?, ?)`,
		build.ID, build.StartedAt, build.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("record build start: %w", err)
	}
	return build, nil
}

// FinishBuild marks a build complete with its outcome.
func (s *Store) FinishBuild(id string, status BuildStatus, components, warnings int, buildErr string) error {
	_, err := s.db.Exec(
		`UPDATE builds SET completed_at = ?, status = ?, components = ?, warnings = ?, error = ? WHERE id = ?`,
		time.Now().UTC(), status, components, warnings, nullable(buildErr), id,
	)
	if err != nil {
		return fmt.Errorf("record build finish: %w", err)
	}
	return nil
}

// RecordComponent attaches one compiled component to a build.
func (s *Store) RecordComponent(bc BuildComponent) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO build_components (build_id, name, file, scope_id, warnings)
		 VALUES (?, ?, ?, ?, ?)`,
		bc.BuildID, bc.Name, bc.File, bc.ScopeID, bc.Warnings,
	)
	if err != nil {
		return fmt.Errorf("record component %s: %w", bc.Name, err)
	}
	return nil
}

// GetBuild fetches one build by id.
func (s *Store) GetBuild(id string) (*Build, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, completed_at, status, components, warnings, error
		 FROM builds WHERE id = ?`, id)
	build, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s not found", id)
	}
	return build, err
}

// ListBuilds returns the most recent builds, newest first.
func (s *Store) ListBuilds(limit int) ([]*Build, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, completed_at, status, components, warnings, error
		 FROM builds ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []*Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, build)
	}
	return builds, rows.Err()
}

// ListComponents returns the components recorded for a build, by name.
func (s *Store) ListComponents(buildID string) ([]BuildComponent, error) {
	rows, err := s.db.Query(
		`SELECT build_id, name, file, scope_id, warnings
		 FROM build_components WHERE build_id = ? ORDER BY name`, buildID)
	if err != nil {
		return nil, fmt.Errorf("list build components: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comps []BuildComponent
	for rows.Next() {
		var bc BuildComponent
		if err := rows.Scan(&bc.BuildID, &bc.Name, &bc.File, &bc.ScopeID, &bc.Warnings); err != nil {
			return nil, fmt.Errorf("scan build component: %w", err)
		}
		comps = append(comps, bc)
	}
	return comps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*Build, error) {
	var build Build
	var completed sql.NullTime
	var errMsg sql.NullString
	if err := row.Scan(&build.ID, &build.StartedAt, &completed, &build.Status,
		&build.Components, &build.Warnings, &errMsg); err != nil {
		return nil, err
	}
	if completed.Valid {
		build.CompletedAt = &completed.Time
	}
	build.Error = errMsg.String
	return &build, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
