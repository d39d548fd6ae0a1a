package casestore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"argus/internal/db"
	"argus/internal/domain"
)

// schema is applied to every case database on open. Statements are idempotent
// so reopening an existing case is safe.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS targets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	type       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS attributes (
	target_id TEXT NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	category  TEXT NOT NULL DEFAULT 'Technical',
	PRIMARY KEY (target_id, key)
);
CREATE TABLE IF NOT EXISTS links (
	source_id TEXT NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
	target_id TEXT NOT NULL,
	relation  TEXT NOT NULL,
	PRIMARY KEY (source_id, target_id, relation)
);
CREATE TABLE IF NOT EXISTS history (
	ord     INTEGER PRIMARY KEY,
	role    TEXT NOT NULL,
	content TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS persons (
	id         TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	dni        TEXT NOT NULL DEFAULT '',
	birth_date TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS person_nicknames (
	id        TEXT PRIMARY KEY,
	person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
	value     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS addresses (
	id        TEXT PRIMARY KEY,
	person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
	street    TEXT NOT NULL DEFAULT '',
	number    TEXT NOT NULL DEFAULT '',
	locality  TEXT NOT NULL DEFAULT '',
	state     TEXT NOT NULL DEFAULT '',
	country   TEXT NOT NULL DEFAULT '',
	zip_code  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	person_id  TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
	title      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	date_start TEXT NOT NULL DEFAULT '',
	date_end   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS social_profiles (
	id        TEXT PRIMARY KEY,
	person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
	platform  TEXT NOT NULL DEFAULT '',
	username  TEXT NOT NULL DEFAULT '',
	url       TEXT NOT NULL DEFAULT ''
);
`

// Store manages one SQLite database per investigation case under
// <baseDir>/cases/<name>/intelligence.db. Handles are opened lazily and
// cached for the process lifetime.
type Store struct {
	baseDir string
	logger  *slog.Logger

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func NewStore(baseDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{baseDir: baseDir, logger: logger, dbs: make(map[string]*sql.DB)}
}

var (
	_ domain.HistoryStore = (*Store)(nil)
)

// validCaseName rejects names that could escape the cases directory.
func validCaseName(name string) error {
	if name == "" {
		return fmt.Errorf("case name must not be empty")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == ' ':
		default:
			return fmt.Errorf("invalid case name %q: letters, digits, spaces, '-' and '_' only", name)
		}
	}
	return nil
}

func (s *Store) caseDir(name string) string {
	return filepath.Join(s.baseDir, "cases", name)
}

func (s *Store) casePath(name string) string {
	return filepath.Join(s.caseDir(name), "intelligence.db")
}

// exists reports whether the case database file is present.
func (s *Store) exists(name string) bool {
	_, err := os.Stat(s.casePath(name))
	return err == nil
}

// open returns the cached handle for a case, creating directory, database and
// schema on first use.
func (s *Store) open(name string) (*sql.DB, error) {
	if err := validCaseName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle, ok := s.dbs[name]; ok {
		return handle, nil
	}
	if err := os.MkdirAll(s.caseDir(name), 0o755); err != nil {
		return nil, fmt.Errorf("create case directory: %w", err)
	}
	handle, err := db.Connect("file:" + s.casePath(name))
	if err != nil {
		return nil, err
	}
	if _, err := handle.Exec(schema); err != nil {
		handle.Close()
		return nil, fmt.Errorf("apply case schema: %w", err)
	}
	s.dbs[name] = handle
	return handle, nil
}

// =============================================================================
// Case lifecycle
// =============================================================================

// CreateCase initializes a new case database. Creating an existing case is an
// error.
func (s *Store) CreateCase(name, description string) error {
	if err := validCaseName(name); err != nil {
		return err
	}
	if s.exists(name) {
		return fmt.Errorf("case %q already exists", name)
	}
	handle, err := s.open(name)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range map[string]string{
		"name":        name,
		"description": description,
		"created_at":  now,
	} {
		if _, err := handle.Exec(
			`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("initialize case metadata: %w", err)
		}
	}
	s.logger.Info("case created", "case", name)
	return nil
}

// ListCases returns metadata for every case under the base directory, sorted
// by name.
func (s *Store) ListCases() ([]domain.CaseMetadata, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "cases"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cases directory: %w", err)
	}

	var cases []domain.CaseMetadata
	for _, entry := range entries {
		if !entry.IsDir() || !s.exists(entry.Name()) {
			continue
		}
		meta, err := s.LoadCase(entry.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable case", "case", entry.Name(), "error", err)
			continue
		}
		cases = append(cases, meta)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// DeleteCase closes any open handle and removes the case directory.
func (s *Store) DeleteCase(name string) error {
	if err := validCaseName(name); err != nil {
		return err
	}
	if !s.exists(name) {
		return fmt.Errorf("case %q does not exist", name)
	}
	s.mu.Lock()
	if handle, ok := s.dbs[name]; ok {
		handle.Close()
		delete(s.dbs, name)
	}
	s.mu.Unlock()
	if err := os.RemoveAll(s.caseDir(name)); err != nil {
		return fmt.Errorf("remove case directory: %w", err)
	}
	s.logger.Info("case deleted", "case", name)
	return nil
}

// LoadCase returns the case metadata including its targets.
func (s *Store) LoadCase(name string) (domain.CaseMetadata, error) {
	if !s.exists(name) {
		return domain.CaseMetadata{}, fmt.Errorf("case %q does not exist", name)
	}
	handle, err := s.open(name)
	if err != nil {
		return domain.CaseMetadata{}, err
	}

	meta := domain.CaseMetadata{Name: name}
	rows, err := handle.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return domain.CaseMetadata{}, fmt.Errorf("read case metadata: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.CaseMetadata{}, err
		}
		switch key {
		case "description":
			meta.Description = value
		case "created_at":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				meta.CreatedAt = t
			}
		}
	}
	if err := rows.Err(); err != nil {
		return domain.CaseMetadata{}, err
	}

	if info, err := os.Stat(s.casePath(name)); err == nil {
		meta.LastModified = info.ModTime()
	}
	targets, err := s.GetTargets(name)
	if err != nil {
		return domain.CaseMetadata{}, err
	}
	meta.Targets = targets
	return meta, nil
}

// =============================================================================
// History
// =============================================================================

// LoadHistory returns the stored conversation, oldest first. A case that does
// not exist yet yields an empty history.
func (s *Store) LoadHistory(caseName string) ([]domain.Turn, error) {
	if !s.exists(caseName) {
		return nil, nil
	}
	handle, err := s.open(caseName)
	if err != nil {
		return nil, err
	}
	rows, err := handle.Query(`SELECT role, content FROM history ORDER BY ord`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		turns = append(turns, domain.Turn{Role: normalizeRole(role), Content: content})
	}
	return turns, rows.Err()
}

// SaveHistory atomically replaces the stored conversation.
func (s *Store) SaveHistory(caseName string, turns []domain.Turn) error {
	handle, err := s.open(caseName)
	if err != nil {
		return err
	}
	tx, err := handle.Begin()
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	for i, turn := range turns {
		if _, err := tx.Exec(
			`INSERT INTO history (ord, role, content) VALUES (?, ?, ?)`,
			i, string(turn.Role), turn.Content); err != nil {
			return fmt.Errorf("save history: %w", err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// Targets
// =============================================================================

// UpsertTarget creates the target if missing and, when key is non-empty,
// records the attribute under it. category defaults to Technical.
func (s *Store) UpsertTarget(caseName, name, targetType, key, value, category string) error {
	handle, err := s.open(caseName)
	if err != nil {
		return err
	}
	id := domain.TargetID(name, domain.TargetType(targetType))
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := handle.Exec(
		`INSERT OR IGNORE INTO targets (id, name, type, created_at) VALUES (?, ?, ?, ?)`,
		id, name, targetType, now); err != nil {
		return fmt.Errorf("upsert target: %w", err)
	}
	if key == "" {
		return nil
	}
	if category == "" {
		category = "Technical"
	}
	if _, err := handle.Exec(
		`INSERT OR REPLACE INTO attributes (target_id, key, value, category) VALUES (?, ?, ?, ?)`,
		id, key, value, category); err != nil {
		return fmt.Errorf("upsert attribute: %w", err)
	}
	return nil
}

// GetTargets returns every target in the case with attributes and links,
// sorted by creation order.
func (s *Store) GetTargets(caseName string) ([]domain.Target, error) {
	handle, err := s.open(caseName)
	if err != nil {
		return nil, err
	}
	rows, err := handle.Query(`SELECT id, name, type, created_at FROM targets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	defer rows.Close()

	var targets []domain.Target
	for rows.Next() {
		var target domain.Target
		var createdAt string
		if err := rows.Scan(&target.ID, &target.Name, &target.Type, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			target.CreatedAt = t
		}
		target.Data = make(map[string]string)
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range targets {
		if err := s.fillTarget(handle, &targets[i]); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

func (s *Store) fillTarget(handle *sql.DB, target *domain.Target) error {
	attrRows, err := handle.Query(`SELECT key, value FROM attributes WHERE target_id = ?`, target.ID)
	if err != nil {
		return fmt.Errorf("load attributes: %w", err)
	}
	defer attrRows.Close()
	for attrRows.Next() {
		var key, value string
		if err := attrRows.Scan(&key, &value); err != nil {
			return err
		}
		target.Data[key] = value
	}
	if err := attrRows.Err(); err != nil {
		return err
	}

	linkRows, err := handle.Query(
		`SELECT target_id, relation FROM links WHERE source_id = ? ORDER BY target_id`, target.ID)
	if err != nil {
		return fmt.Errorf("load links: %w", err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var link domain.TargetLink
		if err := linkRows.Scan(&link.TargetID, &link.Relation); err != nil {
			return err
		}
		target.Links = append(target.Links, link)
	}
	return linkRows.Err()
}

// AddLink relates sourceID to targetID. Both targets must already exist.
func (s *Store) AddLink(caseName, sourceID, targetID, relation string) error {
	handle, err := s.open(caseName)
	if err != nil {
		return err
	}
	for _, id := range []string{sourceID, targetID} {
		var count int
		if err := handle.QueryRow(`SELECT COUNT(*) FROM targets WHERE id = ?`, id).Scan(&count); err != nil {
			return fmt.Errorf("check target: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("target %q does not exist in case %q", id, caseName)
		}
	}
	if _, err := handle.Exec(
		`INSERT OR REPLACE INTO links (source_id, target_id, relation) VALUES (?, ?, ?)`,
		sourceID, targetID, relation); err != nil {
		return fmt.Errorf("add link: %w", err)
	}
	return nil
}

// Close releases every cached database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, handle := range s.dbs {
		if err := handle.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, name)
	}
	return firstErr
}

// normalizeRole guards against unknown roles in hand-edited databases.
func normalizeRole(role string) domain.Role {
	switch strings.ToLower(role) {
	case "model", "assistant":
		return domain.RoleModel
	case "system":
		return domain.RoleSystem
	default:
		return domain.RoleUser
	}
}
