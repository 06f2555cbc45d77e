package registry

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a persistent class cache backed by SQLite, so ingested stubs
// survive between runs. Builtins are never persisted; they are re-seeded by
// New on every open.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the class database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Put upserts classes into the store.
func (s *Store) Put(classes ...*Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("store: closed")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO classes (name, bases, final, solid, module, doc)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			bases = excluded.bases, final = excluded.final,
			solid = excluded.solid, module = excluded.module, doc = excluded.doc`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for _, cls := range classes {
		if cls == nil || cls.Name == "" {
			continue
		}
		bases, err := json.Marshal(cls.Bases)
		if err != nil {
			return fmt.Errorf("store: encode bases of %s: %w", cls.Name, err)
		}
		if _, err := stmt.Exec(cls.Name, string(bases), boolInt(cls.Final), boolInt(cls.Solid), cls.Module, cls.Doc); err != nil {
			return fmt.Errorf("store: upsert %s: %w", cls.Name, err)
		}
	}
	return tx.Commit()
}

// LoadInto registers every stored class into the registry and reports how
// many were loaded. Identical re-definitions (a builtin stored by an older
// version, say) are tolerated.
func (s *Store) LoadInto(r *Registry) (int, error) {
	classes, err := s.all()
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, cls := range classes {
		if err := r.Register(cls); err != nil {
			return loaded, fmt.Errorf("store: load %s: %w", cls.Name, err)
		}
		loaded++
	}
	return loaded, nil
}

// Export captures the stored classes as a manifest for `registry export`.
func (s *Store) Export() (*Manifest, error) {
	classes, err := s.all()
	if err != nil {
		return nil, err
	}
	return &Manifest{Classes: classes}, nil
}

func (s *Store) all() ([]*Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("store: closed")
	}
	rows, err := s.db.Query(`SELECT name, bases, final, solid, module, doc FROM classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var out []*Class
	for rows.Next() {
		var cls Class
		var bases string
		var final, solid int
		if err := rows.Scan(&cls.Name, &bases, &final, &solid, &cls.Module, &cls.Doc); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(bases), &cls.Bases); err != nil {
			return nil, fmt.Errorf("store: decode bases of %s: %w", cls.Name, err)
		}
		cls.Final = final != 0
		cls.Solid = solid != 0
		out = append(out, &cls)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
