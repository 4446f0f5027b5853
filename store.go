package quizforge

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	keyResults = "quizResults"
	keyFolders = "quizFolders"
)

// DB persists the history as whole-value JSON blobs in sqlite: one row per
// key, rewritten in full on every mutation. No incremental patching.
type DB struct {
	db *sql.DB
}

// OpenDB opens (or creates) the store at the given path. ":memory:" gives a
// throwaway in-process store.
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the underlying connection.
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the blob table if it does not exist.
func (db *DB) CreateTables() error {
	query := `CREATE TABLE IF NOT EXISTS store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute %s: %w", query, err)
	}
	return nil
}

// SaveResults writes the full result list.
func (db *DB) SaveResults(results []QuizResult) error {
	return db.put(keyResults, results)
}

// LoadResults reads the full result list; a missing key yields an empty list.
func (db *DB) LoadResults() ([]QuizResult, error) {
	var results []QuizResult
	if err := db.get(keyResults, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SaveFolders writes the full folder list.
func (db *DB) SaveFolders(folders []Folder) error {
	return db.put(keyFolders, folders)
}

// LoadFolders reads the full folder list; a missing key yields an empty list.
func (db *DB) LoadFolders() ([]Folder, error) {
	var folders []Folder
	if err := db.get(keyFolders, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (db *DB) put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	_, err = db.db.Exec(
		"INSERT OR REPLACE INTO store (key, value) VALUES (?, ?)",
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (db *DB) get(key string, out any) error {
	var data string
	err := db.db.QueryRow("SELECT value FROM store WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}
