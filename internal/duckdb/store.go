// Package duckdb records ranking runs in a DuckDB database so that row
// statistics and classified genes can be queried across runs.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for ranking results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for an in-memory database.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			started_at TIMESTAMP,
			gene_set_path VARCHAR,
			gene_set_size BIGINT,
			gene_set_mtime TIMESTAMP,
			matrix_path VARCHAR,
			matrix_size BIGINT,
			matrix_mtime TIMESTAMP,
			p_threshold DOUBLE,
			q_threshold DOUBLE,
			null_threshold DOUBLE,
			fold_threshold DOUBLE,
			count_threshold BIGINT,
			median_threshold DOUBLE,
			tested BIGINT,
			degenerate BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS row_stats (
			run_id VARCHAR,
			gene VARCHAR,
			median DOUBLE,
			p_value DOUBLE,
			fdr DOUBLE,
			PRIMARY KEY (run_id, gene)
		)`,
		`CREATE TABLE IF NOT EXISTS ranked_genes (
			run_id VARCHAR,
			gene VARCHAR,
			direction VARCHAR,
			position BIGINT,
			neg_count BIGINT,
			pos_count BIGINT,
			PRIMARY KEY (run_id, gene)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
