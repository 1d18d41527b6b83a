package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"erp-sync-service/internal/config"
	"erp-sync-service/internal/database"
)

// MySQLStore keeps every record in a single kv_records table:
//
//	CREATE TABLE kv_records (
//	    k VARCHAR(255) PRIMARY KEY,
//	    v JSON NOT NULL,
//	    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
//	);
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(cfg config.StateStorage) (*MySQLStore, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_records WHERE k = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *MySQLStore) Set(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO kv_records (k, v) VALUES (?, ?)
			  ON DUPLICATE KEY UPDATE v = VALUES(v)`
	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE k = ?`, key)
	return err
}

func (s *MySQLStore) ScanByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT v FROM kv_records WHERE k LIKE ? ORDER BY k`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
