package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/figure-editor/backend/internal/models"
	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const figuresTable = `
	CREATE TABLE IF NOT EXISTS figures (
		id         VARCHAR PRIMARY KEY,
		name       VARCHAR NOT NULL,
		data       BLOB NOT NULL,
		size       BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)
`

// sqlStore implements Store over a database/sql handle. Timestamps are kept
// as unix milliseconds so both engines share one schema.
type sqlStore struct {
	db   *sql.DB
	name string
}

func newSQLStore(db *sql.DB, name string) (*sqlStore, error) {
	if _, err := db.Exec(figuresTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating figures table: %w", err)
	}
	return &sqlStore{db: db, name: name}, nil
}

// DuckStore keeps figures in a DuckDB file.
type DuckStore struct{ *sqlStore }

// NewDuckStore opens (or creates) the DuckDB database at dbPath.
func NewDuckStore(dbPath string) (*DuckStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	fmt.Printf("[DuckStore] Opening figure database at: %s\n", dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				fmt.Printf("[DuckStore] Pragma warning: %v\n", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	s, err := newSQLStore(sql.OpenDB(connector), "DuckStore")
	if err != nil {
		return nil, err
	}
	return &DuckStore{s}, nil
}

// SQLiteStore keeps figures in a SQLite file.
type SQLiteStore struct{ *sqlStore }

// NewSQLiteStore opens (or creates) the SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s, err := newSQLStore(db, "SQLiteStore")
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{s}, nil
}

// Save inserts or replaces a figure, keeping its creation time.
func (s *sqlStore) Save(ctx context.Context, id, name string, data []byte) (*models.FigureInfo, error) {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE figures SET name = ?, data = ?, size = ?, updated_at = ? WHERE id = ?`,
		name, data, len(data), now, id)
	if err != nil {
		return nil, fmt.Errorf("updating figure: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO figures (id, name, data, size, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, name, data, len(data), now, now)
		if err != nil {
			return nil, fmt.Errorf("inserting figure: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.Get(ctx, id)
}

// Load returns the stored document bytes.
func (s *sqlStore) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM figures WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading figure: %w", err)
	}
	return data, nil
}

// Get returns figure metadata.
func (s *sqlStore) Get(ctx context.Context, id string) (*models.FigureInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, size, created_at, updated_at FROM figures WHERE id = ?`, id)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading figure info: %w", err)
	}
	return info, nil
}

// List returns figures, most recently updated first.
func (s *sqlStore) List(ctx context.Context, limit int) ([]*models.FigureInfo, error) {
	query := `SELECT id, name, size, created_at, updated_at FROM figures ORDER BY updated_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing figures: %w", err)
	}
	defer rows.Close()

	list := []*models.FigureInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning figure: %w", err)
		}
		list = append(list, info)
	}
	return list, rows.Err()
}

// Delete removes a figure.
func (s *sqlStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM figures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting figure: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *sqlStore) Close() error {
	fmt.Printf("[%s] Closing database\n", s.name)
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(sc scanner) (*models.FigureInfo, error) {
	var (
		info             models.FigureInfo
		created, updated int64
	)
	if err := sc.Scan(&info.ID, &info.Name, &info.Size, &created, &updated); err != nil {
		return nil, err
	}
	info.CreatedAt = time.UnixMilli(created)
	info.UpdatedAt = time.UnixMilli(updated)
	return &info, nil
}
