package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"tasktree/internal/models"
	"tasktree/internal/tasks"
)

// Store wraps access to the SQLite tasks table and implements tasks.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps in-memory databases alive and serializes writers.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            description TEXT NOT NULL,
            start_timestamp TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'ACTIVE',
            finish_timestamp TEXT,
            parent_id INTEGER,
            FOREIGN KEY (parent_id) REFERENCES tasks(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_parent_status ON tasks(parent_id, status);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const taskColumns = `id, description, start_timestamp, status, finish_timestamp, parent_id`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var (
		t      models.Task
		finish sql.NullString
		parent sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Description, &t.StartTimestamp, &t.Status, &finish, &parent); err != nil {
		return models.Task{}, err
	}
	if finish.Valid {
		t.FinishTimestamp = &finish.String
	}
	if parent.Valid {
		t.ParentID = &parent.Int64
	}
	return t, nil
}

// CreateTask inserts a new task row and returns the stored record.
func (s *Store) CreateTask(ctx context.Context, description string, parentID *int64, startTimestamp string) (models.Task, error) {
	var parent sql.NullInt64
	if parentID != nil {
		parent = sql.NullInt64{Int64: *parentID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(description, start_timestamp, status, parent_id) VALUES(?, ?, ?, ?)`,
		description, startTimestamp, models.StatusActive, parent)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, tasks.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns tasks matching the filter, ordered by id ascending.
func (s *Store) ListTasks(ctx context.Context, filter models.ListFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	switch filter {
	case models.FilterNonClear:
		query += ` WHERE status != 'CLEAR'`
	case models.FilterActiveOnly:
		query += ` WHERE status = 'ACTIVE'`
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var list []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// CountActiveChildren counts the direct children of id with status ACTIVE.
func (s *Store) CountActiveChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE parent_id = ? AND status = ?`, id, models.StatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active children: %w", err)
	}
	return count, nil
}

// ListChildIDs returns the ids of the direct children of parentID.
func (s *Store) ListChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tasks WHERE parent_id = ? ORDER BY id ASC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateStatusAll sets status and finish_timestamp on every listed id inside
// one transaction, so a cascade either fully applies or leaves all rows untouched.
func (s *Store) UpdateStatusAll(ctx context.Context, ids []int64, status models.Status, finishTimestamp *string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}

	var finish sql.NullString
	if finishTimestamp != nil {
		finish = sql.NullString{String: *finishTimestamp, Valid: true}
	}

	args := make([]any, 0, len(ids)+2)
	args = append(args, status, finish)
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`UPDATE tasks SET status = ?, finish_timestamp = ? WHERE id IN (%s)`, strings.Join(placeholders, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// Schema returns the CREATE statement and column metadata of the tasks table.
func (s *Store) Schema(ctx context.Context) (models.TableSchema, error) {
	var createSQL string
	err := s.db.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&createSQL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TableSchema{}, tasks.ErrNotFound
	}
	if err != nil {
		return models.TableSchema{}, fmt.Errorf("table schema: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(tasks)`)
	if err != nil {
		return models.TableSchema{}, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	schema := models.TableSchema{TableName: "tasks", CreateStatement: createSQL}
	for rows.Next() {
		var (
			col     models.ColumnInfo
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&col.CID, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return models.TableSchema{}, fmt.Errorf("scan column: %w", err)
		}
		col.NotNull = notNull != 0
		col.IsPK = pk != 0
		if dflt.Valid {
			col.DefaultValue = &dflt.String
		}
		schema.Columns = append(schema.Columns, col)
	}
	return schema, rows.Err()
}
