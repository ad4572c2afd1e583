package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"task_web/internal/logger"
	"task_web/internal/task"
)

const createTasksTable = `CREATE TABLE IF NOT EXISTS tasks (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    title TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// MySQLRepository stores tasks in a MySQL table. AUTO_INCREMENT keeps IDs
// monotonic across deletes.
type MySQLRepository struct {
	db  *sql.DB
	log logger.Logger
}

var _ task.Repository = (*MySQLRepository)(nil)

func OpenMySQL(ctx context.Context, dsn string, log logger.Logger) (*MySQLRepository, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	r := &MySQLRepository{db: db, log: log}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("mysql repository ready", "addr", cfg.Addr, "db", cfg.DBName)
	return r, nil
}

func (r *MySQLRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("migrate tasks table: %w", err)
	}
	return nil
}

func (r *MySQLRepository) Close() error { return r.db.Close() }

func (r *MySQLRepository) All(ctx context.Context) ([]*task.Task, error) {
	log := logger.FromContext(ctx).With("where", "repository")

	rows, err := r.db.QueryContext(ctx, `SELECT id, title FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	out := make([]*task.Task, 0)
	for rows.Next() {
		var t task.Task
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	log.Debug("repository: tasks listed", "count", len(out))
	return out, nil
}

func (r *MySQLRepository) Add(ctx context.Context, title string) (*task.Task, error) {
	log := logger.FromContext(ctx).With("where", "repository")

	res, err := r.db.ExecContext(ctx, `INSERT INTO tasks (title) VALUES (?)`, title)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert task: last insert id: %w", err)
	}

	log.Debug("repository: task added", "id", id)
	return &task.Task{ID: id, Title: title}, nil
}

func (r *MySQLRepository) Delete(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContext(ctx).With("where", "repository")

	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task %d: rows affected: %w", id, err)
	}

	log.Debug("repository: delete finished", "id", id, "removed", n > 0)
	return n > 0, nil
}
