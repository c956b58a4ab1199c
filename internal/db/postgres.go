package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ignatzorin/crowdship-backend/internal/logger"
)

// PoolOptions параметры пула соединений.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPool пул API сервера; воркер и CLI берут меньше соединений.
var DefaultPool = PoolOptions{MaxOpenConns: 100, MaxIdleConns: 25, ConnMaxLifetime: 5 * time.Minute}

// NewPostgres создаёт подключение к PostgreSQL с заданным DSN.
func NewPostgres(ctx context.Context, dsn string, pool PoolOptions) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(pool.MaxIdleConns)
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)

	return conn, nil
}

// Migration файл миграции и отметка о применении.
type Migration struct {
	Name      string     `db:"name"`
	AppliedAt *time.Time `db:"applied_at"`
}

// RunMigrations применяет новые SQL файлы по порядку имён и возвращает
// имена применённых в этом запуске.
func RunMigrations(ctx context.Context, conn *sqlx.DB, migrationsDir string) ([]string, error) {
	status, err := MigrationStatus(ctx, conn, migrationsDir)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range status {
		if m.AppliedAt != nil {
			continue
		}
		if err := applyMigration(ctx, conn, filepath.Join(migrationsDir, m.Name), m.Name); err != nil {
			return applied, err
		}
		logger.Log.WithField("migration", m.Name).Info("миграция применена")
		applied = append(applied, m.Name)
	}
	return applied, nil
}

// MigrationStatus все файлы каталога с датой применения; неприменённые
// идут с пустой датой.
func MigrationStatus(ctx context.Context, conn *sqlx.DB, migrationsDir string) ([]Migration, error) {
	if err := initMigrationsTable(ctx, conn); err != nil {
		return nil, fmt.Errorf("postgres: не удалось инициализировать таблицу миграций: %w", err)
	}

	files, err := migrationFiles(migrationsDir)
	if err != nil {
		return nil, err
	}

	var rows []Migration
	if err := conn.SelectContext(ctx, &rows, `SELECT name, applied_at FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("postgres: не удалось прочитать таблицу миграций: %w", err)
	}
	appliedAt := make(map[string]*time.Time, len(rows))
	for _, r := range rows {
		appliedAt[r.Name] = r.AppliedAt
	}

	out := make([]Migration, 0, len(files))
	for _, name := range files {
		out = append(out, Migration{Name: name, AppliedAt: appliedAt[name]})
	}
	return out, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось прочитать каталог миграций: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func initMigrationsTable(ctx context.Context, conn *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := conn.ExecContext(ctx, query)
	return err
}

// applyMigration файл и отметка о нём пишутся одной транзакцией.
func applyMigration(ctx context.Context, conn *sqlx.DB, path, name string) error {
	sqlBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("postgres: не удалось прочитать миграцию %s: %w", path, err)
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: не удалось начать транзакцию для миграции %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("postgres: не удалось выполнить миграцию %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("postgres: не удалось отметить миграцию %s как выполненную: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: не удалось зафиксировать транзакцию для миграции %s: %w", name, err)
	}
	return nil
}
