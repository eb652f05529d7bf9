// Package testhelpers поднимает соединение с тестовой базой для интеграционных тестов
package testhelpers

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/repository/postgres"
	"go.uber.org/zap"
)

// MigrationsDir - путь к миграциям относительно internal/repository/postgres
const MigrationsDir = "../../../migrations"

// TestDB - соединение с тестовой базой
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
}

// testConfig читает TEST_DB_* с значениями по умолчанию для docker-compose
func testConfig() config.DatabaseConfig {
	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5433"))
	if err != nil {
		port = 5433
	}
	return config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBName:   getEnv("TEST_DB_NAME", "route_planner_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// SetupTestDB подключается к тестовой базе и применяет миграции.
// Если база недоступна, тест пропускается.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	dsn := testConfig().DSN()

	var (
		db  *sqlx.DB
		err error
	)
	retryDelay := 200 * time.Millisecond
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			t.Logf("Database not ready (attempt %d/%d), waiting %v...", i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}
	if err != nil {
		t.Skipf("Test database not available after %d attempts: %v", maxRetries, err)
	}

	tdb := &TestDB{DB: db, Logger: zap.NewNop()}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := tdb.Wrap().Migrate(ctx, MigrationsDir); err != nil {
		db.Close()
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return tdb
}

// Wrap возвращает postgres.DB поверх тестового соединения
func (tdb *TestDB) Wrap() *postgres.DB {
	return postgres.NewDBForTest(tdb.DB, tdb.Logger)
}

// RouteRepository создает репозиторий маршрутов на тестовой базе
func (tdb *TestDB) RouteRepository() repository.RouteRepository {
	return postgres.NewRouteRepository(tdb.Wrap())
}

// Cleanup очищает таблицы между тестами
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	_, err := tdb.DB.ExecContext(ctx, "TRUNCATE TABLE routes")
	return err
}

func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
