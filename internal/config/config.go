package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Valhalla ValhallaConfig
	Routing  RoutingConfig
	Editor   EditorConfig
	Worker   WorkerConfig
	Export   ExportConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string

	// CORSOrigins - список origin через запятую
	CORSOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// MigrationsDir - каталог с *.up.sql, применяемыми при старте API; пустой отключает
	MigrationsDir   string
}

// DSN строка подключения для драйвера pgx
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level string
}

// ValhallaConfig - движок маршрутизации
type ValhallaConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// RoutingConfig - профиль велосипеда по умолчанию и кеш результатов
type RoutingConfig struct {
	BicycleType string
	UseHills    float64
	UseRoads    float64
	CacheTTL    time.Duration
}

// EditorConfig - параметры сессий редактора
type EditorConfig struct {
	DirectMode   bool
	HistoryLimit int
	SessionTTL   time.Duration
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

type ExportConfig struct {
	Dir string
}

// Load читает .env (если он есть) и переменные окружения
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("API_HOST"),
			Port: v.GetInt("API_PORT"),
			Env:  v.GetString("API_ENV"),

			CORSOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
			MigrationsDir:   v.GetString("DB_MIGRATIONS_DIR"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Valhalla: ValhallaConfig{
			BaseURL:        v.GetString("VALHALLA_URL"),
			RequestTimeout: time.Duration(v.GetInt("VALHALLA_TIMEOUT")) * time.Second,
		},
		Routing: RoutingConfig{
			BicycleType: v.GetString("ROUTING_BICYCLE_TYPE"),
			UseHills:    v.GetFloat64("ROUTING_USE_HILLS"),
			UseRoads:    v.GetFloat64("ROUTING_USE_ROADS"),
			CacheTTL:    time.Duration(v.GetInt("ROUTING_CACHE_TTL")) * time.Second,
		},
		Editor: EditorConfig{
			DirectMode:   v.GetBool("EDITOR_DIRECT_MODE"),
			HistoryLimit: v.GetInt("EDITOR_HISTORY_LIMIT"),
			SessionTTL:   time.Duration(v.GetInt("EDITOR_SESSION_TTL")) * time.Second,
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(v.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        v.GetInt("WORKER_MAX_RETRIES"),
		},
		Export: ExportConfig{
			Dir: v.GetString("EXPORT_DIR"),
		},
	}

	// Set default values if not provided
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CORSOrigins == "" {
		cfg.Server.CORSOrigins = "http://localhost:3000,http://localhost:5173"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Valhalla.BaseURL == "" {
		cfg.Valhalla.BaseURL = "http://localhost:8002"
	}
	if cfg.Valhalla.RequestTimeout == 0 {
		cfg.Valhalla.RequestTimeout = 30 * time.Second
	}
	if cfg.Routing.BicycleType == "" {
		cfg.Routing.BicycleType = "Road"
	}
	if !v.IsSet("ROUTING_USE_HILLS") {
		cfg.Routing.UseHills = 0.5
	}
	if !v.IsSet("ROUTING_USE_ROADS") {
		cfg.Routing.UseRoads = 0.5
	}
	if cfg.Routing.CacheTTL == 0 {
		cfg.Routing.CacheTTL = 24 * time.Hour
	}
	if cfg.Editor.SessionTTL == 0 {
		cfg.Editor.SessionTTL = 2 * time.Hour
	}
	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "route-export-workers"
	}
	if cfg.Worker.StreamReadTimeout == 0 {
		cfg.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "data/exports"
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

func (c *Config) GetRedisAddr() string {
	return c.Redis.Addr()
}
