// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"vrpdfd/pkg/apperror"
)

// Config - главная структура конфигурации
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
	TSP     TSPConfig     `koanf:"tsp"`
	Cache   CacheConfig   `koanf:"cache"`
	Batch   BatchConfig   `koanf:"batch"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// TSPConfig - параметры решателя TSP
type TSPConfig struct {
	HeldKarpLimit int           `koanf:"held_karp_limit"`
	Precision     int           `koanf:"precision"` // < 0 отключает округление
	Heuristic     string        `koanf:"heuristic"` // two_opt, genetic
	Population    int           `koanf:"population"`
	Generations   int           `koanf:"generations"`
	MutationRate  float64       `koanf:"mutation_rate"`
	Seed          uint64        `koanf:"seed"`
	TimeLimit     time.Duration `koanf:"time_limit"` // 0 - без ограничения
	Fake          bool          `koanf:"fake"`       // заглушка вместо оптимизации
}

// CacheConfig - мемоизация маршрутов и туров
type CacheConfig struct {
	RouteCapacity        int `koanf:"route_capacity"`
	RouteRefineThreshold int `koanf:"route_refine_threshold"`
	TourCapacity         int `koanf:"tour_capacity"` // 0 отключает кэш туров
}

// BatchConfig - пакетное решение
type BatchConfig struct {
	Workers int `koanf:"workers"`
}

// Validate проверяет конфигурацию; предупреждения Check не считаются ошибкой
func (c *Config) Validate() error {
	return c.Check().Err("configuration validation failed")
}

// Check собирает все ошибки и предупреждения конфигурации. Пустой
// log.level заменяется на info.
func (c *Config) Check() *apperror.ValidationErrors {
	v := apperror.NewValidationErrors()
	fail := func(field, format string, args ...any) {
		v.AddErrorWithField(apperror.CodeInvalidArgument, fmt.Sprintf(format, args...), field)
	}

	if c.App.Name == "" {
		fail("app.name", "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		fail("log.level", "log.level must be one of: debug, info, warn, error, got %s", c.Log.Level)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		fail("tracing.sample_rate", "tracing.sample_rate must be within [0, 1], got %g", c.Tracing.SampleRate)
	} else if c.Tracing.Enabled && c.Tracing.SampleRate == 0 {
		v.AddWarning(apperror.CodeInvalidArgument, "tracing is enabled but tracing.sample_rate is 0, no spans will be recorded")
	}

	// Валидация TSP
	if c.TSP.HeldKarpLimit < 0 || c.TSP.HeldKarpLimit > 20 {
		fail("tsp.held_karp_limit", "tsp.held_karp_limit must be between 0 and 20, got %d", c.TSP.HeldKarpLimit)
	}

	validHeuristics := map[string]bool{"two_opt": true, "genetic": true}
	if !validHeuristics[c.TSP.Heuristic] {
		fail("tsp.heuristic", "tsp.heuristic must be one of: two_opt, genetic, got %s", c.TSP.Heuristic)
	}

	if c.TSP.Population < 2 {
		fail("tsp.population", "tsp.population must be at least 2, got %d", c.TSP.Population)
	}
	if c.TSP.Generations < 0 {
		fail("tsp.generations", "tsp.generations must be non-negative")
	} else if c.TSP.Generations == 0 && c.TSP.Heuristic == "genetic" {
		v.AddWarning(apperror.CodeInvalidArgument, "tsp.generations is 0, the genetic heuristic returns its seeded tours unchanged")
	}
	if c.TSP.MutationRate < 0 || c.TSP.MutationRate > 1 {
		fail("tsp.mutation_rate", "tsp.mutation_rate must be within [0, 1], got %g", c.TSP.MutationRate)
	}
	if c.TSP.TimeLimit < 0 {
		fail("tsp.time_limit", "tsp.time_limit must be non-negative")
	}
	if c.TSP.Fake && c.IsProduction() {
		v.AddWarning(apperror.CodeInvalidArgument, "tsp.fake is enabled in production, tours are not optimised")
	}

	if c.Cache.RouteCapacity < 0 {
		fail("cache.route_capacity", "cache.route_capacity must be non-negative")
	}
	if c.Cache.RouteRefineThreshold < 0 {
		fail("cache.route_refine_threshold", "cache.route_refine_threshold must be non-negative")
	}
	if c.Cache.TourCapacity < 0 {
		fail("cache.tour_capacity", "cache.tour_capacity must be non-negative")
	}

	if c.Batch.Workers <= 0 {
		fail("batch.workers", "batch.workers must be positive, got %d", c.Batch.Workers)
	}

	return v
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
