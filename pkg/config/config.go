package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Market       MarketConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Market.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKTKORB_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKTKORB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKTKORB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKTKORB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKTKORB_DB_DSN" required:"true"`
	Driver string `envconfig:"MARKTKORB_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"MARKTKORB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKTKORB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKTKORB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKTKORB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKTKORB_REDIS_URL"`
	Address      string        `envconfig:"MARKTKORB_REDIS_ADDR"`
	Password     string        `envconfig:"MARKTKORB_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKTKORB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKTKORB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKTKORB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKTKORB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKTKORB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKTKORB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MARKTKORB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MARKTKORB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MARKTKORB_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"MARKTKORB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKTKORB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKTKORB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKTKORB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKTKORB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKTKORB_ARGON_KEY_LEN" default:"32"`
}

// MarketConfig holds the weekly pickup cadence. Orders are picked up on
// PickupWeekday; they can be created, edited, or cancelled until
// CutoffWeekday at CutoffHour:CutoffMinute in the week of the pickup.
type MarketConfig struct {
	ID              string `envconfig:"MARKTKORB_MARKET_ID"`
	PickupWeekday   string `envconfig:"MARKTKORB_MARKET_PICKUP_WEEKDAY" default:"friday"`
	CutoffWeekday   string `envconfig:"MARKTKORB_MARKET_CUTOFF_WEEKDAY" default:"tuesday"`
	CutoffHour      int    `envconfig:"MARKTKORB_MARKET_CUTOFF_HOUR" default:"23"`
	CutoffMinute    int    `envconfig:"MARKTKORB_MARKET_CUTOFF_MINUTE" default:"59"`
	Timezone        string `envconfig:"MARKTKORB_MARKET_TIMEZONE" default:"Europe/Berlin"`
	PickupDateCount int    `envconfig:"MARKTKORB_MARKET_PICKUP_DATE_COUNT" default:"4"`
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday converts a lowercase weekday name into a time.Weekday.
func ParseWeekday(value string) (time.Weekday, error) {
	day, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", value)
	}
	return day, nil
}

// PickupDay returns the configured pickup weekday.
func (m MarketConfig) PickupDay() time.Weekday {
	day, _ := ParseWeekday(m.PickupWeekday)
	return day
}

// CutoffDay returns the configured cutoff weekday.
func (m MarketConfig) CutoffDay() time.Weekday {
	day, _ := ParseWeekday(m.CutoffWeekday)
	return day
}

// Location resolves the configured market timezone.
func (m MarketConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading market timezone: %w", err)
	}
	return loc, nil
}

// MarketID parses the configured market identifier; unset yields uuid.Nil.
func (m MarketConfig) MarketID() uuid.UUID {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (m MarketConfig) validate() error {
	if m.ID != "" {
		if _, err := uuid.Parse(m.ID); err != nil {
			return fmt.Errorf("invalid market id: %w", err)
		}
	}
	if _, err := ParseWeekday(m.PickupWeekday); err != nil {
		return fmt.Errorf("pickup weekday: %w", err)
	}
	if _, err := ParseWeekday(m.CutoffWeekday); err != nil {
		return fmt.Errorf("cutoff weekday: %w", err)
	}
	if m.CutoffHour < 0 || m.CutoffHour > 23 {
		return fmt.Errorf("cutoff hour %d out of range", m.CutoffHour)
	}
	if m.CutoffMinute < 0 || m.CutoffMinute > 59 {
		return fmt.Errorf("cutoff minute %d out of range", m.CutoffMinute)
	}
	if m.PickupDateCount <= 0 {
		return fmt.Errorf("pickup date count must be positive")
	}
	if _, err := m.Location(); err != nil {
		return err
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MARKTKORB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MARKTKORB_AUTO_MIGRATE" default:"false"`
}
