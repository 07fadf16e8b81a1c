package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMemory   = "memory"
	DriverYAML     = "yaml"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type AppConfig struct {
	HTTPPort  string
	Env       string
	LogLevel  string
	LogFormat string
	OpsToken  string

	Discord  DiscordConfig
	Observer ObserverConfig

	DBDriver    string
	DatabaseDSN string
	DataFile    string
	Postgres    PostgresConfig

	SessionStore string
	RedisURL     string

	NATS               NATSConfig
	EventsWebhookURL   string
	EventsWebhookToken string
	EventLogDir        string

	Storage StorageConfig
}

type DiscordConfig struct {
	Token            string
	MessageCacheSize int
}

// ObserverConfig agrupa os parâmetros do núcleo (resolver, differ, auditoria, sessões).
type ObserverConfig struct {
	ChannelName          string
	RequireAdmin         bool
	IgnoredVoiceChannels []string
	DiffInterval         time.Duration
	DiffConcurrency      int
	SweepInterval        time.Duration
	SessionMaxAge        time.Duration
	AuditLimit           int
	AuditTimeout         time.Duration
	AuditFreshness       time.Duration
	ChannelOpTimeout     time.Duration
	SendRetries          int
	QueueDepth           int
	AttachmentMaxSize    int64
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string
}

func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

// Load reads the environment and reports every malformed value at once.
func Load() (*AppConfig, error) {
	p := &parser{}

	pg := PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		DBName:   getEnv("POSTGRES_DB", ""),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}

	storage := StorageConfig{
		Endpoint:  getEnv("STORAGE_ENDPOINT", getEnv("MINIO_ENDPOINT", "")),
		AccessKey: getEnv("STORAGE_ACCESS_KEY", getEnv("MINIO_ACCESS_KEY", "")),
		SecretKey: getEnv("STORAGE_SECRET_KEY", getEnv("MINIO_SECRET_KEY", "")),
		Bucket:    getEnv("STORAGE_BUCKET", getEnv("MINIO_BUCKET", "")),
		Region:    getEnv("STORAGE_REGION", getEnv("MINIO_REGION", "")),
		UseSSL:    p.boolVar("STORAGE_USE_SSL", p.boolVar("MINIO_USE_SSL", false)),
		PublicURL: getEnv("STORAGE_PUBLIC_URL", getEnv("MINIO_PUBLIC_URL", "")),
	}

	dsn := getEnv("DATABASE_DSN", "")
	driver := strings.ToLower(getEnv("DB_DRIVER", ""))
	if driver == "" {
		switch {
		case strings.HasPrefix(strings.ToLower(dsn), "postgres"):
			driver = DriverPostgres
		case pg.Host != "":
			driver = DriverPostgres
		default:
			driver = DriverYAML
		}
	}
	switch driver {
	case DriverPostgres:
		if dsn == "" {
			dsn = buildPostgresDSN(pg)
		}
	case DriverSQLite:
		if dsn == "" {
			dsn = "file:observer.db"
		}
	}

	sessionStore := strings.ToLower(getEnv("SESSION_STORE", ""))
	redisURL := getEnv("REDIS_URL", "")
	if sessionStore == "" {
		sessionStore = SessionStoreMemory
		if redisURL != "" {
			sessionStore = SessionStoreRedis
		}
	}

	cfg := &AppConfig{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		Env:       getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		OpsToken:  getEnv("OPS_TOKEN", ""),
		Discord: DiscordConfig{
			Token:            strings.TrimSpace(getEnv("DISCORD_TOKEN", "")),
			MessageCacheSize: p.intVar("MESSAGE_CACHE_SIZE", 1000),
		},
		Observer: ObserverConfig{
			ChannelName:          getEnv("LOG_CHANNEL_NAME", "observer"),
			RequireAdmin:         p.boolVar("REQUIRE_ADMIN", false),
			IgnoredVoiceChannels: splitList(getEnv("VOICE_IGNORED_CHANNELS", "")),
			DiffInterval:         p.durationVar("DIFF_INTERVAL", 60*time.Second),
			DiffConcurrency:      p.intVar("DIFF_CONCURRENCY", 4),
			SweepInterval:        p.durationVar("SWEEP_INTERVAL", 10*time.Minute),
			SessionMaxAge:        p.durationVar("SESSION_MAX_AGE", time.Hour),
			AuditLimit:           clamp(p.intVar("AUDIT_LOOKUP_LIMIT", 5), 1, 100),
			AuditTimeout:         p.durationVar("AUDIT_TIMEOUT", 5*time.Second),
			AuditFreshness:       p.durationVar("AUDIT_FRESHNESS", 2*time.Minute),
			ChannelOpTimeout:     p.durationVar("CHANNEL_OP_TIMEOUT", 10*time.Second),
			SendRetries:          p.intVar("SEND_RETRIES", 2),
			QueueDepth:           p.intVar("GUILD_QUEUE_DEPTH", 256),
			AttachmentMaxSize:    int64(p.intVar("ATTACHMENT_MAX_BYTES", 25<<20)),
		},
		DBDriver:     driver,
		DatabaseDSN:  dsn,
		DataFile:     getEnv("DATA_FILE", "data.yaml"),
		Postgres:     pg,
		SessionStore: sessionStore,
		RedisURL:     redisURL,
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "observer.events"),
		},
		EventsWebhookURL:   strings.TrimSpace(getEnv("EVENTS_WEBHOOK_URL", "")),
		EventsWebhookToken: getEnv("EVENTS_WEBHOOK_TOKEN", ""),
		EventLogDir:        getEnv("EVENT_LOG_DIR", ""),
		Storage:            storage,
	}
	return cfg, p.err()
}

// Validate checks cross-field requirements.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Discord.Token == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN required"))
	}
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT required"))
	}
	switch c.DBDriver {
	case DriverMemory, DriverYAML, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN required for postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q not supported", c.DBDriver))
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required for redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE %q not supported", c.SessionStore))
	}
	if c.Observer.DiffInterval <= 0 {
		errs = append(errs, errors.New("DIFF_INTERVAL must be positive"))
	}
	if c.Observer.SweepInterval <= 0 || c.Observer.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL and SESSION_MAX_AGE must be positive"))
	}
	if c.Observer.SendRetries < 0 {
		errs = append(errs, errors.New("SEND_RETRIES must not be negative"))
	}
	if strings.TrimSpace(c.Observer.ChannelName) == "" {
		errs = append(errs, errors.New("LOG_CHANNEL_NAME must not be blank"))
	}
	return errors.Join(errs...)
}

func buildPostgresDSN(pg PostgresConfig) string {
	host := pg.Host
	if host == "" {
		host = "localhost"
	}
	port := pg.Port
	if port == "" {
		port = "5432"
	}
	ssl := pg.SSLMode
	if ssl == "" {
		ssl = "disable"
	}

	u := &url.URL{Scheme: "postgres", Host: fmt.Sprintf("%s:%s", host, port)}
	if pg.User != "" {
		if pg.Password != "" {
			u.User = url.UserPassword(pg.User, pg.Password)
		} else {
			u.User = url.User(pg.User)
		}
	}
	if pg.DBName != "" {
		u.Path = pg.DBName
	}
	q := u.Query()
	q.Set("sslmode", ssl)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	errs []error
}

func (p *parser) err() error { return errors.Join(p.errs...) }

func (p *parser) intVar(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) boolVar(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) durationVar(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func MustLoad() *AppConfig {
	cfg, err := Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}
