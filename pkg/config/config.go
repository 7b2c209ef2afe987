package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "reparalo"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "REPARALO_DB_DSN"
	EnvDBHost = "REPARALO_DB_HOST"
	EnvDBUser = "REPARALO_DB_USER"
	EnvDBName = "REPARALO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Correos       CorreosConfig
	Tracking      TrackingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REPARALO_APP_ENV" required:"true"`
	Port         string `envconfig:"REPARALO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REPARALO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REPARALO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"REPARALO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"REPARALO_DB_DSN"`
	Driver string `envconfig:"REPARALO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REPARALO_DB_HOST"`
	LegacyPort     int    `envconfig:"REPARALO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REPARALO_DB_USER"`
	LegacyPassword string `envconfig:"REPARALO_DB_PASSWORD"`
	LegacyName     string `envconfig:"REPARALO_DB_NAME"`
	LegacySSLMode  string `envconfig:"REPARALO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REPARALO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REPARALO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REPARALO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REPARALO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REPARALO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REPARALO_REDIS_ADDR"`
	Password     string        `envconfig:"REPARALO_REDIS_PASSWORD"`
	DB           int           `envconfig:"REPARALO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REPARALO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REPARALO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REPARALO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REPARALO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REPARALO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"REPARALO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"REPARALO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"REPARALO_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"REPARALO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"REPARALO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"REPARALO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"REPARALO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"REPARALO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"REPARALO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"REPARALO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"REPARALO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"REPARALO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"REPARALO_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"REPARALO_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"REPARALO_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"REPARALO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"REPARALO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"REPARALO_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"REPARALO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"REPARALO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REPARALO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"REPARALO_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"REPARALO_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"REPARALO_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type MediaConfig struct {
	MaxUploadMB         int `envconfig:"REPARALO_MAX_UPLOAD_MB" default:"20"`
	MaxImagesPerRequest int `envconfig:"REPARALO_MEDIA_MAX_IMAGES_PER_REQUEST" default:"5"`
}

type PubSubConfig struct {
	EventsTopic              string `envconfig:"REPARALO_PUBSUB_EVENTS_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"REPARALO_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"REPARALO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"REPARALO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"REPARALO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CorreosConfig struct {
	BaseURL     string        `envconfig:"REPARALO_CORREOS_BASE_URL" default:"https://api.correosexpress.com"`
	APIKey      string        `envconfig:"REPARALO_CORREOS_API_KEY"`
	HTTPTimeout time.Duration `envconfig:"REPARALO_CORREOS_HTTP_TIMEOUT" default:"10s"`
}

type TrackingConfig struct {
	PollInterval time.Duration `envconfig:"REPARALO_TRACKING_POLL_INTERVAL" default:"5m"`
	BatchSize    int           `envconfig:"REPARALO_TRACKING_BATCH_SIZE" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
