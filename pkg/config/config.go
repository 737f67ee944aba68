package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Uploads      UploadsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	RateLimit    RateLimitConfig
	Resilience   ResilienceConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Uploads.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"TRUCKLOGISTICS_APP_ENV" required:"true"`
	Port            string        `envconfig:"TRUCKLOGISTICS_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"TRUCKLOGISTICS_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"TRUCKLOGISTICS_LOG_FORMAT" default:"json"`
	LogWarnStack    bool          `envconfig:"TRUCKLOGISTICS_LOG_WARN_STACK" default:"false"`
	ReadTimeout     time.Duration `envconfig:"TRUCKLOGISTICS_HTTP_READ_TIMEOUT" default:"5m"`
	WriteTimeout    time.Duration `envconfig:"TRUCKLOGISTICS_HTTP_WRITE_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"TRUCKLOGISTICS_HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
	CORSOrigins     []string      `envconfig:"TRUCKLOGISTICS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TRUCKLOGISTICS_DB_DSN"`

	Host     string `envconfig:"TRUCKLOGISTICS_DB_HOST"`
	Port     int    `envconfig:"TRUCKLOGISTICS_DB_PORT" default:"5432"`
	User     string `envconfig:"TRUCKLOGISTICS_DB_USER"`
	Password string `envconfig:"TRUCKLOGISTICS_DB_PASSWORD"`
	Name     string `envconfig:"TRUCKLOGISTICS_DB_NAME"`
	SSLMode  string `envconfig:"TRUCKLOGISTICS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRUCKLOGISTICS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRUCKLOGISTICS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRUCKLOGISTICS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRUCKLOGISTICS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRUCKLOGISTICS_REDIS_URL"`
	Address      string        `envconfig:"TRUCKLOGISTICS_REDIS_ADDR"`
	Password     string        `envconfig:"TRUCKLOGISTICS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRUCKLOGISTICS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRUCKLOGISTICS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRUCKLOGISTICS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRUCKLOGISTICS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRUCKLOGISTICS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRUCKLOGISTICS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig describes the tokens minted by the external auth service.
type JWTConfig struct {
	Secret string `envconfig:"TRUCKLOGISTICS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"TRUCKLOGISTICS_JWT_ISSUER" required:"true"`
}

type StorageConfig struct {
	UploadRoot    string `envconfig:"TRUCKLOGISTICS_UPLOAD_ROOT" default:"uploads/trucks"`
	PublicBaseURL string `envconfig:"TRUCKLOGISTICS_UPLOAD_PUBLIC_BASE_URL" default:"/uploads"`
}

type UploadsConfig struct {
	MaxImageMB          int `envconfig:"TRUCKLOGISTICS_UPLOAD_MAX_IMAGE_MB" default:"5"`
	MaxDocumentMB       int `envconfig:"TRUCKLOGISTICS_UPLOAD_MAX_DOCUMENT_MB" default:"10"`
	MaxFilesPerRequest  int `envconfig:"TRUCKLOGISTICS_UPLOAD_MAX_FILES" default:"20"`
	MaxImages           int `envconfig:"TRUCKLOGISTICS_UPLOAD_MAX_IMAGES" default:"10"`
	MaxAdditionalDocs   int `envconfig:"TRUCKLOGISTICS_UPLOAD_MAX_ADDITIONAL_DOCS" default:"5"`
	StoreConcurrency    int `envconfig:"TRUCKLOGISTICS_UPLOAD_STORE_CONCURRENCY" default:"4"`
	MaxMultipartMemoryM int `envconfig:"TRUCKLOGISTICS_UPLOAD_MULTIPART_MEMORY_MB" default:"32"`
}

func (u UploadsConfig) validate() error {
	switch {
	case u.MaxImageMB <= 0, u.MaxDocumentMB <= 0:
		return fmt.Errorf("upload size ceilings must be positive")
	case u.MaxFilesPerRequest <= 0:
		return fmt.Errorf("upload file count ceiling must be positive")
	case u.MaxAdditionalDocs < 0, u.MaxImages < 0:
		return fmt.Errorf("upload bucket ceilings cannot be negative")
	}
	return nil
}

// GCPConfig carries the credentials shared by the GCS and Pub/Sub clients.
type GCPConfig struct {
	ProjectID              string `envconfig:"TRUCKLOGISTICS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TRUCKLOGISTICS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TRUCKLOGISTICS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string        `envconfig:"TRUCKLOGISTICS_GCS_BUCKET_NAME"`
	BaseURL    string        `envconfig:"TRUCKLOGISTICS_GCS_BASE_URL" default:"https://storage.googleapis.com"`
	Timeout    time.Duration `envconfig:"TRUCKLOGISTICS_GCS_TIMEOUT" default:"60s"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"TRUCKLOGISTICS_PUBSUB_NOTIFICATION_TOPIC"`
}

// Enabled reports whether notification events should also be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.NotificationTopic) != ""
}

type RateLimitConfig struct {
	UploadWindow time.Duration `envconfig:"TRUCKLOGISTICS_RATE_LIMIT_UPLOAD_WINDOW" default:"15m"`
	UploadLimit  int           `envconfig:"TRUCKLOGISTICS_RATE_LIMIT_UPLOAD_LIMIT" default:"50"`
}

type ResilienceConfig struct {
	RetryMaxAttempts    int           `envconfig:"TRUCKLOGISTICS_RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff time.Duration `envconfig:"TRUCKLOGISTICS_RETRY_INITIAL_BACKOFF" default:"100ms"`
	RetryMaxBackoff     time.Duration `envconfig:"TRUCKLOGISTICS_RETRY_MAX_BACKOFF" default:"1s"`
	BreakerEnabled      bool          `envconfig:"TRUCKLOGISTICS_BREAKER_ENABLED" default:"true"`
	BreakerMinRequests  uint32        `envconfig:"TRUCKLOGISTICS_BREAKER_MIN_REQUESTS" default:"10"`
	BreakerFailureRatio float64       `envconfig:"TRUCKLOGISTICS_BREAKER_FAILURE_RATIO" default:"0.5"`
	BreakerOpenTimeout  time.Duration `envconfig:"TRUCKLOGISTICS_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRUCKLOGISTICS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
