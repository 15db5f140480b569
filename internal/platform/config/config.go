package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxUploadBytes      = 10 << 20
	defaultReadHeaderTimeout   = 10 * time.Second
	defaultShutdownTimeout     = 15 * time.Second
	defaultHealthCheckInterval = 10 * time.Second
	defaultTokenTTL            = 120 * time.Minute
	defaultLocalImageDir       = "wwwroot/Images"
	defaultLocalPublicPath     = "/Images/"

	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig は HTTP サーバーとヘルスチェック用 gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr             string        `yaml:"listen_addr" env:"SERVER_LISTEN_ADDR"`
	HealthAddr             string        `yaml:"health_addr" env:"SERVER_HEALTH_ADDR"`
	AllowedOrigins         []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" envSeparator:","`
	MaxUploadBytes         int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES"`
	ReadHeaderTimeout      time.Duration `yaml:"-"`
	ShutdownTimeout        time.Duration `yaml:"-"`
	HealthCheckInterval    time.Duration `yaml:"-"`
	ReadHeaderTimeoutRaw   string        `yaml:"read_header_timeout"`
	ShutdownTimeoutRaw     string        `yaml:"shutdown_timeout"`
	HealthCheckIntervalRaw string        `yaml:"health_check_interval"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host" env:"DATABASE_HOST"`
	Port               int           `yaml:"port" env:"DATABASE_PORT"`
	User               string        `yaml:"user" env:"DATABASE_USER"`
	Password           string        `yaml:"password" env:"DATABASE_PASSWORD"`
	Name               string        `yaml:"name" env:"DATABASE_NAME"`
	SSLMode            string        `yaml:"ssl_mode" env:"DATABASE_SSL_MODE"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// AuthConfig はログイントークンの発行と検証に関する設定です。
type AuthConfig struct {
	Issuer      string        `yaml:"issuer" env:"AUTH_ISSUER"`
	SigningKey  string        `yaml:"signing_key" env:"AUTH_SIGNING_KEY"`
	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl" env:"AUTH_TOKEN_TTL"`
}

// StorageConfig はプロフィール画像の保存先に関する設定です。
type StorageConfig struct {
	Driver string             `yaml:"driver" env:"STORAGE_DRIVER"`
	Local  LocalStorageConfig `yaml:"local"`
	S3     S3StorageConfig    `yaml:"s3"`
}

// LocalStorageConfig はディスク保存時の設定です。
type LocalStorageConfig struct {
	Dir        string `yaml:"dir" env:"STORAGE_LOCAL_DIR"`
	PublicPath string `yaml:"public_path" env:"STORAGE_LOCAL_PUBLIC_PATH"`
}

// S3StorageConfig は S3 互換ストレージへ保存する場合の設定です。
type S3StorageConfig struct {
	Bucket          string `yaml:"bucket" env:"S3_BUCKET"`
	Region          string `yaml:"region" env:"S3_REGION"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Prefix          string `yaml:"prefix" env:"S3_PREFIX"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"S3_USE_PATH_STYLE"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// LoadEnvFiles は存在する .env ファイルだけを環境変数へ読み込み、読み込んだ件数を返します。
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("config: load env files: %w", err)
	}
	return len(existing), nil
}

// Load は指定されたパスから設定ファイルを読み込み、環境変数で上書きします。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: apply env overrides: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Storage.validateAndNormalize(); err != nil {
		return err
	}
	c.Log.normalize()
	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return errors.New("config: server.listen_addr must be set")
	}
	if s.MaxUploadBytes < 0 {
		return errors.New("config: server.max_upload_bytes must not be negative")
	}
	if s.MaxUploadBytes == 0 {
		s.MaxUploadBytes = defaultMaxUploadBytes
	}

	var err error
	if s.ReadHeaderTimeout, err = parseDurationDefault(s.ReadHeaderTimeoutRaw, defaultReadHeaderTimeout); err != nil {
		return fmt.Errorf("config: server.read_header_timeout: %w", err)
	}
	if s.ShutdownTimeout, err = parseDurationDefault(s.ShutdownTimeoutRaw, defaultShutdownTimeout); err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if s.HealthCheckInterval, err = parseDurationDefault(s.HealthCheckIntervalRaw, defaultHealthCheckInterval); err != nil {
		return fmt.Errorf("config: server.health_check_interval: %w", err)
	}
	if s.HealthCheckInterval <= 0 {
		return errors.New("config: server.health_check_interval must be positive")
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return errors.New("config: database.host must be set")
	}
	if d.Port == 0 {
		return errors.New("config: database.port must be set")
	}
	if d.User == "" {
		return errors.New("config: database.user must be set")
	}
	if d.Password == "" {
		return errors.New("config: database.password must be set")
	}
	if d.Name == "" {
		return errors.New("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationDefault(d.ConnMaxLifetimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationDefault(d.ConnMaxIdleTimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if strings.TrimSpace(a.Issuer) == "" {
		return errors.New("config: auth.issuer must be set")
	}
	if a.SigningKey == "" {
		return errors.New("config: auth.signing_key must be set")
	}

	ttl, err := parseDurationDefault(a.TokenTTLRaw, defaultTokenTTL)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}
	a.TokenTTL = ttl
	return nil
}

func (s *StorageConfig) validateAndNormalize() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		s.Driver = StorageDriverLocal
	}

	switch s.Driver {
	case StorageDriverLocal:
		if s.Local.Dir == "" {
			s.Local.Dir = defaultLocalImageDir
		}
		if s.Local.PublicPath == "" {
			s.Local.PublicPath = defaultLocalPublicPath
		}
		if !strings.HasPrefix(s.Local.PublicPath, "/") {
			s.Local.PublicPath = "/" + s.Local.PublicPath
		}
		if !strings.HasSuffix(s.Local.PublicPath, "/") {
			s.Local.PublicPath += "/"
		}
	case StorageDriverS3:
		if s.S3.Bucket == "" {
			return errors.New("config: storage.s3.bucket must be set")
		}
		if s.S3.Region == "" {
			return errors.New("config: storage.s3.region must be set")
		}
		s.S3.Prefix = strings.Trim(s.S3.Prefix, "/")
	default:
		return fmt.Errorf("config: unsupported storage.driver %q", s.Driver)
	}
	return nil
}

func (l *LogConfig) normalize() {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if l.Format == "" {
		l.Format = "json"
	}
}

func parseDurationDefault(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
