package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Storage StorageConfig `mapstructure:"storage"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Session SessionConfig `mapstructure:"session"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Minio   MinioConfig   `mapstructure:"minio"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
}

type GatewayConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Swagger         bool          `mapstructure:"swagger"`
}

func (c *GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

const (
	DriverMongoDB = "mongodb"
	DriverMySQL   = "mysql"
	DriverMemory  = "memory"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type MongoDBConfig struct {
	URI             string        `mapstructure:"uri"`
	Database        string        `mapstructure:"database"`
	AuditCollection string        `mapstructure:"audit_collection"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type SessionConfig struct {
	Store      string        `mapstructure:"store"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	LeaseTTL    int64         `mapstructure:"lease_ttl"`
}

func (c *EtcdConfig) Enabled() bool {
	return len(c.Endpoints) > 0
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

func (c *MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

type GRPCConfig struct {
	Port int `mapstructure:"port"`
}

// AdminConfig describes the account created at startup when no user with
// that email exists yet.
type AdminConfig struct {
	Email     string `mapstructure:"email"`
	Password  string `mapstructure:"password"`
	Firstname string `mapstructure:"firstname"`
	Lastname  string `mapstructure:"lastname"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "storefront")
	v.SetDefault("server.host", "127.0.0.1")

	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 3000)
	v.SetDefault("gateway.allowed_origins", []string{"http://127.0.0.1:5500"})
	v.SetDefault("gateway.read_timeout", 15*time.Second)
	v.SetDefault("gateway.write_timeout", 15*time.Second)
	v.SetDefault("gateway.shutdown_timeout", 10*time.Second)
	v.SetDefault("gateway.swagger", true)

	v.SetDefault("storage.driver", DriverMongoDB)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "frozen")
	v.SetDefault("mongodb.audit_collection", "audit_logs")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.username", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "frozen")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 50)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("session.store", SessionStoreRedis)
	v.SetDefault("session.cookie_name", "session_id")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.key_prefix", "session:")
	v.SetDefault("session.secure", false)

	v.SetDefault("etcd.endpoints", []string{})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.prefix", "/services/")
	v.SetDefault("etcd.lease_ttl", 30)

	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "product-images")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.public_url", "")

	v.SetDefault("grpc.port", 0)

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.firstname", "Store")
	v.SetDefault("admin.lastname", "Admin")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
}

// Load reads the YAML file at configPath, layering defaults underneath and
// STOREFRONT_* environment variables on top. A missing file is not an error
// so the service can run from environment alone.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongoDB, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Session.Store {
	case SessionStoreRedis, SessionStoreMemory:
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Gateway.Port <= 0 {
		return errors.New("gateway.port must be positive")
	}
	if c.Admin.Email != "" && c.Admin.Password == "" {
		return errors.New("admin.password is required when admin.email is set")
	}

	return nil
}
