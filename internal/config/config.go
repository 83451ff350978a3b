package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		// AnalysisTimeout bounds one analysis; it must end before the
		// response write deadline so nothing is stored for a dropped reply.
		AnalysisTimeout time.Duration `yaml:"analysisTimeout" validate:"omitempty,ltfield=WriteTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		MaxImageBytes   int           `yaml:"maxImageBytes" validate:"min=0"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver" validate:"oneof=mysql postgres sqlite"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name" validate:"required"`
		SSLMode  string `yaml:"sslMode"`
		// Path is the database file for the sqlite driver.
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint" validate:"required_if=Enabled true"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName" validate:"required_if=Enabled true"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OCR struct {
		// Order lists the strategies to try, e.g. [ocrspace, tesseract].
		Order    []string      `yaml:"order" validate:"min=1,dive,oneof=ocrspace rekognition tesseract"`
		Throttle time.Duration `yaml:"throttle"`

		OCRSpace struct {
			APIKey   string        `yaml:"apiKey"`
			Endpoint string        `yaml:"endpoint"`
			Language string        `yaml:"language"`
			Engine   string        `yaml:"engine"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"ocrspace"`

		Rekognition struct {
			Region  string        `yaml:"region"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"rekognition"`

		Tesseract struct {
			Binary   string        `yaml:"binary"`
			Language string        `yaml:"language"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"tesseract"`
	} `yaml:"ocr"`

	AI struct {
		APIKey     string        `yaml:"apiKey"`
		BaseURL    string        `yaml:"baseURL"`
		Model      string        `yaml:"model"`
		MaxTokens  int           `yaml:"maxTokens"`
		Timeout    time.Duration `yaml:"timeout"`
		JSONSchema bool          `yaml:"jsonSchema"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret string `yaml:"jwtSecret" validate:"required,min=16"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	Cache struct {
		SizeMB     int `yaml:"sizeMB"`
		TTLSeconds int `yaml:"ttlSeconds"`
	} `yaml:"cache"`

	RateLimit struct {
		Burst     int `yaml:"burst"`
		PerSecond int `yaml:"perSecond"`
	} `yaml:"rateLimit"`

	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Load baca file config.yaml, lalu .env dan variabel AURA_*
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the settings used for anything the file leaves out.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 120 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.AnalysisTimeout = 100 * time.Second
	c.Server.MaxImageBytes = 16 << 20

	c.Database.Driver = "mysql"
	c.Database.Host = "localhost"
	c.Database.Port = 3306
	c.Database.Name = "aura"
	c.Database.SSLMode = "disable"
	c.Database.Path = "aura.db"

	c.Minio.Region = "us-east-1"
	c.Minio.BucketName = "aura-images"

	c.OCR.Order = []string{"ocrspace", "tesseract"}
	c.OCR.Throttle = time.Second
	c.OCR.OCRSpace.Timeout = 30 * time.Second
	c.OCR.Rekognition.Timeout = 30 * time.Second
	c.OCR.Tesseract.Binary = "tesseract"
	c.OCR.Tesseract.Language = "eng"
	c.OCR.Tesseract.Timeout = 20 * time.Second

	c.AI.BaseURL = "https://api.groq.com/openai/v1"
	c.AI.Timeout = 60 * time.Second

	c.Auth.Issuer = "aura"

	c.Cache.SizeMB = 8
	c.Cache.TTLSeconds = 60

	c.RateLimit.Burst = 20
	c.RateLimit.PerSecond = 2

	c.Log.Level = "info"
	return &c
}

// applyEnv overrides secrets and endpoints from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, err := strconv.Atoi(strings.TrimSpace(getenv(key))); err == nil {
			*dst = v
		}
	}
	str("AURA_DB_DRIVER", &c.Database.Driver)
	str("AURA_DB_HOST", &c.Database.Host)
	num("AURA_DB_PORT", &c.Database.Port)
	str("AURA_DB_USER", &c.Database.User)
	str("AURA_DB_PASSWORD", &c.Database.Password)
	str("AURA_DB_NAME", &c.Database.Name)
	str("AURA_DB_PATH", &c.Database.Path)
	str("AURA_REDIS_ADDR", &c.Redis.Addr)
	str("AURA_REDIS_PASSWORD", &c.Redis.Password)
	str("AURA_MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("AURA_MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("AURA_OCRSPACE_API_KEY", &c.OCR.OCRSpace.APIKey)
	str("AURA_AI_API_KEY", &c.AI.APIKey)
	str("AURA_AI_BASE_URL", &c.AI.BaseURL)
	str("AURA_AI_MODEL", &c.AI.Model)
	str("AURA_JWT_SECRET", &c.Auth.JWTSecret)
	str("AURA_LOG_LEVEL", &c.Log.Level)
	num("AURA_PORT", &c.Server.Port)
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a postgres:// URL, usable by lib/pq and golang-migrate.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
