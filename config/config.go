package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 應用全域設定
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Chatbot  ChatbotConfig  `mapstructure:"chatbot"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 伺服器設定
type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	BaseURL   string     `mapstructure:"base_url"`
	BodyLimit int64      `mapstructure:"body_limit"` // 請求體上限（位元組）
	CORS      CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域設定
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 資料庫設定
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分鐘
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分鐘
}

// DSN 產生 PostgreSQL 連線字串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 認證設定
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	// RootPassword 最高權限帳號（員工編號 1）初始密碼；留空時啟動會產生臨時密碼
	RootPassword string          `mapstructure:"root_password"`
	LoginLimit   RateLimitConfig `mapstructure:"login_limit"`
}

// RateLimitConfig 滑動視窗限流設定
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ChatbotConfig 聊天助理（外部補全 API）設定
type ChatbotConfig struct {
	BaseURL      string          `mapstructure:"base_url"`
	APIKey       string          `mapstructure:"api_key"`
	Model        string          `mapstructure:"model"`
	Timeout      time.Duration   `mapstructure:"timeout"`
	HistoryLimit int             `mapstructure:"history_limit"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// KafkaConfig 銷售事件發布設定
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// SeedConfig 範例資料設定
type SeedConfig struct {
	SampleData bool `mapstructure:"sample_data"`
}

// LogConfig 日誌設定
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 從設定檔與環境變數載入設定
// 優先序：環境變數 > 設定檔 > 預設值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 預設值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "sales")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Taipei")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "30m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.root_password", "")
	v.SetDefault("auth.login_limit.requests", 10)
	v.SetDefault("auth.login_limit.window", "1m")

	v.SetDefault("chatbot.base_url", "https://api.deepseek.com/chat/completions")
	v.SetDefault("chatbot.api_key", "")
	v.SetDefault("chatbot.model", "deepseek-chat")
	v.SetDefault("chatbot.timeout", "30s")
	v.SetDefault("chatbot.history_limit", 50)
	v.SetDefault("chatbot.rate_limit.requests", 20)
	v.SetDefault("chatbot.rate_limit.window", "1m")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic", "sales-events")

	v.SetDefault("seed.sample_data", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 設定檔 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 環境變數 ──
	v.SetEnvPrefix("SALES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("讀取設定檔失敗: %w", err)
		}
		// 沒有設定檔時僅依賴預設值與環境變數
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析設定失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校驗關鍵設定
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("設定校驗失敗: auth.jwt_secret 不能為空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("設定校驗失敗: auth.jwt_secret 長度不能少於 16 字元")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("設定校驗失敗: server.port 必須在 1-65535 之間")
	}
	if c.Chatbot.Timeout <= 0 {
		return fmt.Errorf("設定校驗失敗: chatbot.timeout 必須大於 0")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("設定校驗失敗: 啟用 kafka 時 kafka.brokers 不能為空")
	}
	return nil
}
