package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name    string
	Env     string
	BaseURL string // 邮件里链接的前缀
	HTTP    HTTP
	// CORSOrigins 为空时不开跨域
	CORSOrigins []string
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 为空则只打 stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Auth 内置身份提供方
type Auth struct {
	Secret           string
	Issuer           string
	AccessTTLMin     int
	RefreshTTLHours  int
	RefreshWindowSec int // access token 剩余不足该值时提前刷新
	ResetTTLMin      int
	CookieDomain     string
	CookieSecure     bool
}

func (a Auth) AccessTTL() time.Duration  { return time.Duration(a.AccessTTLMin) * time.Minute }
func (a Auth) RefreshTTL() time.Duration { return time.Duration(a.RefreshTTLHours) * time.Hour }
func (a Auth) RefreshWindow() time.Duration {
	return time.Duration(a.RefreshWindowSec) * time.Second
}
func (a Auth) ResetTTL() time.Duration { return time.Duration(a.ResetTTLMin) * time.Minute }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	ConnMaxIdleMin     int
	AutoMigrate        bool
	LogLevel           string
}

// Mail SMTP；Host 为空时邮件只写日志
type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Workers  int64
	Queue    int64 // 排队上限，满了直接丢弃
}

type Cache struct {
	CategoryTTLSec int
}

func (c Cache) CategoryTTL() time.Duration { return time.Duration(c.CategoryTTLSec) * time.Second }

// Limits RPS/Burst 按客户端 IP，Global* 是整个进程的上限
type Limits struct {
	RPS           float64
	Burst         int
	GlobalRPS     float64
	GlobalBurst   int
	MaxConcurrent int64
	MaxBodyBytes  int64
	TimeoutSec    int
}

type Config struct {
	App    App
	Log    Log
	Auth   Auth
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Mail   Mail
	Cache  Cache
	Limits Limits
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ecosol")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.baseurl", "http://127.0.0.1:8080")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 10)
	v.SetDefault("app.http.writetimeoutsec", 15)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 14)
	v.SetDefault("auth.issuer", "ecosol")
	v.SetDefault("auth.accessttlmin", 60)
	v.SetDefault("auth.refreshttlhours", 24*30)
	v.SetDefault("auth.refreshwindowsec", 300)
	v.SetDefault("auth.resetttlmin", 30)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.connmaxidlemin", 5)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "Ecosol <no-reply@ecosol.local>")
	v.SetDefault("mail.workers", 4)
	v.SetDefault("mail.queue", 256)
	v.SetDefault("cache.categoryttlsec", 60)
	v.SetDefault("limits.rps", 20)
	v.SetDefault("limits.burst", 40)
	v.SetDefault("limits.globalrps", 200)
	v.SetDefault("limits.globalburst", 400)
	v.SetDefault("limits.maxconcurrent", 256)
	v.SetDefault("limits.maxbodybytes", 1<<20)
	v.SetDefault("limits.timeoutsec", 15)
}

// Load 读 YAML，APP_ 前缀环境变量覆盖（APP_AUTH_SECRET → auth.secret）
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}

func (c *Config) validate() error {
	if len(c.Auth.Secret) < 16 {
		return errors.New("auth.secret must be at least 16 bytes")
	}
	if c.DB.DSN == "" {
		return errors.New("db.dsn is required")
	}
	return nil
}
