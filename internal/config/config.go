// Package config loads service configuration with Viper. Values come from an
// optional YAML file overridden by environment variables (dots become
// underscores, e.g. mongo.hosts -> MONGO_HOSTS). Everything is read once at
// process start; there is no hot reload.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Env                 string `mapstructure:"env"`
	Port                int    `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds"`
}

type MongoCfg struct {
	Hosts          string            `mapstructure:"hosts"`
	User           string            `mapstructure:"user"`
	Password       string            `mapstructure:"password"`
	Database       string            `mapstructure:"db"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	Options        map[string]string `mapstructure:"options"`
}

type RedisCfg struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type KafkaCfg struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type JWTCfg struct {
	Secret            string `mapstructure:"secret"`
	Algorithm         string `mapstructure:"algorithm"`
	AccessTTLMinutes  int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLMinutes int    `mapstructure:"refresh_ttl_minutes"`
}

type ApifyCfg struct {
	Token               string `mapstructure:"token"`
	BaseURL             string `mapstructure:"base_url"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	PollTimeoutSeconds  int    `mapstructure:"poll_timeout_seconds"`
	FacebookActor       string `mapstructure:"facebook_actor"`
	TiktokActor         string `mapstructure:"tiktok_actor"`
	TwitterActor        string `mapstructure:"twitter_actor"`
	InstagramActor      string `mapstructure:"instagram_actor"`
	YoutubeActor        string `mapstructure:"youtube_actor"`
	GoogleActor         string `mapstructure:"google_actor"`
}

type NewsAPICfg struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
}

type SMTPCfg struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"`
}

// ServicesCfg holds the base URLs the services use to validate resources
// against each other (roles, projects, users, sentiment forwarding).
type ServicesCfg struct {
	AuthURL    string `mapstructure:"auth_url"`
	ParamsURL  string `mapstructure:"params_url"`
	ProjectURL string `mapstructure:"project_url"`
	AnalyseURL string `mapstructure:"analyse_url"`
}

type ReportCfg struct {
	TemplateDir string `mapstructure:"template_dir"`
	FontPath    string `mapstructure:"font_path"`
}

type RateLimitCfg struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type Config struct {
	App       AppCfg       `mapstructure:"app"`
	Mongo     MongoCfg     `mapstructure:"mongo"`
	Redis     RedisCfg     `mapstructure:"redis"`
	Kafka     KafkaCfg     `mapstructure:"kafka"`
	JWT       JWTCfg       `mapstructure:"jwt"`
	Apify     ApifyCfg     `mapstructure:"apify"`
	NewsAPI   NewsAPICfg   `mapstructure:"newsapi"`
	SMTP      SMTPCfg      `mapstructure:"smtp"`
	Services  ServicesCfg  `mapstructure:"services"`
	Report    ReportCfg    `mapstructure:"report"`
	RateLimit RateLimitCfg `mapstructure:"ratelimit"`

	// Derived
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MongoTimeout time.Duration
	CacheTTL     time.Duration
}

// MongoHosts splits the comma-separated host list.
func (c *Config) MongoHosts() []string {
	parts := strings.Split(c.Mongo.Hosts, ",")
	hosts := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			hosts = append(hosts, p)
		}
	}
	return hosts
}

// KafkaBrokers splits the comma-separated broker list. Empty means the
// event producer stays disabled.
func (c *Config) KafkaBrokers() []string {
	if strings.TrimSpace(c.Kafka.Brokers) == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.port", 8000)
	v.SetDefault("app.read_timeout_seconds", 15)
	v.SetDefault("app.write_timeout_seconds", 15)
	v.SetDefault("app.idle_timeout_seconds", 60)

	v.SetDefault("mongo.hosts", "localhost:27017")
	v.SetDefault("mongo.user", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.db", "yimba")
	v.SetDefault("mongo.timeout_seconds", 15)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_seconds", 300)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "yimba.posts")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.access_ttl_minutes", 30)
	v.SetDefault("jwt.refresh_ttl_minutes", 1440)

	v.SetDefault("apify.token", "")
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.poll_interval_seconds", 5)
	v.SetDefault("apify.poll_timeout_seconds", 300)
	v.SetDefault("apify.facebook_actor", "")
	v.SetDefault("apify.tiktok_actor", "")
	v.SetDefault("apify.twitter_actor", "")
	v.SetDefault("apify.instagram_actor", "")
	v.SetDefault("apify.youtube_actor", "")
	v.SetDefault("apify.google_actor", "")

	v.SetDefault("newsapi.key", "")
	v.SetDefault("newsapi.base_url", "https://newsapi.org/v2")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.sender", "ireele <no-reply@ireele.com>")

	v.SetDefault("services.auth_url", "http://localhost:8001/api/auth")
	v.SetDefault("services.params_url", "http://localhost:8002/api/params")
	v.SetDefault("services.project_url", "http://localhost:8003/api/project")
	v.SetDefault("services.analyse_url", "http://localhost:8004/api/analyse")

	v.SetDefault("report.template_dir", "templates")
	v.SetDefault("report.font_path", "assets/fonts/Roboto-Regular.ttf")

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.rps", 1)
	v.SetDefault("ratelimit.burst", 3)
}

// Path resolves the config file location, CONFIG_FILE overriding the
// default config.yaml next to the binary.
func Path() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// a missing file is fine, the environment takes over
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg.ReadTimeout = time.Duration(cfg.App.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.App.WriteTimeoutSeconds) * time.Second
	cfg.IdleTimeout = time.Duration(cfg.App.IdleTimeoutSeconds) * time.Second
	cfg.MongoTimeout = time.Duration(cfg.Mongo.TimeoutSeconds) * time.Second
	cfg.CacheTTL = time.Duration(cfg.Redis.TTLSeconds) * time.Second
	return cfg, nil
}
