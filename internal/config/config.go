package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ChartSentinel/internal/logger"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/pipeline"
)

var validate = validator.New()

// Symbol is one traded pair with its display settings.
type Symbol struct {
	Name        string `yaml:"name" validate:"required"`
	Precision   int    `yaml:"precision" validate:"gte=0,lte=8"`
	DisplayName string `yaml:"display_name"`
}

// Label returns the display name, falling back to the pair name.
func (s Symbol) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		APIBase  string `yaml:"api_base" default:"https://api.telegram.org"`
		Disabled bool   `yaml:"disabled"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider  string   `yaml:"provider" default:"binance" validate:"oneof=binance mock"`
		BaseURL   string   `yaml:"base_url" default:"https://api.binance.com"`
		APIKey    string   `yaml:"api_key"`
		Symbols   []Symbol `yaml:"symbols" validate:"min=1,dive"`
		Intervals []string `yaml:"intervals" validate:"min=1"`
	} `yaml:"data_source"`
	Schedule struct {
		Cron        map[string]string `yaml:"cron"`
		Concurrency int               `yaml:"concurrency" default:"2" validate:"gte=1,lte=16"`
		RunOnStart  bool              `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Pipeline pipeline.Params `yaml:"pipeline"`
	Database struct {
		Driver     string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres none"`
		SQLitePath string `yaml:"sqlite_path" default:"data/chart_sentinel.db"`
		DSN        string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr      string        `yaml:"addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		KeyPrefix string        `yaml:"key_prefix" default:"chartsentinel:"`
		TTL       time.Duration `yaml:"ttl" default:"48h"`
		LockTTL   time.Duration `yaml:"lock_ttl" default:"10m"`
	} `yaml:"redis"`
	HTTP struct {
		Addr string `yaml:"addr" default:":8080"`
	} `yaml:"http"`
	Narrator struct {
		BaseURL  string        `yaml:"base_url" default:"https://api.openai.com/v1"`
		APIKey   string        `yaml:"api_key"`
		Model    string        `yaml:"model" default:"gpt-4o"`
		Language string        `yaml:"language" default:"English"`
		Rows     int           `yaml:"rows" default:"400" validate:"gte=1"`
		Timeout  time.Duration `yaml:"timeout" default:"120s"`
	} `yaml:"narrator"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and struct-tag defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if len(cfg.DataSource.Symbols) == 0 {
		cfg.DataSource.Symbols = []Symbol{{Name: "BTCUSDT"}, {Name: "ETHUSDT"}}
	}
	if len(cfg.DataSource.Intervals) == 0 {
		for _, iv := range model.SupportedIntervals() {
			cfg.DataSource.Intervals = append(cfg.DataSource.Intervals, iv.String())
		}
	}
	if cfg.Schedule.Cron == nil {
		cfg.Schedule.Cron = map[string]string{}
	}
	for _, name := range cfg.DataSource.Intervals {
		if _, ok := cfg.Schedule.Cron[name]; !ok {
			cfg.Schedule.Cron[name] = model.Interval(name).Spec().DefaultCron
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.DataSource.Symbols = parseSymbols(v)
	}
	if v := os.Getenv("INTERVALS"); v != "" {
		cfg.DataSource.Intervals = splitList(v)
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Narrator.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.Narrator.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_DISABLED"); v != "" {
		cfg.Telegram.Disabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart, _ = strconv.ParseBool(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseSymbols reads "BTCUSDT:0,ETHUSDT:2" where the precision part is optional.
func parseSymbols(v string) []Symbol {
	var out []Symbol
	for _, item := range splitList(v) {
		name, prec, _ := strings.Cut(item, ":")
		s := Symbol{Name: strings.ToUpper(strings.TrimSpace(name))}
		if p, err := strconv.Atoi(strings.TrimSpace(prec)); err == nil {
			s.Precision = p
		}
		out = append(out, s)
	}
	return out
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if !c.Telegram.Disabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required")
		}
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	for _, name := range c.DataSource.Intervals {
		if _, err := model.ParseInterval(name); err != nil {
			return fmt.Errorf("data_source.intervals: %w", err)
		}
		if c.Schedule.Cron[name] == "" {
			return fmt.Errorf("schedule.cron.%s is empty", name)
		}
	}
	return nil
}

// Intervals returns the configured intervals as model values.
// Call after Validate.
func (c *Config) Intervals() []model.Interval {
	out := make([]model.Interval, 0, len(c.DataSource.Intervals))
	for _, name := range c.DataSource.Intervals {
		out = append(out, model.Interval(name))
	}
	return out
}

// Symbol looks up a configured symbol by pair name.
func (c *Config) Symbol(name string) (Symbol, bool) {
	for _, s := range c.DataSource.Symbols {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Symbol{}, false
}
