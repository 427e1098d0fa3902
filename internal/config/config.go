package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ChartPress/internal/chart"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token" validate:"required_with=ChatID"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider       string            `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
		BaseURL        string            `yaml:"base_url" validate:"required_if=Provider rest"`
		APIKey         string            `yaml:"api_key"`
		Timezone       string            `yaml:"timezone" default:"Europe/Berlin"`
		Interval       string            `yaml:"interval" default:"5m" validate:"required"`
		Range          string            `yaml:"range" default:"5d" validate:"required"`
		MinTradingDays int               `yaml:"min_trading_days" default:"5" validate:"gte=1"`
		Search         bool              `yaml:"search" default:"true"`
		Identifiers    map[string]string `yaml:"identifiers"` // ISIN or WKN to ticker
	} `yaml:"data_source"`
	Symbols  []string `yaml:"symbols" default:"[\"AAPL\",\"MSFT\",\"SAP.DE\"]" validate:"dive,required"`
	Schedule struct {
		RenderCron string `yaml:"render_cron" default:"0 30 17 * * 1-5"`
	} `yaml:"schedule"`
	Output struct {
		Dir string `yaml:"dir" default:"graphs" validate:"required"`
	} `yaml:"output"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl" default:"5m"`
		RedisAddr     string        `yaml:"redis_addr" validate:"omitempty,hostname_port"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/chartpress.db"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr" default:":8080" validate:"required"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stderr"`
	} `yaml:"log"`
	Chart ChartConfig `yaml:"chart"`
	Proxy string      `yaml:"proxy"`
}

// ChartConfig is the YAML form of chart.Options.
type ChartConfig struct {
	GapThreshold       time.Duration `yaml:"gap_threshold" default:"2h"`
	OversampleFactor   int           `yaml:"oversample_factor" default:"5"`
	MinLabelDistancePx float64       `yaml:"min_label_distance_px" default:"60"`

	YPaddingFraction      float64 `yaml:"y_padding_fraction" default:"0.10"`
	YTickCount            int     `yaml:"y_tick_count" default:"5"`
	TickClearanceFraction float64 `yaml:"tick_clearance_fraction" default:"0.15"`

	HeaderHeightFraction float64 `yaml:"header_height_fraction" default:"0.08"`
	HeaderShadowOffset   float64 `yaml:"header_shadow_offset" default:"0.002"`
	HeaderShadowAlpha    float64 `yaml:"header_shadow_alpha" default:"0.15"`
	TitleInset           float64 `yaml:"title_inset" default:"0.03"`

	BadgeSizeFraction   float64 `yaml:"badge_size_fraction" default:"0.08"`
	BadgeOffsetFraction float64 `yaml:"badge_offset_fraction" default:"0.5"`
	BadgeRightInset     float64 `yaml:"badge_right_inset" default:"0.06"`
	BadgeTextSpacing    float64 `yaml:"badge_text_spacing" default:"0.35"`

	WidthMM     float64 `yaml:"width_mm" default:"105.6"`
	HeightMM    float64 `yaml:"height_mm" default:"44.45"`
	DPI         float64 `yaml:"dpi" default:"300"`
	Transparent bool    `yaml:"transparent" default:"true"`

	Plot struct {
		Left   float64 `yaml:"left" default:"0.08"`
		Right  float64 `yaml:"right" default:"0.95"`
		Bottom float64 `yaml:"bottom" default:"0.12"`
		Top    float64 `yaml:"top" default:"0.90"`
	} `yaml:"plot"`

	Palette struct {
		Curve       string `yaml:"curve" default:"#FF0000"`
		Up          string `yaml:"up" default:"#00CC00"`
		Down        string `yaml:"down" default:"#FF8C00"`
		Header      string `yaml:"header" default:"#2D68B6"`
		HeaderText  string `yaml:"header_text" default:"#FFFFFF"`
		Shadow      string `yaml:"shadow" default:"#000000"`
		Gridline    string `yaml:"gridline" default:"#ADD8E6"`
		Axis        string `yaml:"axis" default:"#000000"`
		Text        string `yaml:"text" default:"#000000"`
		BadgeText   string `yaml:"badge_text" default:"#FFFFFF"`
		BadgeAccent string `yaml:"badge_accent" default:"#FFFF00"`
		Background  string `yaml:"background" default:"#FFFFFF"`
	} `yaml:"palette"`
}

var validate = validator.New()

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file in the working directory is loaded first if present.
// Missing settings take their struct-tag defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("BARS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BARS_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = splitList(v)
	}
	if v := os.Getenv("MIN_TRADING_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.MinTradingDays = n
		}
	}
	if v := os.Getenv("CRON_RENDER"); v != "" {
		cfg.Schedule.RenderCron = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks field constraints and the derived chart options.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DataSource.Timezone != "" {
		if _, err := time.LoadLocation(c.DataSource.Timezone); err != nil {
			return fmt.Errorf("data_source.timezone: %w", err)
		}
	}
	if err := c.ChartOptions().Validate(); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether notifier credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Location returns the configured data time zone, or UTC when unset or unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ChartOptions maps the chart section onto the render pipeline's options.
func (c *Config) ChartOptions() chart.Options {
	cc := c.Chart
	return chart.Options{
		GapThreshold:          cc.GapThreshold,
		OversampleFactor:      cc.OversampleFactor,
		MinLabelDistancePx:    cc.MinLabelDistancePx,
		YPaddingFraction:      cc.YPaddingFraction,
		YTickCount:            cc.YTickCount,
		TickClearanceFraction: cc.TickClearanceFraction,
		HeaderHeightFraction:  cc.HeaderHeightFraction,
		HeaderShadowOffset:    cc.HeaderShadowOffset,
		HeaderShadowAlpha:     cc.HeaderShadowAlpha,
		TitleInset:            cc.TitleInset,
		BadgeSizeFraction:     cc.BadgeSizeFraction,
		BadgeOffsetFraction:   cc.BadgeOffsetFraction,
		BadgeRightInset:       cc.BadgeRightInset,
		BadgeTextSpacing:      cc.BadgeTextSpacing,
		WidthMM:               cc.WidthMM,
		HeightMM:              cc.HeightMM,
		DPI:                   cc.DPI,
		Transparent:           cc.Transparent,
		Plot: chart.PlotArea{
			Left:   cc.Plot.Left,
			Right:  cc.Plot.Right,
			Bottom: cc.Plot.Bottom,
			Top:    cc.Plot.Top,
		},
		Palette: chart.Palette(cc.Palette),
	}
}
