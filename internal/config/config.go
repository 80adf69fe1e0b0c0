// Package config loads and validates site-audit configuration via Viper.
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

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Render   RenderConfig   `mapstructure:"render"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Sitemap  SitemapConfig  `mapstructure:"sitemap"`
	Keywords KeywordsConfig `mapstructure:"keywords"`
	Content  ContentConfig  `mapstructure:"content"`
	Infer    InferConfig    `mapstructure:"infer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// AnalysisConfig bounds a whole analysis from the caller side.
type AnalysisConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// FetchConfig configures the lightweight probe fetch and escalation rules.
type FetchConfig struct {
	UserAgent           string `mapstructure:"user_agent"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	MinHTMLBytes        int    `mapstructure:"min_html_bytes"`
	MaxBodyBytes        int    `mapstructure:"max_body_bytes"`
	PromoteOnSPAMarkers bool   `mapstructure:"promote_on_spa_markers"`
}

// RenderConfig configures the headless rendering subsystem.
type RenderConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Engine         string  `mapstructure:"engine"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	SettleMillis   int     `mapstructure:"settle_millis"`
	LaunchSeconds  int     `mapstructure:"launch_timeout_seconds"`
	DomainQPS      float64 `mapstructure:"domain_qps"`
	ExecPath       string  `mapstructure:"exec_path"`
}

// AuditConfig configures the optional external auditors.
type AuditConfig struct {
	AxeScriptURL            string `mapstructure:"axe_script_url"`
	PageSpeedEnabled        bool   `mapstructure:"pagespeed_enabled"`
	PageSpeedEndpoint       string `mapstructure:"pagespeed_endpoint"`
	PageSpeedAPIKey         string `mapstructure:"pagespeed_api_key"`
	PageSpeedStrategy       string `mapstructure:"pagespeed_strategy"`
	PageSpeedTimeoutSeconds int    `mapstructure:"pagespeed_timeout_seconds"`
}

// SitemapConfig bounds the sitemap/robots probe.
type SitemapConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxChildren    int `mapstructure:"max_children"`
	MaxBytes       int `mapstructure:"max_bytes"`
}

// KeywordsConfig tunes keyword extraction.
type KeywordsConfig struct {
	TopN      int `mapstructure:"top_n"`
	MinLength int `mapstructure:"min_length"`
}

// ContentConfig tunes the content excerpt.
type ContentConfig struct {
	ExcerptChars int `mapstructure:"excerpt_chars"`
}

// InferConfig holds the hand-tuned inference thresholds.
type InferConfig struct {
	ModelThreshold int           `mapstructure:"model_threshold"`
	Traffic        TrafficConfig `mapstructure:"traffic"`
}

// TrafficConfig holds the traffic banding thresholds.
type TrafficConfig struct {
	HighPages     int `mapstructure:"high_pages"`
	HighBlogLinks int `mapstructure:"high_blog_links"`
	MidPages      int `mapstructure:"mid_pages"`
	MidBlogLinks  int `mapstructure:"mid_blog_links"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from .env, disk, and environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SITEAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("analysis.timeout_seconds", 120)
	v.SetDefault("fetch.user_agent", "site-audit-bot/1.0 (+https://github.com/JakeFAU/site-audit)")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.min_html_bytes", 1000)
	v.SetDefault("fetch.max_body_bytes", 5*1024*1024)
	v.SetDefault("fetch.promote_on_spa_markers", true)
	v.SetDefault("render.enabled", true)
	v.SetDefault("render.engine", "chromedp")
	v.SetDefault("render.timeout_seconds", 30)
	v.SetDefault("render.settle_millis", 500)
	v.SetDefault("render.launch_timeout_seconds", 15)
	v.SetDefault("render.domain_qps", 0)
	v.SetDefault("audit.axe_script_url", "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js")
	v.SetDefault("audit.pagespeed_enabled", true)
	v.SetDefault("audit.pagespeed_endpoint", "https://www.googleapis.com/pagespeedonline/v5/runPagespeed")
	v.SetDefault("audit.pagespeed_strategy", "mobile")
	v.SetDefault("audit.pagespeed_timeout_seconds", 60)
	v.SetDefault("sitemap.timeout_seconds", 10)
	v.SetDefault("sitemap.max_children", 3)
	v.SetDefault("sitemap.max_bytes", 10*1024*1024)
	v.SetDefault("keywords.top_n", 20)
	v.SetDefault("keywords.min_length", 4)
	v.SetDefault("content.excerpt_chars", 2000)
	v.SetDefault("infer.model_threshold", 2)
	v.SetDefault("infer.traffic.high_pages", 1000)
	v.SetDefault("infer.traffic.high_blog_links", 100)
	v.SetDefault("infer.traffic.mid_pages", 200)
	v.SetDefault("infer.traffic.mid_blog_links", 20)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MinHTMLBytes < 0 {
		return fmt.Errorf("fetch.min_html_bytes must be >= 0")
	}
	if c.Render.Enabled && c.Render.TimeoutSeconds <= 0 {
		return fmt.Errorf("render.timeout_seconds must be > 0 when rendering is enabled")
	}
	switch c.Render.Engine {
	case "chromedp", "playwright":
	default:
		return fmt.Errorf("render.engine must be chromedp or playwright, got %q", c.Render.Engine)
	}
	if c.Render.DomainQPS < 0 {
		return fmt.Errorf("render.domain_qps must be >= 0")
	}
	if c.Keywords.TopN <= 0 {
		return fmt.Errorf("keywords.top_n must be > 0")
	}
	if c.Infer.ModelThreshold <= 0 {
		return fmt.Errorf("infer.model_threshold must be > 0")
	}
	t := c.Infer.Traffic
	if t.MidPages > t.HighPages || t.MidBlogLinks > t.HighBlogLinks {
		return fmt.Errorf("infer.traffic mid thresholds must not exceed high thresholds")
	}
	return nil
}

// FetchTimeout returns the probe fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RenderTimeout returns the browser navigation bound.
func (c Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

// LaunchTimeout returns the browser startup bound.
func (c Config) LaunchTimeout() time.Duration {
	return time.Duration(c.Render.LaunchSeconds) * time.Second
}

// AnalysisBudget returns the caller-side timeout for one analysis; zero means unbounded.
func (c Config) AnalysisBudget() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}
