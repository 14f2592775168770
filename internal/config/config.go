package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full resolved runtime configuration.
type Config struct {
	Recruiting RecruitingConfig `yaml:"recruiting" mapstructure:"recruiting"`
	Unipile    UnipileConfig    `yaml:"unipile" mapstructure:"unipile"`
	WebSearch  WebSearchConfig  `yaml:"web_search" mapstructure:"web_search"`
	WebFetch   WebFetchConfig   `yaml:"web_fetch" mapstructure:"web_fetch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// RecruitingConfig configures the candidate pipeline engine.
type RecruitingConfig struct {
	Enabled             bool                      `yaml:"enabled" mapstructure:"enabled"`
	Store               StoreConfig               `yaml:"store" mapstructure:"store"`
	Identity            IdentityConfig            `yaml:"identity" mapstructure:"identity"`
	Run                 RunConfig                 `yaml:"run" mapstructure:"run"`
	BrowserVerification BrowserVerificationConfig `yaml:"browser_verification" mapstructure:"browser_verification"`
	DailyQuotas         DailyQuotasConfig         `yaml:"daily_quotas" mapstructure:"daily_quotas"`
	Promotion           PromotionConfig           `yaml:"promotion" mapstructure:"promotion"`
	LaneTargeting       LaneTargetingConfig       `yaml:"lane_targeting" mapstructure:"lane_targeting"`
}

// StoreConfig configures the embedded SQLite store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// IdentityConfig configures identity resolution thresholds.
type IdentityConfig struct {
	MinConfidenceForShortlist float64 `yaml:"min_confidence_for_shortlist" mapstructure:"min_confidence_for_shortlist"`
}

// RunConfig configures run defaults.
type RunConfig struct {
	TargetCandidatesPerRole int    `yaml:"target_candidates_per_role" mapstructure:"target_candidates_per_role"`
	DefaultCadence          string `yaml:"default_cadence" mapstructure:"default_cadence"`
}

// BrowserVerificationConfig configures the deferred browser-verification
// signal.
type BrowserVerificationConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Mode    string `yaml:"mode" mapstructure:"mode"` // high_only | always
}

// DailyQuotasConfig configures the daily review workflow quotas.
type DailyQuotasConfig struct {
	PromotedTarget     int `yaml:"promoted_target" mapstructure:"promoted_target"`
	ReviewedTarget     int `yaml:"reviewed_target" mapstructure:"reviewed_target"`
	VerificationBudget int `yaml:"verification_budget" mapstructure:"verification_budget"`
}

// PromotionConfig configures promotion preconditions.
type PromotionConfig struct {
	MinProofLinks            int  `yaml:"min_proof_links" mapstructure:"min_proof_links"`
	AllowUnverifiedPromotion bool `yaml:"allow_unverified_promotion" mapstructure:"allow_unverified_promotion"`
}

// LaneTargetingConfig holds the lane split percentages. Configured and
// validated but not read by any pipeline step yet.
type LaneTargetingConfig struct {
	G1Percentage float64 `yaml:"g1_percentage" mapstructure:"g1_percentage"`
	G2Percentage float64 `yaml:"g2_percentage" mapstructure:"g2_percentage"`
}

// UnipileConfig holds LinkedIn (Unipile) API settings.
type UnipileConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	AccountID string `yaml:"account_id" mapstructure:"account_id"`
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
}

// WebSearchConfig holds web-search provider settings.
type WebSearchConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WebFetchConfig holds web-fetch provider settings.
type WebFetchConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks configured ranges. Out-of-range values are reported
// rather than silently adjusted.
func (c *Config) Validate() error {
	var errs []string

	r := c.Recruiting
	if r.Identity.MinConfidenceForShortlist < 0 || r.Identity.MinConfidenceForShortlist > 1 {
		errs = append(errs, "recruiting.identity.min_confidence_for_shortlist must be between 0.0 and 1.0")
	}
	if r.Run.TargetCandidatesPerRole < 1 || r.Run.TargetCandidatesPerRole > 2000 {
		errs = append(errs, "recruiting.run.target_candidates_per_role must be between 1 and 2000")
	}
	switch r.BrowserVerification.Mode {
	case "high_only", "always":
	default:
		errs = append(errs, "recruiting.browser_verification.mode must be high_only or always")
	}
	if r.DailyQuotas.PromotedTarget < 1 || r.DailyQuotas.PromotedTarget > 100 {
		errs = append(errs, "recruiting.daily_quotas.promoted_target must be between 1 and 100")
	}
	if r.DailyQuotas.ReviewedTarget < 1 || r.DailyQuotas.ReviewedTarget > 200 {
		errs = append(errs, "recruiting.daily_quotas.reviewed_target must be between 1 and 200")
	}
	if r.DailyQuotas.VerificationBudget < 1 || r.DailyQuotas.VerificationBudget > 100 {
		errs = append(errs, "recruiting.daily_quotas.verification_budget must be between 1 and 100")
	}
	if r.Promotion.MinProofLinks < 1 || r.Promotion.MinProofLinks > 10 {
		errs = append(errs, "recruiting.promotion.min_proof_links must be between 1 and 10")
	}
	if r.LaneTargeting.G1Percentage < 0 || r.LaneTargeting.G1Percentage > 1 {
		errs = append(errs, "recruiting.lane_targeting.g1_percentage must be between 0.0 and 1.0")
	}
	if r.LaneTargeting.G2Percentage < 0 || r.LaneTargeting.G2Percentage > 1 {
		errs = append(errs, "recruiting.lane_targeting.g2_percentage must be between 0.0 and 1.0")
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: validation failed: %s", strings.Join(errs, "; ")))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TALENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("recruiting.enabled", false)
	v.SetDefault("recruiting.store.path", "talent-pipeline.db")
	v.SetDefault("recruiting.identity.min_confidence_for_shortlist", 0.8)
	v.SetDefault("recruiting.run.target_candidates_per_role", 300)
	v.SetDefault("recruiting.run.default_cadence", "0 6 * * *")
	v.SetDefault("recruiting.browser_verification.enabled", false)
	v.SetDefault("recruiting.browser_verification.mode", "high_only")
	v.SetDefault("recruiting.daily_quotas.promoted_target", 10)
	v.SetDefault("recruiting.daily_quotas.reviewed_target", 30)
	v.SetDefault("recruiting.daily_quotas.verification_budget", 20)
	v.SetDefault("recruiting.promotion.min_proof_links", 2)
	v.SetDefault("recruiting.promotion.allow_unverified_promotion", false)
	v.SetDefault("recruiting.lane_targeting.g1_percentage", 0.6)
	v.SetDefault("recruiting.lane_targeting.g2_percentage", 0.4)
	v.SetDefault("unipile.base_url", "https://api.unipile.com/v1")
	v.SetDefault("unipile.enabled", true)
	v.SetDefault("web_search.base_url", "https://api.exa.ai")
	v.SetDefault("web_fetch.base_url", "https://api.exa.ai")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Redacted returns a copy with credential material blanked for display.
func (c *Config) Redacted() Config {
	out := *c
	if out.Unipile.APIKey != "" {
		out.Unipile.APIKey = "[redacted]"
	}
	if out.WebSearch.APIKey != "" {
		out.WebSearch.APIKey = "[redacted]"
	}
	if out.WebFetch.APIKey != "" {
		out.WebFetch.APIKey = "[redacted]"
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
