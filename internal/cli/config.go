package cli

import (
	"io"
	"net/url"
	"strconv"

	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/spf13/cobra"
)

type configView struct {
	AppEnv             string  `json:"app_env" yaml:"app_env"`
	Port               string  `json:"port" yaml:"port"`
	InstanceID         string  `json:"instance_id" yaml:"instance_id"`
	Database           string  `json:"database" yaml:"database"`
	Redis              string  `json:"redis" yaml:"redis"`
	LogLevel           string  `json:"log_level" yaml:"log_level"`
	LogFormat          string  `json:"log_format" yaml:"log_format"`
	FinalizeInterval   string  `json:"finalize_interval" yaml:"finalize_interval"`
	FinalizeBatchSize  int     `json:"finalize_batch_size" yaml:"finalize_batch_size"`
	ReputationCacheTTL string  `json:"reputation_cache_ttl" yaml:"reputation_cache_ttl"`
	MinClaimDuration   string  `json:"min_claim_duration" yaml:"min_claim_duration"`
	MaxClaimDuration   string  `json:"max_claim_duration" yaml:"max_claim_duration"`
	LeaderLeaseTTL     string  `json:"leader_lease_ttl" yaml:"leader_lease_ttl"`
	RateLimitPerSecond float64 `json:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `json:"rate_limit_burst" yaml:"rate_limit_burst"`
	VoteRateBurst      int     `json:"vote_rate_burst" yaml:"vote_rate_burst"`
	VoteRatePerMinute  int     `json:"vote_rate_per_minute" yaml:"vote_rate_per_minute"`
}

func newConfigView(cfg *config.Config) configView {
	return configView{
		AppEnv:             cfg.AppEnv,
		Port:               cfg.Port,
		InstanceID:         cfg.InstanceID,
		Database:           redact(cfg.DatabaseURL, "in-memory"),
		Redis:              redact(cfg.RedisURL, "disabled"),
		LogLevel:           cfg.LogLevel,
		LogFormat:          cfg.LogFormat,
		FinalizeInterval:   cfg.FinalizeInterval.String(),
		FinalizeBatchSize:  cfg.FinalizeBatchSize,
		ReputationCacheTTL: cfg.ReputationCacheTTL.String(),
		MinClaimDuration:   cfg.MinClaimDuration.String(),
		MaxClaimDuration:   cfg.MaxClaimDuration.String(),
		LeaderLeaseTTL:     cfg.LeaderLeaseTTL.String(),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		VoteRateBurst:      cfg.VoteRateBurst,
		VoteRatePerMinute:  cfg.VoteRatePerMinute,
	}
}

func (v configView) writeText(w io.Writer) error {
	return table(w, [][]string{
		{"app_env", v.AppEnv},
		{"port", v.Port},
		{"instance_id", v.InstanceID},
		{"database", v.Database},
		{"redis", v.Redis},
		{"log_level", v.LogLevel},
		{"log_format", v.LogFormat},
		{"finalize_interval", v.FinalizeInterval},
		{"finalize_batch_size", strconv.Itoa(v.FinalizeBatchSize)},
		{"reputation_cache_ttl", v.ReputationCacheTTL},
		{"min_claim_duration", v.MinClaimDuration},
		{"max_claim_duration", v.MaxClaimDuration},
		{"leader_lease_ttl", v.LeaderLeaseTTL},
		{"rate_limit_per_second", strconv.FormatFloat(v.RateLimitPerSecond, 'g', -1, 64)},
		{"rate_limit_burst", strconv.Itoa(v.RateLimitBurst)},
		{"vote_rate_burst", strconv.Itoa(v.VoteRateBurst)},
		{"vote_rate_per_minute", strconv.Itoa(v.VoteRatePerMinute)},
	})
}

// redact hides URL passwords. Unparseable URLs are hidden entirely.
func redact(raw, empty string) string {
	if raw == "" {
		return empty
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}

func newConfigCommand(o *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			return o.render(cmd, newConfigView(cfg))
		},
	}
}
