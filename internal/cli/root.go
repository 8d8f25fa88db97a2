// Package cli implements rumorctl, the operator command line for a
// rumorpulse deployment. Commands talk to the same store as the server.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/bootstrap"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/pscheid92/rumorpulse/internal/platform/logging"
	"github.com/spf13/cobra"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// RootOptions holds global flags and the collaborators every command needs.
type RootOptions struct {
	Format   string
	LogLevel string

	loadConfig func() (*config.Config, error)
	openStore  func(ctx context.Context, cfg *config.Config) (*bootstrap.Store, error)
	clock      clockwork.Clock
}

type Option func(*RootOptions)

// WithConfigLoader replaces config.Load.
func WithConfigLoader(fn func() (*config.Config, error)) Option {
	return func(o *RootOptions) { o.loadConfig = fn }
}

// WithStoreOpener replaces bootstrap.OpenStore.
func WithStoreOpener(fn func(ctx context.Context, cfg *config.Config) (*bootstrap.Store, error)) Option {
	return func(o *RootOptions) { o.openStore = fn }
}

func WithClock(clock clockwork.Clock) Option {
	return func(o *RootOptions) { o.clock = clock }
}

// NewRootCommand creates the rumorctl root command.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &RootOptions{
		loadConfig: config.Load,
		openStore: func(ctx context.Context, cfg *config.Config) (*bootstrap.Store, error) {
			return bootstrap.OpenStore(ctx, cfg, metrics.NewStoreMetrics(metrics.NewRegistry()))
		},
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(o)
	}

	cmd := &cobra.Command{
		Use:   "rumorctl",
		Short: "rumorctl - operate a rumorpulse deployment",
		Long: `rumorctl runs maintenance tasks against the store configured through the
same environment variables as the server: schema migrations, one-shot
finalization sweeps, reputation inspection and audit log export.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, o.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), o.LogLevel, "text"))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&o.Format, "output", "o", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(newMigrateCommand(o))
	cmd.AddCommand(newFinalizeCommand(o))
	cmd.AddCommand(newReputationCommand(o))
	cmd.AddCommand(newAuditCommand(o))
	cmd.AddCommand(newConfigCommand(o))
	cmd.AddCommand(newVersionCommand(o))

	return cmd
}

// withStore loads the config, opens the store and hands both to fn.
func (o *RootOptions) withStore(ctx context.Context, fn func(cfg *config.Config, store *bootstrap.Store) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := o.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}
