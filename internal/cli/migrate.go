package cli

import (
	"fmt"
	"io"

	"github.com/pscheid92/rumorpulse/internal/bootstrap"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/spf13/cobra"
)

type migrateView struct {
	Backend string `json:"backend" yaml:"backend"`
	Status  string `json:"status" yaml:"status"`
}

func (v migrateView) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", v.Backend, v.Status)
	return err
}

func newMigrateCommand(o *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Applies pending migrations under the Postgres advisory lock, so it is
safe to run while server instances start. Without DATABASE_URL there is
no schema to migrate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(cmd.Context(), func(cfg *config.Config, _ *bootstrap.Store) error {
				v := migrateView{Backend: "postgres", Status: "schema up to date"}
				if cfg.InMemory() {
					v = migrateView{Backend: "memory", Status: "nothing to migrate"}
				}
				return o.render(cmd, v)
			})
		},
	}
}
