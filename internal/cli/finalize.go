package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pscheid92/rumorpulse/internal/app"
	"github.com/pscheid92/rumorpulse/internal/bootstrap"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/pscheid92/rumorpulse/internal/reputation"
	"github.com/spf13/cobra"
)

type sweepView struct {
	Due       int    `json:"due" yaml:"due"`
	Finalized int    `json:"finalized" yaml:"finalized"`
	Skipped   int    `json:"skipped" yaml:"skipped"`
	Failed    int    `json:"failed" yaml:"failed"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newSweepView(res app.SweepResult) sweepView {
	v := sweepView{Due: res.Due, Finalized: res.Finalized, Skipped: res.Skipped, Failed: res.Failed}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func (v sweepView) writeText(w io.Writer) error {
	rows := [][]string{
		{"due", strconv.Itoa(v.Due)},
		{"finalized", strconv.Itoa(v.Finalized)},
		{"skipped", strconv.Itoa(v.Skipped)},
		{"failed", strconv.Itoa(v.Failed)},
	}
	if v.Error != "" {
		rows = append(rows, []string{"error", v.Error})
	}
	return table(w, rows)
}

func newFinalizeCommand(o *RootOptions) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Run one finalization sweep over claims past their deadline",
		Long: `Runs a single sweep outside the server's schedule. Claims that already
have an outcome are skipped, so running it next to live servers is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(cmd.Context(), func(cfg *config.Config, store *bootstrap.Store) error {
				if batchSize <= 0 {
					batchSize = cfg.FinalizeBatchSize
				}
				engine := reputation.NewEngine(store, o.clock, cfg.ReputationCacheTTL, nil)
				finalizer := app.NewFinalizer(store, engine, o.clock, cfg.FinalizeInterval, batchSize, nil, nil)

				res := finalizer.FinalizeDue(cmd.Context())
				if err := o.render(cmd, newSweepView(res)); err != nil {
					return err
				}
				if res.Err != nil {
					return res.Err
				}
				if res.Failed > 0 {
					return fmt.Errorf("%d of %d claims failed to finalize", res.Failed, res.Due)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "maximum claims to finalize (default FINALIZE_BATCH_SIZE)")
	return cmd
}
