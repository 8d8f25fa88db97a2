package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pscheid92/rumorpulse/internal/bootstrap"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/pscheid92/rumorpulse/internal/reputation"
	"github.com/spf13/cobra"
)

type penaltyView struct {
	Amount    float64   `json:"amount" yaml:"amount"`
	Reason    string    `json:"reason" yaml:"reason"`
	ClaimID   string    `json:"claim_id" yaml:"claim_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type reputationView struct {
	IdentityID string        `json:"identity_id" yaml:"identity_id"`
	Reputation float64       `json:"reputation" yaml:"reputation"`
	Weight     float64       `json:"weight" yaml:"weight"`
	Cached     *float64      `json:"cached,omitempty" yaml:"cached,omitempty"`
	Penalties  []penaltyView `json:"penalties" yaml:"penalties"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (v reputationView) writeText(w io.Writer) error {
	cached := "none"
	if v.Cached != nil {
		cached = formatFloat(*v.Cached)
	}
	err := table(w, [][]string{
		{"identity", v.IdentityID},
		{"reputation", formatFloat(v.Reputation)},
		{"weight", formatFloat(v.Weight)},
		{"cached", cached},
		{"penalties", strconv.Itoa(len(v.Penalties))},
	})
	if err != nil || len(v.Penalties) == 0 {
		return err
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	rows := [][]string{{"CREATED", "AMOUNT", "REASON", "CLAIM"}}
	for _, p := range v.Penalties {
		rows = append(rows, []string{p.CreatedAt.Format(time.RFC3339), formatFloat(p.Amount), p.Reason, p.ClaimID})
	}
	return table(w, rows)
}

func newReputationCommand(o *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reputation <identity>",
		Short: "Recompute an identity's reputation from the store",
		Long: `Recomputes the reputation from scored votes and penalties as of now,
bypassing the cache. The cached value, if any, is shown next to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.IdentityID(strings.ToLower(strings.TrimSpace(args[0])))
			if _, err := id.PublicKey(); err != nil {
				return err
			}

			return o.withStore(cmd.Context(), func(cfg *config.Config, store *bootstrap.Store) error {
				ctx := cmd.Context()
				if _, err := store.GetIdentity(ctx, id); err != nil {
					return err
				}

				engine := reputation.NewEngine(store, o.clock, cfg.ReputationCacheTTL, nil)
				rep, err := engine.Recompute(ctx, store, id, o.clock.Now())
				if err != nil {
					return err
				}
				penalties, err := store.ListPenalties(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to list penalties: %w", err)
				}
				cached, err := store.GetCachedReputation(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to read reputation cache: %w", err)
				}

				v := reputationView{
					IdentityID: id.String(),
					Reputation: rep,
					Weight:     reputation.Weight(rep),
					Penalties:  make([]penaltyView, 0, len(penalties)),
				}
				if cached != nil {
					v.Cached = &cached.Reputation
				}
				for _, p := range penalties {
					v.Penalties = append(v.Penalties, penaltyView{
						Amount:    p.Amount,
						Reason:    p.Reason,
						ClaimID:   p.ClaimID.String(),
						CreatedAt: p.CreatedAt,
					})
				}
				return o.render(cmd, v)
			})
		},
	}
}
