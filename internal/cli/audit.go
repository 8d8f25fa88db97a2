package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/pscheid92/rumorpulse/internal/app"
	"github.com/pscheid92/rumorpulse/internal/bootstrap"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/spf13/cobra"
)

type auditEntryView struct {
	ID          string    `json:"id" yaml:"id"`
	Action      string    `json:"action" yaml:"action"`
	ActorID     string    `json:"actor_id,omitempty" yaml:"actor_id,omitempty"`
	TargetID    string    `json:"target_id" yaml:"target_id"`
	ContentHash string    `json:"content_hash" yaml:"content_hash"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

type auditView struct {
	Entries    []auditEntryView `json:"entries" yaml:"entries"`
	NextBefore *time.Time       `json:"next_before,omitempty" yaml:"next_before,omitempty"`
}

func newAuditView(entries []domain.AuditEntry, limit int) auditView {
	v := auditView{Entries: make([]auditEntryView, 0, len(entries))}
	for _, e := range entries {
		ev := auditEntryView{
			ID:          e.ID.String(),
			Action:      string(e.Action),
			TargetID:    e.TargetID,
			ContentHash: e.ContentHash,
			CreatedAt:   e.CreatedAt,
		}
		if e.ActorID != nil {
			ev.ActorID = e.ActorID.String()
		}
		v.Entries = append(v.Entries, ev)
	}
	if len(entries) > 0 && len(entries) == app.PageSize(limit) {
		last := entries[len(entries)-1].CreatedAt
		v.NextBefore = &last
	}
	return v
}

func (v auditView) writeText(w io.Writer) error {
	rows := [][]string{{"CREATED", "ACTION", "ACTOR", "TARGET", "HASH"}}
	for _, e := range v.Entries {
		actor := e.ActorID
		if actor == "" {
			actor = "system"
		}
		rows = append(rows, []string{e.CreatedAt.Format(time.RFC3339Nano), e.Action, shorten(actor), e.TargetID, shorten(e.ContentHash)})
	}
	if err := table(w, rows); err != nil {
		return err
	}
	if v.NextBefore != nil {
		_, err := fmt.Fprintf(w, "\nmore entries: --before %s\n", v.NextBefore.Format(time.RFC3339Nano))
		return err
	}
	return nil
}

// shorten keeps hex identifiers readable in a terminal.
func shorten(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:16]
}

func newAuditCommand(o *RootOptions) *cobra.Command {
	var (
		limit  int
		before string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cursor time.Time
			if before != "" {
				t, err := time.Parse(time.RFC3339Nano, before)
				if err != nil {
					return fmt.Errorf("invalid --before %q: %w", before, err)
				}
				cursor = t
			}

			return o.withStore(cmd.Context(), func(_ *config.Config, store *bootstrap.Store) error {
				entries, err := store.ListAudit(cmd.Context(), app.PageSize(limit), cursor)
				if err != nil {
					return err
				}
				return o.render(cmd, newAuditView(entries, limit))
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", app.DefaultPageSize, fmt.Sprintf("entries per page (max %d)", app.MaxPageSize))
	cmd.Flags().StringVar(&before, "before", "", "only entries created before this RFC3339 timestamp")
	return cmd
}
