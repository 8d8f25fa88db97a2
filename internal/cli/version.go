package cli

import (
	"fmt"
	"io"

	"github.com/pscheid92/rumorpulse/internal/platform/version"
	"github.com/spf13/cobra"
)

type versionView struct {
	version.Info `yaml:",inline"`
}

func (v versionView) writeText(w io.Writer) error {
	_, err := fmt.Fprintln(w, v.String())
	return err
}

func newVersionCommand(o *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.render(cmd, versionView{version.Get()})
		},
	}
}
