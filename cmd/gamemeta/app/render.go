package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/gamemeta/internal/cmd/output"
	"github.com/agentstation/gamemeta/internal/cmd/table"
)

// render writes raw in the configured format. Table formats use the table
// layout returned by tabulate for the requested width.
func (a *App) render(cmd *cobra.Command, raw any, tabulate func(wide bool) table.Data) error {
	format, err := output.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}
	format = output.DetectFormat(string(format))

	data := raw
	switch format {
	case output.FormatTable:
		data = tabulate(false)
	case output.FormatWide:
		data = tabulate(true)
	}
	return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
}
