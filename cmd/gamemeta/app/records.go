package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/gamemeta/internal/checkpoint"
	"github.com/agentstation/gamemeta/internal/cmd/table"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
)

// NewRecordsCommand creates the records command.
func (a *App) NewRecordsCommand() *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:     "records",
		GroupID: "inspect",
		Short:   "List the records of the output store",
		Example: `  gamemeta records --last 20
  gamemeta records --output data/games.db --format wide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.loadRecords(cmd, a.config.Output)
			if err != nil {
				return err
			}
			if last > 0 && len(records) > last {
				records = records[len(records)-last:]
			}
			return a.render(cmd, records, func(wide bool) table.Data {
				return table.RecordsToTableData(records, wide)
			})
		},
	}

	cmd.Flags().StringVarP(&a.config.Output, "output", "o", a.config.Output, "output store to read")
	cmd.Flags().IntVar(&last, "last", 0, "show only the last N records")
	return cmd
}

func (a *App) loadRecords(cmd *cobra.Command, path string) ([]games.Record, error) {
	store, err := checkpoint.OpenStore(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if !store.Exists() {
		return nil, errors.NewNotFoundError("output store", path)
	}
	return store.Records(cmd.Context())
}
