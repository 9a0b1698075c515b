package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/gamemeta/internal/cmd/table"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/provenance"
)

// NewProvenanceCommand creates the provenance command.
func (a *App) NewProvenanceCommand() *cobra.Command {
	var (
		file   string
		fields []string
	)

	cmd := &cobra.Command{
		Use:     "provenance [name]",
		GroupID: "inspect",
		Short:   "Show which source supplied each field",
		Long: `Provenance reads the file written by 'gamemeta run --provenance'. Without a
name it prints a report of every game; with a name it lists the field
history of that game.`,
		Example: `  gamemeta provenance
  gamemeta provenance "Alpha Game" --fields '*_rating,name'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				path = a.config.Provenance
			}
			if path == "" {
				path = constants.DefaultProvenancePath
			}

			f, err := provenance.Load(path)
			if err != nil {
				return err
			}
			if f == nil {
				return errors.NewNotFoundError("provenance file", path)
			}

			if len(args) == 0 {
				_, err := fmt.Fprint(cmd.OutOrStdout(), provenance.GenerateReport(f.Provenance).String())
				return err
			}

			name := strings.Join(args, " ")
			history := f.Provenance.Entity(name)
			for field := range history {
				if !table.MatchField(field, fields) {
					delete(history, field)
				}
			}
			if len(history) == 0 {
				return errors.NewNotFoundError("provenance", name)
			}
			return a.render(cmd, history, func(bool) table.Data {
				return table.ProvenanceToTableData(history)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "provenance file (default is the configured provenance path)")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "only show fields matching these patterns")
	return cmd
}
