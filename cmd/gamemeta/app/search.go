package app

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/gamemeta/internal/cmd/table"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/logging"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// NewSearchCommand creates the search command.
func (a *App) NewSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "search <source> <name>",
		GroupID: "core",
		Short:   "Query a single source",
		Long: `Search sends one query to a source and prints the candidates it returns,
without identity checks, retries or checkpointing.

Sources: rawg, igdb, hltb, gamespot, metacritic`,
		Example: `  gamemeta search rawg "Alpha Game"
  gamemeta search hltb Alpha Game --limit 3 --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := sources.ID(strings.ToLower(args[0]))
			if !id.IsValid() {
				return errors.NewValidationError("source", args[0], "unknown source "+args[0])
			}
			name := strings.Join(args[1:], " ")

			provider, err := a.Source(id)
			if err != nil {
				return err
			}

			ctx := logging.WithSource(logging.WithOperation(logging.WithLogger(cmd.Context(), a.logger), "search"), id.String())
			candidates, err := provider.Search(ctx, name, limit)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Debug().Str("name", name).Int("candidates", len(candidates)).Msg("Search finished")

			return a.render(cmd, candidates, func(bool) table.Data {
				return table.CandidatesToTableData(candidates)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", constants.DefaultSearchDisplayLimit, "number of candidates to request")
	return cmd
}
