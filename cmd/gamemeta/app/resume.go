package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/gamemeta/internal/checkpoint"
	"github.com/agentstation/gamemeta/internal/cmd/table"
	"github.com/agentstation/gamemeta/internal/workqueue"
)

// ResumePoint describes where the next run starts.
type ResumePoint struct {
	Total    int    `json:"total" yaml:"total"`
	Done     int    `json:"done" yaml:"done"`
	LastName string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Next     string `json:"next,omitempty" yaml:"next,omitempty"`
}

// NewResumeCommand creates the resume command.
func (a *App) NewResumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resume",
		GroupID: "inspect",
		Short:   "Show where the next run resumes",
		Long: `Resume matches the last stored record against the work queue and prints the
queue position the next run starts from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			point, err := a.resumePoint(cmd)
			if err != nil {
				return err
			}
			return a.render(cmd, point, func(bool) table.Data {
				return table.Data{
					Headers: []string{"Property", "Value"},
					Rows: [][]string{
						{"Queue", fmt.Sprintf("%d", point.Total)},
						{"Done", fmt.Sprintf("%d", point.Done)},
						{"Last stored", orNone(point.LastName)},
						{"Next", orNone(point.Next)},
					},
				}
			})
		},
	}

	c := a.config
	cmd.Flags().StringVarP(&c.Input, "input", "i", c.Input, "work queue CSV file")
	cmd.Flags().StringVar(&c.Column, "column", c.Column, "work queue column holding game names")
	cmd.Flags().StringVarP(&c.Output, "output", "o", c.Output, "output store")
	return cmd
}

func (a *App) resumePoint(cmd *cobra.Command) (ResumePoint, error) {
	queue, err := workqueue.Load(a.config.Input, a.config.Column)
	if err != nil {
		return ResumePoint{}, err
	}
	store, err := checkpoint.OpenStore(a.config.Output)
	if err != nil {
		return ResumePoint{}, err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	start, err := checkpoint.NewManager(store).ResumeIndex(ctx, queue)
	if err != nil {
		return ResumePoint{}, err
	}
	last, err := store.LastName(ctx)
	if err != nil {
		return ResumePoint{}, err
	}

	point := ResumePoint{Total: len(queue), Done: start, LastName: last}
	if start < len(queue) {
		point.Next = queue[start]
	}
	return point, nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
