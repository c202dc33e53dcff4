package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"literature-search-be/pkg/smartsearch"

	"github.com/spf13/cobra"
)

func newResumeCmd() *cobra.Command {
	var (
		stepBack string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Load a persisted session and print where it stands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			wf, err := smartsearch.New(ctx, newGateway(), smartsearch.WithLogger(cliLogger()))
			if err != nil {
				return err
			}
			state, err := wf.Resume(ctx, args[0])
			if err != nil {
				return err
			}
			if stepBack != "" {
				target, err := smartsearch.ParseStage(stepBack)
				if err != nil {
					return err
				}
				if state, err = wf.StepBack(ctx, target); err != nil {
					return err
				}
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}
			printState(state)
			return nil
		},
	}
	cmd.Flags().StringVar(&stepBack, "step-back", "", "reset the session to this stage after loading it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full state as JSON")
	return cmd
}

func printState(state smartsearch.State) {
	step("Session %s", state.SessionID)
	detail("stage:          %s", state.Stage)
	detail("last completed: %s", state.LastCompleted)
	detail("question:       %s", state.Question)
	if kw := state.Keywords.Submitted; kw != "" {
		detail("keywords:       %s", kw)
	}
	detail("strictness:     %s", state.Strictness)
	detail("sources:        %v", state.Sources)
	if search := state.Results.Search; search != nil {
		detail("articles:       %d of %d", len(search.Articles), search.Pagination.TotalAvailable)
	}
	if filtered := state.Results.Filter; filtered != nil {
		okColor.Printf("    accepted:       %d\n", filtered.Accepted())
	}
	if len(state.History) > 0 {
		fmt.Println()
		step("Keyword history")
		for _, h := range state.History {
			detail("%-12s %6d  %s", h.Provenance, h.Count, h.Query)
		}
	}
}
