package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ftharness/pkg/ftharness/checkpoint"
)

func newInspectCmd(f *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the current checkpoint record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := f.settings(cmd)
			if err != nil {
				return err
			}
			store, err := checkpoint.Open(s.CheckpointBackend, s.CheckpointLocation, s.CheckpointKey)
			if err != nil {
				return fmt.Errorf("open checkpoint store: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			rec, err := store.Load()
			switch {
			case errors.Is(err, checkpoint.ErrNotFound):
				fmt.Fprintf(out, "%s: no checkpoint\n", s.CheckpointLocation)
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "%s: value=%d next_stage=%d\n", s.CheckpointLocation, rec.Value, rec.NextStage)
			return nil
		},
	}
}
