package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/pathwatch/path"
	"github.com/tailored-agentic-units/pathwatch/scenario"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario file and its path without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			p, err := s.ParsePath()
			if err != nil {
				return err
			}
			v, err := path.Validate(p, path.FullPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d objects, %d steps, path %s with %d segments)\n",
				args[0], len(s.Objects), len(s.Steps), v.Text(), v.Len())
			return nil
		},
	}
}
