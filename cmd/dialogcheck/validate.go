package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgast/dialogcheck/pkg/suite"
)

func newValidateCmd(a *app) *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "validate <suite.yaml>...",
		Short: "Check suite files for structural errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			invalid := 0
			for _, path := range args {
				s, err := suite.LoadSuite(path, p)
				if err != nil {
					return fmt.Errorf("load suite: %w", err)
				}
				vr := suite.ValidateSuite(s)
				if vr.Valid() {
					fmt.Fprintf(cmd.OutOrStdout(), "Suite %q is valid (%d cases).\n", s.Meta.Name, len(s.Cases))
					continue
				}
				invalid++
				printValidation(cmd.OutOrStdout(), path, vr)
			}
			if invalid > 0 {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Suite parameter as key=value (repeatable)")
	return cmd
}
