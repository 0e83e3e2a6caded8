// Package cmd implements the cellsim CLI, modeled on armada's
// cmd/simulator/cmd (cobra root command, glob-pattern scenario inputs,
// armadacontext-flavored logging). It is pure external-driver glue:
// everything it calls into (internal/simconfig, internal/simulator,
// internal/omega, internal/mesos) is the core the spec describes.
package cmd

import (
	"github.com/spf13/cobra"
)

// RootCmd returns the cellsim root command with its run/validate
// subcommands attached.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cellsim",
		SilenceUsage: true,
		Short:        "Cluster-scheduling research simulator (Omega vs Mesos allocation).",
	}
	cmd.AddCommand(runCmd(), validateCmd())
	return cmd
}
