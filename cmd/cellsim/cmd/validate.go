package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/simconfig"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load scenario files and check them without running a simulation.",
		RunE:  validateScenarios,
	}
	cmd.Flags().String("scenarios", "", "Glob pattern (supports **) matching scenario YAML files to validate.")
	return cmd
}

func validateScenarios(cmd *cobra.Command, args []string) error {
	pattern, err := cmd.Flags().GetString("scenarios")
	if err != nil {
		return err
	}

	ctx := simcontext.Background()
	scenarios, err := simconfig.LoadPattern(pattern)
	if err != nil {
		return err
	}

	for i := range scenarios {
		s := &scenarios[i]
		if err := s.Validate(); err != nil {
			return err
		}
		if _, err := simconfig.Build(ctx, s); err != nil {
			return err
		}
		ctx.Infof("scenario %q: ok (%d machines, %d omega scheduler(s), %d job(s))",
			s.Name, s.Cell.NumMachines, len(s.OmegaSchedulers), len(s.Jobs))
	}
	return nil
}
