package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/simconfig"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or more scenario files and print final statistics.",
		RunE:  runScenarios,
	}
	cmd.Flags().String("scenarios", "", "Glob pattern (supports **) matching scenario YAML files to run.")
	cmd.Flags().Float64("wallClockTimeout", 0, "Wall-clock seconds to allow each scenario before aborting; 0 means no timeout.")
	return cmd
}

func runScenarios(cmd *cobra.Command, args []string) error {
	pattern, err := cmd.Flags().GetString("scenarios")
	if err != nil {
		return err
	}
	wallClockTimeoutSeconds, err := cmd.Flags().GetFloat64("wallClockTimeout")
	if err != nil {
		return err
	}

	ctx := simcontext.Background()
	ctx.Infof("cellsim: loading scenarios matching %q", pattern)

	scenarios, err := simconfig.LoadPattern(pattern)
	if err != nil {
		return err
	}
	ctx.Infof("cellsim: loaded %d scenario(s)", len(scenarios))

	builds := make([]*simconfig.Built, len(scenarios))
	for i := range scenarios {
		built, err := simconfig.Build(ctx, &scenarios[i])
		if err != nil {
			return err
		}
		builds[i] = built
	}

	g, gctx := simcontext.ErrGroup(ctx)
	for i, built := range builds {
		i, built := i, built
		g.Go(func() error {
			var timeout *time.Duration
			if wallClockTimeoutSeconds > 0 {
				d := time.Duration(wallClockTimeoutSeconds * float64(time.Second))
				timeout = &d
			}
			status, err := built.Sim.Run(built.Scenario.Run.RunTime, timeout)
			if err != nil {
				return err
			}
			if status == simulator.TimedOut {
				gctx.Warnf("scenario %d (%s) timed out", i, built.Scenario.Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, built := range builds {
		printSummary(ctx, i, built)
	}
	return nil
}

func printSummary(ctx *simcontext.Context, index int, built *simconfig.Built) {
	ctx.Infof("--- scenario %d: %s ---", index, built.Scenario.Name)
	ctx.Infof("cell: available_cpus=%.2f available_mem=%.2f", built.Cell.AvailableCpus(), built.Cell.AvailableMem())
	for name, o := range built.OmegaSchedulers {
		ctx.Infof("omega[%s]: successful=%d failed=%d retried=%d no_resources=%d timed_out=%d",
			name, o.NumSuccessfulTransactions, o.NumFailedTransactions, o.NumRetriedTransactions,
			o.NumNoResourcesFoundSchedulingAttempts, o.NumJobsTimedOutScheduling)
	}
	for name, m := range built.MesosSchedulers {
		ctx.Infof("mesos[%s]: successful=%d failed=%d no_resources=%d timed_out=%d",
			name, m.NumSuccessfulTransactions, m.NumFailedTransactions,
			m.NumNoResourcesFoundSchedulingAttempts, m.NumJobsTimedOutScheduling)
	}
	if built.MesosAllocator != nil {
		ctx.Infof("mesos allocator: time_spent_allocating=%.2f", built.MesosAllocator.TimeSpentAllocating())
	}
}
