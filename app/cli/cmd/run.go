package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conflux/app/cli/cmd/common"
	"conflux/pkg/api"
	"conflux/pkg/util/context"

	tm "github.com/buger/goterm"
	"github.com/pkg/errors"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

type runOpts struct {
	watch       bool          // --watch
	params      []string      // --param
	parallelism int           // --parallelism
	refresh     time.Duration // --refresh
	metrics     bool          // --metrics
}

// NewRunCommand returns a new instance of a conflux command
func NewRunCommand() *cobra.Command {
	var opts runOpts
	command := &cobra.Command{
		Use:   "run FILE",
		Short: "run a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readPipeline(args[0])
			if err != nil {
				return err
			}
			params, err := parseParams(opts.params)
			if err != nil {
				return err
			}
			spec = withParams(spec, params)

			ctx := context.Background()
			e, err := newEngine(ctx, opts.parallelism)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			res := execute(ctx, e, spec, opts)
			common.PrintResult(cmd.OutOrStdout(), res)
			if opts.metrics {
				if err := printMetrics(cmd, e); err != nil {
					return err
				}
			}
			if res.Status != api.StatusCompleted {
				return errors.Errorf("pipeline %s finished with status %s", spec.ID, res.Status)
			}
			return nil
		},
	}
	command.Flags().BoolVarP(&opts.watch, "watch", "w", false, "watch the pipeline until it completes")
	command.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "pipeline parameter as key=value, may be repeated")
	command.Flags().IntVar(&opts.parallelism, "parallelism", 0, "maximum number of stages running at the same time")
	command.Flags().DurationVar(&opts.refresh, "refresh", 500*time.Millisecond, "refresh interval of --watch")
	command.Flags().BoolVar(&opts.metrics, "metrics", false, "print metrics once the pipeline is finished")

	return command
}

// execute runs the pipeline, cancelling it on interrupt.
func execute(ctx context.Context, e *engine, spec api.PipelineSpec, opts runOpts) api.PipelineResult {
	runID, c := e.sc.Start(ctx, spec)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	var ticker <-chan time.Time
	if opts.watch {
		t := time.NewTicker(opts.refresh)
		defer t.Stop()
		ticker = t.C
		tm.Clear()
	}
	for {
		select {
		case res := <-c:
			if opts.watch {
				watch(ctx, e, runID, spec)
			}
			return res
		case <-sig:
			if e.sc.Cancel(ctx, runID) {
				ctx.Logger().Warnf("cancellation requested for run %s, waiting for running stages", runID)
			}
		case <-ticker:
			watch(ctx, e, runID, spec)
		}
	}
}

func watch(ctx context.Context, e *engine, runID string, spec api.PipelineSpec) {
	state, err := e.sc.GetStatus(ctx, runID)
	if err != nil {
		ctx.Logger().Error(errors.Wrapf(err, "cannot get state of run %s", runID))
		return
	}
	tm.MoveCursor(1, 1)
	common.PrintPipeline(tm.Screen, state, common.PrintOptions{Order: stageIDs(spec)})
	tm.Flush()
}

func stageIDs(spec api.PipelineSpec) []string {
	ids := make([]string, len(spec.Stages))
	for i, s := range spec.Stages {
		ids[i] = s.ID
	}
	return ids
}

func printMetrics(cmd *cobra.Command, e *engine) error {
	families, err := e.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "cannot gather metrics")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.OutOrStdout(), mf); err != nil {
			return errors.Wrap(err, "cannot print metrics")
		}
	}
	return nil
}
