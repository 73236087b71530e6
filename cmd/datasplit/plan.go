package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/datasplit/internal/config"
	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
	splituc "github.com/kailas-cloud/datasplit/internal/usecase/split"
)

// runPlan computes the split without touching the output tree and prints a summary.
// The images directory is not required.
func runPlan(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	src := newSource(cfg)
	if err := src.Check(false); err != nil {
		return err
	}

	plan, err := planSplit(ctx, cfg, src, nil, logger)
	if err != nil {
		return err
	}
	return printPlan(out, plan)
}

// printPlan writes the per-class allocation followed by the merged split sizes.
func printPlan(out io.Writer, plan splituc.Plan) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "seed %d, policy %s, ratios %g/%g/%g\n",
		plan.Seed, plan.Policy, plan.Ratios.Train, plan.Ratios.Val, plan.Ratios.Test)
	fmt.Fprintln(tw, "class\tfiles\ttrain\tval\ttest\t")
	for _, cls := range plan.Index.Classes() {
		sl := plan.Slices[cls]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", cls, sl.Len(), len(sl.Train), len(sl.Val), len(sl.Test))
	}

	counts := plan.Assignment.Counts()
	fmt.Fprintf(tw, "assigned\t%d\t%d\t%d\t%d\t\n",
		plan.Assignment.Len(), counts[domsplit.Train], counts[domsplit.Val], counts[domsplit.Test])

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("print plan: %w", err)
	}
	return nil
}
