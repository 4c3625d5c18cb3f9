package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/simaogato/skinledger-backend/internal/bootstrap"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/refresh"
)

type refreshCmd struct {
	id string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "fetch current prices from the Steam market" }
func (*refreshCmd) Usage() string {
	return `skinctl refresh [-id <investment id>]

  Refreshes one investment, or every investment when -id is omitted.
  Upstream calls are paced by REFRESH_CALL_INTERVAL.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "investment id")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var id uuid.UUID
	if c.id != "" {
		var err error
		if id, err = uuid.Parse(c.id); err != nil {
			fmt.Fprintf(stderr, "Error: invalid id %q\n", c.id)
			return subcommands.ExitUsageError
		}
	}

	return withApp(ctx, func(a *app) error {
		source, err := bootstrap.NewPriceSource(ctx, a.cfg.Steam, a.cfg.Cache, nil, a.log)
		if err != nil {
			return err
		}
		defer source.Close()

		orchestrator := refresh.NewOrchestrator(a.store.Investments, a.store.PriceHistory, source,
			bootstrap.OrchestratorConfig(a.cfg.Refresh), refresh.WithLogger(a.log))

		if id != uuid.Nil {
			outcome, err := orchestrator.RefreshOne(ctx, id)
			if err != nil {
				return err
			}
			printOutcome(outcome)
			return nil
		}

		started := time.Now()
		summary, err := orchestrator.RefreshAll(ctx)
		if err != nil {
			return err
		}
		for _, o := range summary.Outcomes {
			printOutcome(o)
		}
		fmt.Fprintf(stdout, "%d items: %d updated, %d failed, %d rate limited, %d unchanged, %d skipped in %s\n",
			summary.Total, summary.Updated, summary.Failed, summary.RateLimited, summary.Unchanged, summary.Skipped,
			time.Since(started).Round(time.Second))
		return nil
	})
}

func printOutcome(o domain.RefreshOutcome) {
	switch {
	case o.Price != nil:
		fmt.Fprintf(stdout, "%s  %-12s %s\n", o.InvestmentID, o.Status, o.Price.StringFixed(2))
	case o.Reason != "":
		fmt.Fprintf(stdout, "%s  %-12s %s\n", o.InvestmentID, o.Status, o.Reason)
	default:
		fmt.Fprintf(stdout, "%s  %s\n", o.InvestmentID, o.Status)
	}
}

type pruneCmd struct {
	days int
}

func (*pruneCmd) Name() string     { return "prune" }
func (*pruneCmd) Synopsis() string { return "delete old price history" }
func (*pruneCmd) Usage() string {
	return `skinctl prune [-days n]

  Deletes price snapshots older than n days.
`
}

func (c *pruneCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 90, "days of history to keep")
}

func (c *pruneCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.days < 1 {
		fmt.Fprintln(stderr, "Error: -days must be at least 1")
		return subcommands.ExitUsageError
	}

	return withApp(ctx, func(a *app) error {
		scheduler := refresh.NewScheduler(nil, a.store.PriceHistory,
			refresh.SchedulerConfig{Retention: time.Duration(c.days) * 24 * time.Hour}, a.log)

		removed, err := scheduler.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %d snapshots\n", removed)
		return nil
	})
}
