package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/simaogato/skinledger-backend/internal/usecase/ranking"
	"github.com/simaogato/skinledger-backend/internal/usecase/report"
)

type summaryCmd struct {
	top int
	raw bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio report" }
func (*summaryCmd) Usage() string {
	return `skinctl summary [-top n] [-raw]

  Displays totals, the breakdown by item type and the top gainers and losers.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.top, "top", ranking.DefaultLimit, "number of gainers and losers to show")
	f.BoolVar(&c.raw, "raw", false, "print markdown instead of rendering it")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		svc := a.portfolio()

		summary, err := svc.Summary(ctx)
		if err != nil {
			return err
		}
		top, err := svc.TopPerformers(ctx, c.top)
		if err != nil {
			return err
		}

		md := report.Markdown(summary.Summary, top, summary.GeneratedAt)
		if c.raw {
			_, err = fmt.Fprint(stdout, md)
			return err
		}
		return printMarkdown(md)
	})
}

// printMarkdown renders md for the terminal
func printMarkdown(md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = fmt.Fprint(stdout, out)
	return err
}
