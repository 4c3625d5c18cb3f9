package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/simaogato/skinledger-backend/internal/usecase/report"
	"github.com/simaogato/skinledger-backend/internal/usecase/sorting"
)

type listCmd struct {
	sort     string
	order    string
	itemType string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list investments with their profit and loss" }
func (*listCmd) Usage() string {
	return `skinctl list [-sort field] [-order asc|desc] [-type t]

  Lists investments. Fields: item_name, item_type, purchase_price, current_price,
  quantity, created_at, profit_loss.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sort, "sort", string(sorting.FieldCreatedAt), "sort field")
	f.StringVar(&c.order, "order", string(sorting.Desc), "sort direction")
	f.StringVar(&c.itemType, "type", sorting.TypeAll, "only list this item type")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := sorting.ParseQuery(c.sort, c.order, c.itemType)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withApp(ctx, func(a *app) error {
		items, err := a.portfolio().Browse(ctx, q)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tQTY\tPAID\tCURRENT\tP/L")
		for _, item := range items {
			inv := item.Investment
			current, pl := "-", "-"
			if inv.HasCurrentPrice() {
				current = report.FormatMoney(*inv.CurrentPrice, report.Currency)
			}
			if item.Metrics.ProfitLoss != nil {
				pl = report.FormatSigned(*item.Metrics.ProfitLoss, report.Currency)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				inv.ID, inv.ItemName, inv.ItemType, inv.Quantity,
				report.FormatMoney(inv.PurchasePrice, report.Currency), current, pl)
		}
		return w.Flush()
	})
}
