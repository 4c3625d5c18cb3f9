package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/importer"
	"github.com/simaogato/skinledger-backend/internal/usecase/investment"
)

type addCmd struct {
	name     string
	itemType string
	price    string
	qty      int
	date     string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an investment" }
func (*addCmd) Usage() string {
	return `skinctl add -name <market name> -price <amount> [-type t] [-qty n] [-date YYYY-MM-DD]

  Adds one investment to the store.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Steam market hash name")
	f.StringVar(&c.itemType, "type", string(domain.DefaultItemType), "item type")
	f.StringVar(&c.price, "price", "", "purchase price per unit")
	f.IntVar(&c.qty, "qty", 1, "quantity")
	f.StringVar(&c.date, "date", "", "purchase date")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.newInvestment()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withApp(ctx, func(a *app) error {
		inv, err := a.investments().Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added %q (%s)\n", inv.ItemName, inv.ID)
		return nil
	})
}

func (c *addCmd) newInvestment() (investment.NewInvestment, error) {
	itemType, err := domain.ParseItemType(c.itemType)
	if err != nil {
		return investment.NewInvestment{}, err
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		return investment.NewInvestment{}, &domain.ValidationError{Field: "price", Reason: "must be a decimal number"}
	}

	in := investment.NewInvestment{
		ItemName:      c.name,
		ItemType:      itemType,
		PurchasePrice: price,
		Quantity:      c.qty,
	}
	if c.date != "" {
		d, err := time.Parse(time.DateOnly, c.date)
		if err != nil {
			return investment.NewInvestment{}, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
		in.PurchaseDate = &d
	}
	return in, nil
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import holdings from a TOML file" }
func (*importCmd) Usage() string {
	return `skinctl import <holdings.toml>

  Creates one investment per [[holding]] table. Names already in the store are skipped.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one file")
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	return withApp(ctx, func(a *app) error {
		result, err := importer.NewImportService(a.investments()).Import(ctx, file)
		fmt.Fprintf(stdout, "Imported %d, skipped %d, failed %d\n", len(result.Created), len(result.Skipped), result.Failed)
		return err
	})
}
