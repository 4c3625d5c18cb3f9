// Package report renders the portfolio as a markdown document, and as HTML for the REST surface.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/ranking"
	"github.com/simaogato/skinledger-backend/internal/usecase/valuation"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Currency is the ISO code prices are quoted in
const Currency = "GBP"

// FormatMoney renders an amount with the currency symbol and separators, e.g. £1,234.56
func FormatMoney(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

// FormatSigned is FormatMoney with an explicit + on gains
func FormatSigned(amount decimal.Decimal, code string) string {
	if amount.IsPositive() {
		return "+" + FormatMoney(amount, code)
	}
	return FormatMoney(amount, code)
}

func formatPct(pct decimal.Decimal) string {
	if pct.IsPositive() {
		return "+" + pct.StringFixed(2) + "%"
	}
	return pct.StringFixed(2) + "%"
}

// Markdown builds the portfolio report: totals, breakdown by type, then top gainers and losers
func Markdown(summary valuation.Summary, top ranking.Result, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Portfolio report\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n\n", now.UTC().Format("2006-01-02 15:04 MST"))

	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Items | %d |\n", summary.ItemCount)
	fmt.Fprintf(&b, "| Invested | %s |\n", FormatMoney(summary.TotalInvested, Currency))
	fmt.Fprintf(&b, "| Current value | %s |\n", FormatMoney(summary.TotalCurrentValue, Currency))
	fmt.Fprintf(&b, "| Profit / loss | %s |\n", FormatSigned(summary.TotalProfitLoss, Currency))
	fmt.Fprintf(&b, "| ROI | %s |\n\n", formatPct(summary.TotalROIPct))

	b.WriteString("## By type\n\n")
	if len(summary.ByType) == 0 {
		b.WriteString("_No investments yet._\n\n")
	} else {
		b.WriteString("| Type | Count | Cost basis |\n|---|---:|---:|\n")
		for _, t := range domain.ItemTypes() {
			breakdown, ok := summary.ByType[t]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %s |\n", t, breakdown.Count, FormatMoney(breakdown.Value, Currency))
		}
		b.WriteString("\n")
	}

	writePerformers(&b, "Top gainers", top.Gainers)
	writePerformers(&b, "Top losers", top.Losers)

	return b.String()
}

func writePerformers(b *strings.Builder, title string, performers []ranking.Performer) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(performers) == 0 {
		b.WriteString("_None._\n\n")
		return
	}

	b.WriteString("| Item | Change | Change % | Total P/L |\n|---|---:|---:|---:|\n")
	for _, p := range performers {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			escapeCell(p.Investment.ItemName),
			FormatSigned(p.PriceChange, Currency),
			formatPct(p.PriceChangePct),
			FormatSigned(p.TotalProfitLoss, Currency),
		)
	}
	b.WriteString("\n")
}

// Market hash names routinely contain "|"
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML renders a markdown report as a standalone HTML page
func HTML(md string) ([]byte, error) {
	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := renderer.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>Portfolio report</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}
