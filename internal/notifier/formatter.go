package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ChartPress/internal/chart"
	"ChartPress/internal/generator"
)

// FormatChartCaption formats the caption sent with a chart image.
func FormatChartCaption(out *generator.Outcome) string {
	var b strings.Builder
	l := out.Layout
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>", html.EscapeString(l.Symbol)))
	if !strings.EqualFold(out.Requested, out.Symbol) {
		b.WriteString(fmt.Sprintf(" (%s)", html.EscapeString(out.Requested)))
	}
	b.WriteString("\n")

	if badge := l.Badge; badge != nil {
		cur := decimal.NewFromFloat(badge.Current)
		ref := decimal.NewFromFloat(badge.Reference)
		diff := cur.Sub(ref)
		icon := "🟢"
		if diff.IsNegative() {
			icon = "🔴"
		}
		b.WriteString(fmt.Sprintf("%s %s (%s", icon, cur.StringFixed(2), signed(diff)))
		if !ref.IsZero() {
			b.WriteString(fmt.Sprintf(", %s%%", signed(diff.Div(ref).Mul(decimal.NewFromInt(100)))))
		}
		b.WriteString(")\n")
	}

	b.WriteString(fmt.Sprintf("%d Punkte | %d Handelstage", out.Points, out.Days))
	if out.Warning != nil {
		b.WriteString(fmt.Sprintf("\n⚠️ nur %d von %d Handelstagen verfügbar", out.Warning.Days, out.Warning.Requested))
	}
	return b.String()
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if !d.IsNegative() {
		s = "+" + s
	}
	return s
}

// FormatBatchSummary formats the result of a batch run.
func FormatBatchSummary(res generator.BatchResult, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>ChartPress</b> | %s\n\n", now.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("✅ %d erstellt | ❌ %d fehlgeschlagen\n", len(res.Succeeded), len(res.Failed)))

	if len(res.Succeeded) > 0 {
		b.WriteString("\n")
	}
	for _, out := range res.Succeeded {
		line := html.EscapeString(out.Layout.Symbol)
		if badge := out.Layout.Badge; badge != nil {
			arrow := "▲"
			if badge.Direction == chart.DirectionDown {
				arrow = "▼"
			}
			line += fmt.Sprintf(" %s %s", arrow, decimal.NewFromFloat(badge.Current).StringFixed(2))
		}
		if out.Warning != nil {
			line += fmt.Sprintf(" ⚠️ %d/%d Tage", out.Warning.Days, out.Warning.Requested)
		}
		b.WriteString("• " + line + "\n")
	}

	if len(res.Failed) > 0 {
		b.WriteString("\n<b>Fehler:</b>\n")
	}
	for _, f := range res.Failed {
		b.WriteString(fmt.Sprintf("• %s [%s]: %s\n", html.EscapeString(f.Symbol), f.Stage, html.EscapeString(f.Err.Error())))
	}
	return b.String()
}

// HelpText lists the bot commands.
const HelpText = "Verfügbare Befehle:\n" +
	"• /chart SYMBOL: Chart für Ticker, ISIN oder WKN\n" +
	"• /batch: Charts für alle konfigurierten Symbole\n" +
	"• /symbols: konfigurierte Symbole\n" +
	"• /help: diese Hilfe"
