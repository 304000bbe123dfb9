// Package render formats result views for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/refine"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	itemStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	priceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

var (
	titleCaser = cases.Title(language.English)
	numPrinter = message.NewPrinter(language.English)
)

// FormatResults renders one result view: a query headline, each item as
// a bordered block and a pagination footer.
func FormatResults(q core.SearchQuery, items []core.ResultItem, pg refine.Pagination) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(headline(q)))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(noDataStyle.Render("No results. Adjust dates or filters and try again."))
		b.WriteString("\n")
		return b.String()
	}

	for _, item := range items {
		b.WriteString(itemStyle.Render(formatItem(item)))
		b.WriteString("\n")
	}

	b.WriteString(metaStyle.Render(footer(pg)))
	b.WriteString("\n")
	return b.String()
}

func headline(q core.SearchQuery) string {
	switch q.Domain {
	case core.DomainFlight:
		return fmt.Sprintf("Flights %s → %s on %s", q.Origin, q.Destination, q.StartDate.Format("Mon, 2 Jan 2006"))
	case core.DomainHotel:
		line := fmt.Sprintf("Hotels in %s from %s", q.Location, q.StartDate.Format("2 Jan 2006"))
		if !q.EndDate.IsZero() {
			line += " to " + q.EndDate.Format("2 Jan 2006")
		}
		return line
	case core.DomainCar:
		return fmt.Sprintf("Cars at %s from %s", q.Location, q.StartDate.Format("2 Jan 2006"))
	default:
		return titleCaser.String(string(q.Domain)) + " results"
	}
}

func formatItem(item core.ResultItem) string {
	var lines []string

	name := item.StringField("name")
	if name == "" {
		name = item.ID
	}
	lines = append(lines, nameStyle.Render(name)+"  "+priceStyle.Render(Price(item)))

	switch item.Kind {
	case "flight":
		route := fmt.Sprintf("%s → %s", item.StringField("origin"), item.StringField("destination"))
		if dur, ok := item.NumberField("duration_minutes"); ok && dur > 0 {
			route += fmt.Sprintf("  %dh%02dm", int(dur)/60, int(dur)%60)
		}
		if item.BoolField("direct") {
			route += "  direct"
		} else if stops, ok := item.NumberField("stops"); ok {
			route += fmt.Sprintf("  %d stop(s)", int(stops))
		}
		lines = append(lines, route)
		if airline := item.StringField("airline"); airline != "" {
			lines = append(lines, metaStyle.Render(airline+" · "+titleCaser.String(item.StringField("cabin_class"))))
		}
	case "hotel":
		detail := item.StringField("city")
		if rating, ok := item.NumberField("rating"); ok && rating > 0 {
			detail += fmt.Sprintf("  %.1f/10", rating)
		}
		if stars, ok := item.NumberField("star_rating"); ok && stars > 0 {
			detail += "  " + strings.Repeat("★", int(stars))
		}
		lines = append(lines, detail)
		if item.BoolField("free_cancellation") {
			lines = append(lines, metaStyle.Render("free cancellation"))
		}
	case "car":
		detail := titleCaser.String(item.StringField("category"))
		if vendor := item.StringField("vendor"); vendor != "" {
			detail += "  " + vendor
		}
		if seats, ok := item.NumberField("seats"); ok && seats > 0 {
			detail += fmt.Sprintf("  %d seats", int(seats))
		}
		lines = append(lines, detail)
	}

	return strings.Join(lines, "\n")
}

// Price formats an item price in major units with thousands separators.
// Items without a known price render a placeholder, never a number.
func Price(item core.ResultItem) string {
	if !item.PriceKnown {
		return "price unavailable"
	}
	major := float64(item.Price) / 100
	return numPrinter.Sprintf("%s %.2f", item.Currency, major)
}

func footer(pg refine.Pagination) string {
	if pg.TotalPages <= 1 {
		return numPrinter.Sprintf("%d result(s)", pg.TotalResults)
	}
	return numPrinter.Sprintf("Page %d of %d · %d result(s)", pg.CurrentPage, pg.TotalPages, pg.TotalResults)
}
