// Package report renders stock snapshots and the legacy cartridge status
// into fixed-width text and HTML email bodies. Everything here is pure
// formatting: no I/O, deterministic given input.
package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/northriverboats/gear-inventory-check/internal/domain/models"
)

const minNameWidth = 20

// FormatTable renders stock records as a fixed-width table, one line per
// record: name left-aligned and padded, quantity right-aligned to two
// decimal places.
func FormatTable(records []models.StockRecord) string {
	width := nameWidth(records)

	var b strings.Builder
	for _, record := range records {
		fmt.Fprintf(&b, "    %-*s  %10.2f\n", width, record.Name, record.Quantity)
	}
	return b.String()
}

// Diff compares two snapshots by product id and reports every product whose
// quantity moved, appeared, or disappeared between them. Products absent
// from one side are treated as quantity zero on that side.
func Diff(previous, current []models.StockRecord) []models.StockChange {
	prior := make(map[int64]models.StockRecord, len(previous))
	for _, record := range previous {
		prior[record.ID] = record
	}

	var changes []models.StockChange
	for _, record := range current {
		before, existed := prior[record.ID]
		delete(prior, record.ID)
		if existed && before.Quantity == record.Quantity {
			continue
		}
		changes = append(changes, models.StockChange{
			ID:       record.ID,
			Name:     record.Name,
			Previous: before.Quantity,
			Current:  record.Quantity,
			Delta:    record.Quantity - before.Quantity,
		})
	}

	// Whatever is left existed yesterday and vanished today.
	for _, record := range prior {
		changes = append(changes, models.StockChange{
			ID:       record.ID,
			Name:     record.Name,
			Previous: record.Quantity,
			Current:  0,
			Delta:    -record.Quantity,
		})
	}

	return changes
}

// FormatDiff renders stock changes as a fixed-width table: name, previous
// quantity, current quantity, signed delta. Empty input yields an empty
// string.
func FormatDiff(changes []models.StockChange) string {
	width := minNameWidth
	for _, change := range changes {
		if len(change.Name) > width {
			width = len(change.Name)
		}
	}

	var b strings.Builder
	for _, change := range changes {
		fmt.Fprintf(&b, "    %-*s  %10.2f  %10.2f  %+10.2f\n",
			width, change.Name, change.Previous, change.Current, change.Delta)
	}
	return b.String()
}

// FormatCartridgeReport renders the legacy cartridge rows in both plain text
// and HTML. Each line shows name, single-letter code, part number, level and
// status, column-aligned.
func FormatCartridgeReport(rows []models.CartridgeStatus) (string, string) {
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "    %-20s  %-4s  %s  %5s  %s\n",
			row.Cartridge, "("+row.Letter+")", row.Part, row.Level, row.Status)
	}
	text := b.String()
	return text, "<pre>" + html.EscapeString(text) + "</pre>"
}

// SnapshotEmailBody builds the HTML body for the daily snapshot email: the
// day-over-day changes first, then the full current stock levels.
func SnapshotEmailBody(diffTable, stockTable string) string {
	var b strings.Builder
	if diffTable == "" {
		b.WriteString("<p>No stock changes since the previous snapshot</p>\n")
	} else {
		b.WriteString("<p>Stock changes since the previous snapshot</p>\n")
		b.WriteString("<pre>" + html.EscapeString(diffTable) + "</pre>\n")
	}
	b.WriteString("<br />\n")
	b.WriteString("<p>These are the current stock levels</p>\n")
	b.WriteString("<pre>" + html.EscapeString(stockTable) + "</pre>\n")
	return b.String()
}

// ReorderAlertBody builds the legacy reorder-alert HTML body: the low
// cartridges first, then the overall levels.
func ReorderAlertBody(low, status string) string {
	return fmt.Sprintf(`<p>Time to order some more of the following inkjet ink</p>
<pre>%s</pre>
<br />
<p>These are the overall cartridge levels</p>
<pre>%s</pre>
`, html.EscapeString(low), html.EscapeString(status))
}

// StatusReportBody builds the legacy status-report HTML body with a link to
// the detail page when one is configured.
func StatusReportBody(status, detailURL string) string {
	var b strings.Builder
	b.WriteString("<p>These are the overall cartridge levels</p>\n")
	b.WriteString("<pre>" + html.EscapeString(status) + "</pre>\n")
	if detailURL != "" {
		fmt.Fprintf(&b, `<p>For more details please click <a href="%s">here</a>.</p>`+"\n", detailURL)
	}
	return b.String()
}

func nameWidth(records []models.StockRecord) int {
	width := minNameWidth
	for _, record := range records {
		if len(record.Name) > width {
			width = len(record.Name)
		}
	}
	return width
}
