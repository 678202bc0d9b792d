// Package grid renders the product list as a text table with the toolbar above it.
package grid

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"productdesk/internal/models"
	"productdesk/internal/store"

	"github.com/shopspring/decimal"
)

// Title is the heading of the main view.
const Title = "Product Management System"

// Toolbar actions.
const (
	ActionAdd     = "Add Product"
	ActionRefresh = "Refresh"
)

// Row actions.
const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Column describes one grid column.
type Column struct {
	Header    string
	DataIndex string
}

var columns = []Column{
	{Header: "ID", DataIndex: "id"},
	{Header: "Name", DataIndex: "name"},
	{Header: "Description", DataIndex: "description"},
	{Header: "Price", DataIndex: "price"},
	{Header: "Quantity", DataIndex: "quantity"},
	{Header: "Actions"},
}

// Columns returns the grid columns in display order.
func Columns() []Column {
	return append([]Column(nil), columns...)
}

// FormatPrice renders a price as "$" followed by two decimals.
func FormatPrice(price decimal.Decimal) string {
	return "$" + price.StringFixed(models.PricePlaces)
}

// Rows returns the cell text of every record, one row per record.
func Rows(records []store.Record) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		id := ""
		if r.ID != nil {
			id = strconv.FormatInt(*r.ID, 10)
		}
		rows[i] = []string{
			id,
			r.Name,
			r.Description,
			FormatPrice(r.Price),
			strconv.Itoa(r.Quantity),
			ActionEdit + " | " + ActionDelete,
		}
	}
	return rows
}

// RowAt returns the record shown at a zero-based row index.
func RowAt(records []store.Record, index int) (store.Record, bool) {
	if index < 0 || index >= len(records) {
		return store.Record{}, false
	}
	return records[index], true
}

// Render writes the title, the toolbar and the table to w.
func Render(w io.Writer, records []store.Record) error {
	if _, err := fmt.Fprintf(w, "%s\n[%s] [%s]\n\n", Title, ActionAdd, ActionRefresh); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	fmt.Fprintln(tw, "#\t"+strings.Join(headers, "\t"))
	for i, row := range Rows(records) {
		fmt.Fprintln(tw, strconv.Itoa(i+1)+"\t"+strings.Join(sanitize(row), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d product(s)\n", len(records))
	return err
}

// sanitize keeps cell text on one line so it cannot break the table.
func sanitize(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(cell)
	}
	return out
}
