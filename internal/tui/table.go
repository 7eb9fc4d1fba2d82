package tui

import (
	"strconv"

	"github.com/blackwell-systems/libraryctl/internal/borrowing"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/listing"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// BookColumn describes one column of the books table.
type BookColumn struct {
	Title string
	Field string // sort field, empty when the column is not sortable
	Width int    // relative weight
}

// BookColumns are the books table columns in display order. Sort keys 1-5
// map to the sortable columns in this order.
var BookColumns = []BookColumn{
	{Title: "Title", Field: catalog.SortTitle, Width: 6},
	{Title: "Author", Field: catalog.SortAuthor, Width: 4},
	{Title: "Genre", Field: catalog.SortGenre, Width: 3},
	{Title: "ISBN", Width: 3},
	{Title: "Copies", Field: catalog.SortCopies, Width: 2},
	{Title: "Availability", Field: catalog.SortAvailable, Width: 3},
}

// SortFieldForKey maps a digit key to a sortable column field.
func SortFieldForKey(k string) (string, bool) {
	n, err := strconv.Atoi(k)
	if err != nil || n < 1 {
		return "", false
	}
	for _, c := range BookColumns {
		if c.Field == "" {
			continue
		}
		if n--; n == 0 {
			return c.Field, true
		}
	}
	return "", false
}

// SortIndicator returns the header suffix for field under s.
func SortIndicator(s listing.Sort, field string) string {
	if field == "" || s.Field != field {
		return ""
	}
	if s.Desc {
		return " ▼"
	}
	return " ▲"
}

// TableColumns lays the book columns out across width cells.
func TableColumns(width int, s listing.Sort) []table.Column {
	total := 0
	for _, c := range BookColumns {
		total += c.Width
	}
	// cell padding of the default table styles
	usable := max(width-2*len(BookColumns), len(BookColumns)*4)
	cols := make([]table.Column, len(BookColumns))
	for i, c := range BookColumns {
		cols[i] = table.Column{
			Title: c.Title + SortIndicator(s, c.Field),
			Width: usable * c.Width / total,
		}
	}
	return cols
}

// TableRows converts books to table rows.
func TableRows(books []catalog.Book) []table.Row {
	rows := make([]table.Row, len(books))
	for i, b := range books {
		rows[i] = table.Row{
			b.Title,
			b.Author,
			string(b.Genre),
			b.ISBN,
			strconv.Itoa(b.Copies),
			b.Availability(),
		}
	}
	return rows
}

// NewBookTable creates a focused table with the shared styles.
func NewBookTable() table.Model {
	t := table.New(table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorGray).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// SummaryColumns lays out the borrow summary columns.
func SummaryColumns(width int, s listing.Sort) []table.Column {
	usable := max(width-6, 30)
	return []table.Column{
		{Title: "Title" + SortIndicator(s, borrowing.SortTitle), Width: usable * 5 / 10},
		{Title: "ISBN" + SortIndicator(s, borrowing.SortISBN), Width: usable * 3 / 10},
		{Title: "Total Quantity" + SortIndicator(s, borrowing.SortQuantity), Width: usable * 2 / 10},
	}
}

// SummaryRows converts summary items to table rows.
func SummaryRows(items []catalog.BorrowSummaryItem) []table.Row {
	rows := make([]table.Row, len(items))
	for i, it := range items {
		rows[i] = table.Row{it.Book.Title, it.Book.ISBN, strconv.Itoa(it.TotalQuantity)}
	}
	return rows
}
