package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/borrowing"
	"github.com/blackwell-systems/libraryctl/internal/listing"
	"github.com/blackwell-systems/libraryctl/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBorrowCmd() *cobra.Command {
	var (
		quantity string
		due      string
	)

	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Borrow copies of a book",
		Long: `Record a borrow transaction. Quantity defaults to 1 and the due date
to tomorrow. Dates are YYYY-MM-DD (local midnight), RFC 3339, or
"YYYY-MM-DD HH:MM", and must be in the future.`,
		Example: `  libraryctl borrow 01hx... --quantity 2 --due 2026-12-01
  libraryctl borrow summary --sort-by quantity --order desc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := newQueryClient()
			ctx, cancel := requestContext(cmd)
			defer cancel()

			now := time.Now()
			form := borrowing.DefaultForm(args[0], now)
			if cmd.Flags().Changed("quantity") {
				form.Quantity = quantity
			}
			if cmd.Flags().Changed("due") {
				form.DueDate = due
			}

			rec, err := borrowing.NewController(q, nil, logger).Borrow(ctx, form)
			if err != nil {
				return fieldErrors(err)
			}

			title := rec.Book
			if b, err := q.Book(ctx, rec.Book); err == nil {
				title = b.Title
			}
			ok("Borrowed %s of %q, due %s (%s)",
				util.Count(rec.Quantity, "copy", "copies"), title,
				rec.DueDate.Local().Format("2006-01-02"), util.DueIn(rec.DueDate, now))
			return nil
		},
	}
	cmd.Flags().StringVarP(&quantity, "quantity", "n", "1", "Number of copies")
	cmd.Flags().StringVar(&due, "due", "", "Due date (default: tomorrow)")

	cmd.AddCommand(newBorrowSummaryCmd())
	return cmd
}

func newBorrowSummaryCmd() *cobra.Command {
	var (
		sortBy string
		order  string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show borrowed quantity per book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum := borrowing.NewSummary(newQueryClient(), logger)
			defer sum.Close()

			if sortBy != "" {
				sort, err := summarySort(sortBy, order)
				if err != nil {
					return err
				}
				sum.SetSort(sort)
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := sum.Load(ctx); err != nil {
				return fmt.Errorf("loading borrow summary: %w", err)
			}
			snap := sum.Snapshot()
			if snap.Empty() {
				warn("Nothing is borrowed")
				return nil
			}

			color.New(color.Bold).Printf("%-40s  %-17s  %8s\n", "TITLE", "ISBN", "QUANTITY")
			for _, item := range snap.Rows {
				fmt.Printf("%-40s  %-17s  %8d\n", util.Truncate(item.Book.Title, 40), item.Book.ISBN, item.TotalQuantity)
			}
			fmt.Println()
			fmt.Println(color.HiBlackString("%s across %s",
				util.Count(snap.TotalQuantity(), "copy", "copies"),
				util.Count(len(snap.Rows), "book", "books")))
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "Sort column: "+strings.Join(borrowing.SummaryFields, ", "))
	cmd.Flags().StringVar(&order, "order", "asc", "Sort order: asc or desc")
	return cmd
}

func summarySort(field, order string) (listing.Sort, error) {
	valid := false
	for _, f := range borrowing.SummaryFields {
		valid = valid || f == field
	}
	if !valid {
		return listing.Sort{}, fmt.Errorf("column %q is not sortable (want one of %s)", field, strings.Join(borrowing.SummaryFields, ", "))
	}
	switch strings.ToLower(order) {
	case "", "asc":
		return listing.Sort{Field: field}, nil
	case "desc":
		return listing.Sort{Field: field, Desc: true}, nil
	}
	return listing.Sort{}, fmt.Errorf("unknown sort order %q (want asc or desc)", order)
}
