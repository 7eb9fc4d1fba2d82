package app

import (
	"bufio"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/detail"
	"github.com/blackwell-systems/libraryctl/internal/listing"
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	"github.com/blackwell-systems/libraryctl/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book"},
		Short:   "List, show, add, edit and delete books",
	}
	cmd.AddCommand(
		newBooksListCmd(),
		newBooksShowCmd(),
		newBooksAddCmd(),
		newBooksEditCmd(),
		newBooksDeleteCmd(),
	)
	return cmd
}

func newBooksListCmd() *cobra.Command {
	var (
		page      int
		limit     int
		sortBy    string
		order     string
		client    bool
		genreFlag string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of books",
		Example: `  libraryctl books list
  libraryctl books list --page 2 --limit 20 --sort-by author --order desc
  libraryctl books list --client --sort-by copies`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := cfg.List.Controller()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				if !listing.ValidPageSize(limit) {
					return fmt.Errorf("%w: %d (want one of %v)", listing.ErrPageSize, limit, listing.PageSizes)
				}
				lc.PageSize = limit
			}
			if cmd.Flags().Changed("sort-by") || cmd.Flags().Changed("order") {
				field := sortBy
				if !cmd.Flags().Changed("sort-by") {
					field = lc.Sort.Field
				}
				if lc.Sort, err = listing.ParseSort(field, order); err != nil {
					return err
				}
			}
			if client {
				lc.Mode = listing.ClientMode
			}

			ctrl := listing.New(newQueryClient(), lc, logger)
			defer ctrl.Close()
			ctrl.SetPageIndex(page - 1)

			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := ctrl.Load(ctx); err != nil {
				return fmt.Errorf("listing books: %w", err)
			}
			snap := ctrl.Snapshot()

			rows := snap.Rows
			if genreFlag != "" {
				rows = catalog.Filter{Genre: catalog.Genre(strings.ToUpper(genreFlag))}.Apply(rows)
			}
			if len(rows) == 0 {
				warn("No books found")
				return nil
			}
			printBookTable(rows)
			fmt.Println()
			fmt.Println(color.HiBlackString("page %d of %d · %s · %s mode",
				snap.PageIndex+1, snap.PageCount(),
				util.Count(snap.Pagination.TotalBooks, "book", "books"), snap.Mode))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", listing.DefaultPageSize, "Books per page (5, 10, 20 or 50)")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "Sort column: "+strings.Join(catalog.SortFields, ", "))
	cmd.Flags().StringVar(&order, "order", "asc", "Sort order: asc or desc")
	cmd.Flags().BoolVar(&client, "client", false, "Fetch every book and page locally")
	cmd.Flags().StringVar(&genreFlag, "genre", "", "Only show books of this genre on the fetched page")
	return cmd
}

func printBookTable(books []catalog.Book) {
	color.New(color.Bold).Printf("%-26s  %-32s  %-20s  %-12s  %6s  %s\n",
		"ID", "TITLE", "AUTHOR", "GENRE", "COPIES", "STATUS")
	for _, b := range books {
		status := color.GreenString(b.Availability())
		if !b.Available {
			status = color.RedString(b.Availability())
		}
		fmt.Printf("%-26s  %-32s  %-20s  %-12s  %6d  %s\n",
			b.ID, util.Truncate(b.Title, 32), util.Truncate(b.Author, 20),
			color.CyanString("%-12s", b.Genre), b.Copies, status)
	}
}

func newBooksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := detail.New(newQueryClient(), logger)
			defer ctrl.Close()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			b, err := ctrl.Load(ctx, args[0])
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("book %s: %s", args[0], api.Message(err, "not found"))
			}
			if err != nil {
				return fmt.Errorf("loading book: %w", err)
			}
			printBook(b)
			return nil
		},
	}
}

func printBook(b catalog.Book) {
	header("Book: %s", b.ID)
	printField("title", b.Title)
	printField("author", b.Author)
	printField("genre", string(b.Genre))
	printField("isbn", b.ISBN)
	if b.Description != "" {
		printField("description", b.Description)
	}
	printField("copies", strconv.Itoa(b.Copies))
	if b.Available {
		printField("status", color.GreenString(b.Availability()))
	} else {
		printField("status", color.RedString(b.Availability()))
	}
}

// bookFlags binds one string flag per editable book field.
type bookFlags struct {
	title, author, genre, isbn, description, copies string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Book title")
	cmd.Flags().StringVar(&f.author, "author", "", "Author name")
	cmd.Flags().StringVar(&f.genre, "genre", "", "Genre: "+genreList())
	cmd.Flags().StringVar(&f.isbn, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&f.description, "description", "", "Short description")
	cmd.Flags().StringVar(&f.copies, "copies", "", "Number of copies")
}

// apply overwrites the fields of form whose flags were set.
func (f *bookFlags) apply(cmd *cobra.Command, form *catalog.BookForm) {
	set := func(name, value string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	set("title", f.title, &form.Title)
	set("author", f.author, &form.Author)
	set("genre", strings.ToUpper(f.genre), &form.Genre)
	set("isbn", f.isbn, &form.ISBN)
	set("description", f.description, &form.Description)
	set("copies", f.copies, &form.Copies)
}

func genreList() string {
	names := make([]string, len(catalog.Genres))
	for i, g := range catalog.Genres {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

// fieldErrors prints validation messages and returns a summary error.
func fieldErrors(err error) error {
	var fe catalog.FieldErrors
	if !errors.As(err, &fe) {
		return err
	}
	for _, field := range slices.Sorted(maps.Keys(fe)) {
		fmt.Fprintf(os.Stderr, "  %s %s\n", color.RedString(field+":"), fe[field])
	}
	return fmt.Errorf("invalid book: %d field(s) rejected", len(fe))
}

func newBooksAddCmd() *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Example: `  libraryctl books add --title "Dune" --author "Frank Herbert" \
    --genre FICTION --isbn 9780441013593 --copies 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := detail.NewCreateSession(newQueryClient(), logger)
			form := session.Form()
			flags.apply(cmd, &form)

			ctx, cancel := requestContext(cmd)
			defer cancel()
			res, err := session.Submit(ctx, form)
			if res.Outcome == detail.Invalid {
				return fieldErrors(err)
			}
			if err != nil {
				return err
			}
			ok("Added %q (%s)", res.Book.Title, res.Book.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newBooksEditCmd() *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a book; only the flags you pass are changed",
		Example: `  libraryctl books edit 01hx... --title "Dune Messiah"
  libraryctl books edit 01hx... --copies 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := newQueryClient()
			ctx, cancel := requestContext(cmd)
			defer cancel()

			b, err := q.Book(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading book: %w", err)
			}
			session := detail.NewEditSession(q, logger)
			session.Seed(b)
			form := session.Form()
			flags.apply(cmd, &form)

			res, err := session.Submit(ctx, form)
			switch {
			case res.Outcome == detail.Invalid:
				return fieldErrors(err)
			case err != nil:
				return err
			case res.Outcome == detail.Unchanged:
				warn("Nothing to change")
				return nil
			}
			ok("Updated %q (%s)", res.Book.Title, strings.Join(res.Patch.Fields(), ", "))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newBooksDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := newQueryClient()
			ctx, cancel := requestContext(cmd)
			defer cancel()

			b, err := q.Book(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading book: %w", err)
			}

			if !yes {
				if !util.IsTerminal(os.Stdin) {
					return fmt.Errorf("refusing to delete %q without --yes", b.Title)
				}
				fmt.Printf("Delete %q by %s? (y/N): ", b.Title, b.Author)
				answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Println(color.YellowString("Cancelled."))
					return nil
				}
			}

			deleter := mutation.NewDeleter(q, mutation.NewConsole(os.Stdout), logger)
			if err := deleter.Delete(ctx, b, catalog.ListQueryArgs{}); err != nil {
				return fmt.Errorf("deleting %s: %w", b.ID, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
