package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/google/go-cmp/cmp"
)

var sampleBooks = []catalog.Book{
	{ID: "b1", Title: "dune", Author: "Herbert", Genre: catalog.GenreFiction, ISBN: "111", Copies: 3, Available: true},
	{ID: "b2", Title: "Cosmos", Author: "Sagan", Genre: catalog.GenreScience, ISBN: "222", Copies: 0},
	{ID: "b3", Title: "Beowulf", Author: "Unknown", Genre: catalog.GenreFantasy, ISBN: "333", Copies: 1, Available: true},
}

func ids(books []catalog.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

// --- Genre ---

func TestGenre_Valid(t *testing.T) {
	for _, g := range catalog.Genres {
		if !g.Valid() {
			t.Errorf("%q should be valid", g)
		}
	}
	if catalog.Genre("POETRY").Valid() {
		t.Error("POETRY should not be valid")
	}
}

// --- JSON shape ---

func TestBook_DecodesUnderscoreID(t *testing.T) {
	var b catalog.Book
	data := []byte(`{"_id":"abc123","title":"T","author":"A","genre":"HISTORY","isbn":"9","copies":2,"available":true}`)
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if b.ID != "abc123" {
		t.Errorf("ID = %q, want %q", b.ID, "abc123")
	}
	if b.Genre != catalog.GenreHistory {
		t.Errorf("Genre = %q, want %q", b.Genre, catalog.GenreHistory)
	}
}

func TestBookPatch_OnlySetFieldsSerialize(t *testing.T) {
	title := "New"
	avail := true
	data, err := json.Marshal(catalog.BookPatch{Title: &title, Available: &avail})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{"title": "New", "available": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patch body mismatch (-want +got):\n%s", diff)
	}
}

// --- Validation ---

func TestValidateBook_Valid(t *testing.T) {
	in, errs := catalog.ValidateBook(catalog.BookForm{
		Title: " Dune ", Author: "Herbert", Genre: "FICTION", ISBN: "123", Copies: "2",
	})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if in.Title != "Dune" {
		t.Errorf("Title = %q, want trimmed %q", in.Title, "Dune")
	}
	if !in.Available {
		t.Error("Available should be derived true for 2 copies")
	}
}

func TestValidateBook_Errors(t *testing.T) {
	_, errs := catalog.ValidateBook(catalog.BookForm{Genre: "POETRY", Copies: "-1"})
	want := catalog.FieldErrors{
		"title":  "Title is required.",
		"author": "Author is required.",
		"genre":  "Genre must be one of the predefined values",
		"isbn":   "ISBN is required.",
		"copies": "Copies must be a positive number",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateBook_NonNumericCopies(t *testing.T) {
	_, errs := catalog.ValidateBook(catalog.BookForm{
		Title: "T", Author: "A", Genre: "FICTION", ISBN: "1", Copies: "many",
	})
	if errs["copies"] == "" {
		t.Errorf("expected copies error, got %v", errs)
	}
	if len(errs) != 1 {
		t.Errorf("expected only copies error, got %v", errs)
	}
}

func TestValidateBook_DerivedAvailability(t *testing.T) {
	for _, copies := range []string{"0", "1", "7"} {
		in, errs := catalog.ValidateBook(catalog.BookForm{
			Title: "T", Author: "A", Genre: "SCIENCE", ISBN: "1", Copies: copies,
		})
		if errs != nil {
			t.Fatalf("copies=%s: %v", copies, errs)
		}
		if in.Available != (in.Copies > 0) {
			t.Errorf("copies=%d: Available = %v", in.Copies, in.Available)
		}
	}
}

func TestWithDerivedAvailability_IgnoresCaller(t *testing.T) {
	in := catalog.BookInput{Copies: 0, Available: true}.WithDerivedAvailability()
	if in.Available {
		t.Error("Available must be false for 0 copies regardless of caller")
	}
}

// --- Diff ---

func TestDiff_TitleOnly(t *testing.T) {
	orig := catalog.InputFromBook(sampleBooks[0])
	cur := orig
	cur.Title = "Dune Messiah"

	p := catalog.Diff(orig, cur)
	if diff := cmp.Diff([]string{"title", "available"}, p.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if !*p.Available {
		t.Error("Available should be recomputed as true")
	}
}

func TestDiff_Unchanged(t *testing.T) {
	orig := catalog.InputFromBook(sampleBooks[1])
	p := catalog.Diff(orig, orig)
	if !p.Empty() {
		t.Errorf("expected empty patch, got fields %v", p.Fields())
	}
	if p.Available != nil {
		t.Error("empty patch should not carry availability")
	}
}

func TestDiff_CopiesToZero(t *testing.T) {
	orig := catalog.InputFromBook(sampleBooks[0])
	cur := orig
	cur.Copies = 0
	p := catalog.Diff(orig, cur)
	if p.Copies == nil || *p.Copies != 0 {
		t.Fatalf("Copies = %v, want 0", p.Copies)
	}
	if *p.Available {
		t.Error("Available should be false for 0 copies")
	}
}

func TestApplyPatch(t *testing.T) {
	copies := 0
	b := catalog.ApplyPatch(sampleBooks[0], catalog.BookPatch{Copies: &copies})
	if b.Available {
		t.Error("ApplyPatch should re-derive availability")
	}
	if b.Title != sampleBooks[0].Title {
		t.Error("ApplyPatch changed an unset field")
	}
}

// --- Sorting / filtering ---

func TestSortBooks(t *testing.T) {
	cases := []struct {
		field string
		desc  bool
		want  []string
	}{
		{catalog.SortTitle, false, []string{"b3", "b2", "b1"}},
		{catalog.SortTitle, true, []string{"b1", "b2", "b3"}},
		{catalog.SortCopies, false, []string{"b2", "b3", "b1"}},
		{catalog.SortAvailable, false, []string{"b2", "b1", "b3"}},
		{"isbn", false, []string{"b1", "b2", "b3"}},
	}
	for _, c := range cases {
		got := ids(catalog.SortBooks(sampleBooks, c.field, c.desc))
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("SortBooks(%s, desc=%v) mismatch (-want +got):\n%s", c.field, c.desc, diff)
		}
	}
	if sampleBooks[0].ID != "b1" {
		t.Error("SortBooks mutated its input")
	}
}

func TestFilter_Apply(t *testing.T) {
	got := ids(catalog.Filter{Search: "sag"}.Apply(sampleBooks))
	if diff := cmp.Diff([]string{"b2"}, got); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}
	got = ids(catalog.Filter{Genre: catalog.GenreFantasy}.Apply(sampleBooks))
	if diff := cmp.Diff([]string{"b3"}, got); diff != "" {
		t.Errorf("genre mismatch (-want +got):\n%s", diff)
	}
}

func TestByID(t *testing.T) {
	if b := catalog.ByID(sampleBooks, "b2"); b == nil || b.Title != "Cosmos" {
		t.Errorf("ByID(b2) = %v", b)
	}
	if catalog.ByID(sampleBooks, "nope") != nil {
		t.Error("ByID should return nil for a missing book")
	}
}

// --- RemoveBook delta ---

func TestRemoveBook_ApplyRevert(t *testing.T) {
	page := catalog.BookPage{Books: sampleBooks}
	d := catalog.NewRemoveBook("b2")

	patched := d.Apply(page)
	if diff := cmp.Diff([]string{"b1", "b3"}, ids(patched.Books)); diff != "" {
		t.Errorf("after Apply (-want +got):\n%s", diff)
	}
	if len(page.Books) != 3 {
		t.Error("Apply mutated the original page")
	}

	restored := d.Revert(patched)
	if diff := cmp.Diff(sampleBooks, restored.Books); diff != "" {
		t.Errorf("after Revert (-want +got):\n%s", diff)
	}
}

func TestRemoveBook_MissingIsNoop(t *testing.T) {
	page := catalog.BookPage{Books: sampleBooks}
	d := catalog.NewRemoveBook("zzz")
	if got := d.Apply(page); len(got.Books) != 3 {
		t.Errorf("Apply of missing book changed page: %v", ids(got.Books))
	}
	if d.Removed() {
		t.Error("Removed() should be false")
	}
	if got := d.Revert(page); len(got.Books) != 3 {
		t.Error("Revert without Apply changed page")
	}
}

func TestRemoveBook_IndependentReverts(t *testing.T) {
	page := catalog.BookPage{Books: sampleBooks}
	first := catalog.NewRemoveBook("b1")
	second := catalog.NewRemoveBook("b3")

	page = first.Apply(page)
	page = second.Apply(page)
	page = first.Revert(page)

	if diff := cmp.Diff([]string{"b1", "b2"}, ids(page.Books)); diff != "" {
		t.Errorf("reverting one removal touched the other (-want +got):\n%s", diff)
	}
}

// --- ListQueryArgs ---

func TestListQueryArgs_Key(t *testing.T) {
	a := catalog.ListQueryArgs{Page: 1, Limit: 10, SortBy: "title", SortOrder: "asc"}
	if got, want := a.Key(), "limit=10&page=1&sort=asc&sortBy=title"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if a.Key() != (catalog.ListQueryArgs{SortOrder: "asc", SortBy: "title", Limit: 10, Page: 1}).Key() {
		t.Error("equal args should produce equal keys")
	}
	if got := (catalog.ListQueryArgs{}).Key(); got != "*" {
		t.Errorf("zero args Key() = %q, want %q", got, "*")
	}
}

func TestListQueryArgs_NoSortOmitsSortParams(t *testing.T) {
	v := catalog.ListQueryArgs{Page: 2, Limit: 5}.Values()
	if v.Has("sortBy") || v.Has("sort") {
		t.Errorf("unsorted args should not carry sort params: %v", v)
	}
	if v.Get("page") != "2" {
		t.Errorf("page = %q, want 2", v.Get("page"))
	}
}

// --- Paginate ---

func makeBooks(n int) []catalog.Book {
	out := make([]catalog.Book, n)
	for i := range out {
		out[i] = catalog.Book{ID: string(rune('a'+i%26)) + string(rune('0'+i/26)), Copies: 1, Available: true}
	}
	return out
}

func TestPaginate_FirstOfThree(t *testing.T) {
	rows, meta := catalog.Paginate(makeBooks(25), 1, 10)
	want := catalog.Pagination{CurrentPage: 1, TotalPages: 3, TotalBooks: 25, Limit: 10, HasNextPage: true}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 10 {
		t.Errorf("len(rows) = %d, want 10", len(rows))
	}
}

func TestPaginate_LastPartialPage(t *testing.T) {
	rows, meta := catalog.Paginate(makeBooks(25), 3, 10)
	if len(rows) != 5 {
		t.Errorf("len(rows) = %d, want 5", len(rows))
	}
	if meta.HasNextPage || !meta.HasPrevPage {
		t.Errorf("meta = %+v", meta)
	}
}

func TestPaginate_Empty(t *testing.T) {
	rows, meta := catalog.Paginate(nil, 1, 10)
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %#v, want empty slice", rows)
	}
	if meta.TotalPages != 0 || meta.HasNextPage || meta.HasPrevPage {
		t.Errorf("meta = %+v", meta)
	}
}

func TestPaginate_PastEnd(t *testing.T) {
	rows, _ := catalog.Paginate(makeBooks(3), 5, 2)
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}
