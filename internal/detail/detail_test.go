package detail_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/blackwell-systems/libraryctl/internal/detail"
	"github.com/blackwell-systems/libraryctl/internal/query"
	"github.com/blackwell-systems/libraryctl/internal/query/querytest"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var dune = catalog.Book{
	ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: catalog.GenreFiction,
	ISBN: "9780441013593", Description: "Spice.", Copies: 3, Available: true,
}

var cosmos = catalog.Book{ID: "b2", Title: "Cosmos", Author: "Carl Sagan", Genre: catalog.GenreScience, ISBN: "1", Copies: 1, Available: true}

func TestLoad_Ready(t *testing.T) {
	q := query.New(querytest.New(dune), 0, nil)
	c := detail.New(q, nil)
	defer c.Close()

	var seen []detail.Status
	c.Subscribe(func(s detail.Snapshot) { seen = append(seen, s.Status) })

	if _, err := c.Load(context.Background(), "b1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := c.Snapshot()
	if diff := cmp.Diff(dune, snap.Book); diff != "" {
		t.Errorf("book mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]detail.Status{detail.StatusLoading, detail.StatusReady}, seen); diff != "" {
		t.Errorf("statuses (-want +got):\n%s", diff)
	}
}

func TestLoad_NotFound(t *testing.T) {
	q := query.New(querytest.New(), 0, nil)
	c := detail.New(q, nil)
	defer c.Close()

	if _, err := c.Load(context.Background(), "missing"); err == nil {
		t.Fatal("Load should fail")
	}
	snap := c.Snapshot()
	if !snap.NotFound() {
		t.Errorf("NotFound() = false, err = %v", snap.Err)
	}
	if snap.ErrMessage != "Book not found" {
		t.Errorf("ErrMessage = %q", snap.ErrMessage)
	}
}

func TestLoad_StaleIdentifierDropped(t *testing.T) {
	be := querytest.New(dune, cosmos)
	release := be.Gate(querytest.OpGet)
	q := query.New(be, 0, nil)
	c := detail.New(q, nil)
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = c.Load(context.Background(), "b1") }()
	time.Sleep(10 * time.Millisecond)
	go func() { defer wg.Done(); _, _ = c.Load(context.Background(), "b2") }()
	time.Sleep(10 * time.Millisecond)
	release()
	wg.Wait()

	snap := c.Snapshot()
	if snap.ID != "b2" || snap.Book.Title != "Cosmos" {
		t.Errorf("snapshot = %s %q, want b2 Cosmos", snap.ID, snap.Book.Title)
	}
}

func TestEditSession_TitleOnlySendsTitleAndAvailable(t *testing.T) {
	be := querytest.New(dune)
	q := query.New(be, 0, nil)
	s := detail.NewEditSession(q, nil)
	s.Seed(dune)

	form := s.Form()
	form.Title = "Dune Messiah"
	res, err := s.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != detail.Updated {
		t.Errorf("outcome = %v, want updated", res.Outcome)
	}
	if diff := cmp.Diff([]string{"title", "available"}, be.LastPatch.Fields()); diff != "" {
		t.Errorf("sent fields (-want +got):\n%s", diff)
	}
	if *be.LastPatch.Available != true {
		t.Error("available should be true for 3 copies")
	}
}

func TestEditSession_UnchangedMakesNoRequest(t *testing.T) {
	be := querytest.New(dune)
	s := detail.NewEditSession(query.New(be, 0, nil), nil)
	s.Seed(dune)

	res, err := s.Submit(context.Background(), s.Form())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != detail.Unchanged {
		t.Errorf("outcome = %v, want unchanged", res.Outcome)
	}
	if n := be.Calls(querytest.OpUpdate); n != 0 {
		t.Errorf("update calls = %d, want 0", n)
	}
}

func TestEditSession_PaddedValuesUnchanged(t *testing.T) {
	padded := dune
	padded.Title = "Dune "
	padded.Author = " Frank Herbert"
	be := querytest.New(padded)
	s := detail.NewEditSession(query.New(be, 0, nil), nil)
	s.Seed(padded)

	res, err := s.Submit(context.Background(), s.Form())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != detail.Unchanged {
		t.Errorf("outcome = %v (fields %v), want unchanged", res.Outcome, res.Patch.Fields())
	}
	if n := be.Calls(querytest.OpUpdate); n != 0 {
		t.Errorf("update calls = %d, want 0", n)
	}
}

func TestEditSession_SeedsOnce(t *testing.T) {
	s := detail.NewEditSession(query.New(querytest.New(), 0, nil), nil)
	if !s.Seed(dune) {
		t.Fatal("first Seed should take the snapshot")
	}
	changed := dune
	changed.Title = "Refetched"
	if s.Seed(changed) {
		t.Error("second Seed should be ignored")
	}
	if s.Form().Title != "Dune" {
		t.Errorf("form title = %q, want Dune", s.Form().Title)
	}
}

func TestEditSession_ValidationBlocksNetwork(t *testing.T) {
	be := querytest.New(dune)
	s := detail.NewEditSession(query.New(be, 0, nil), nil)
	s.Seed(dune)

	form := s.Form()
	form.Title = "  "
	form.Copies = "-2"
	res, err := s.Submit(context.Background(), form)
	var fe catalog.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if res.Outcome != detail.Invalid || res.Errors["title"] == "" || res.Errors["copies"] == "" {
		t.Errorf("result = %+v", res)
	}
	if be.Calls(querytest.OpUpdate) != 0 {
		t.Error("invalid form reached the network")
	}
}

func TestEditSession_CopiesToZeroClearsAvailability(t *testing.T) {
	be := querytest.New(dune)
	s := detail.NewEditSession(query.New(be, 0, nil), nil)
	s.Seed(dune)
	form := s.Form()
	form.Copies = "0"
	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if be.Books()[0].Available {
		t.Error("book should be unavailable with 0 copies")
	}
}

func TestEditSession_NotSeeded(t *testing.T) {
	s := detail.NewEditSession(query.New(querytest.New(), 0, nil), nil)
	if _, err := s.Submit(context.Background(), catalog.BookForm{}); !errors.Is(err, detail.ErrNotSeeded) {
		t.Errorf("err = %v, want ErrNotSeeded", err)
	}
}

func TestUpdate_MarksDetailStale(t *testing.T) {
	be := querytest.New(dune)
	q := query.New(be, 0, nil)
	c := detail.New(q, nil)
	defer c.Close()
	ctx := context.Background()
	_, _ = c.Load(ctx, "b1")

	s := detail.NewEditSession(q, nil)
	s.Seed(c.Snapshot().Book)
	form := s.Form()
	form.Author = "F. Herbert"
	if _, err := s.Submit(ctx, form); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !c.Snapshot().Stale {
		t.Fatal("detail view should be stale after an update")
	}
	b, err := c.Load(ctx, "b1")
	if err != nil || b.Author != "F. Herbert" {
		t.Errorf("reload = %+v, %v", b, err)
	}
}

func TestCreateSession_PostsDerivedAvailability(t *testing.T) {
	be := querytest.New()
	s := detail.NewCreateSession(query.New(be, 0, nil), nil)
	form := s.Form()
	form.Title, form.Author, form.ISBN, form.Copies = "Anathem", "Neal Stephenson", "42", "0"

	res, err := s.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != detail.Created || res.Book == nil {
		t.Fatalf("result = %+v", res)
	}
	want := catalog.BookInput{Title: "Anathem", Author: "Neal Stephenson", Genre: catalog.GenreFiction, ISBN: "42"}
	if diff := cmp.Diff(want, be.LastCreate); diff != "" {
		t.Errorf("create body (-want +got):\n%s", diff)
	}
}
