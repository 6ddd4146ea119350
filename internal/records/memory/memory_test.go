package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"salesdash/internal/core"
)

func TestMemoryStoreReplaceAndLoad(t *testing.T) {
	s := New(nil)
	recs, err := s.Load(context.Background())
	if err != nil || len(recs) != 0 {
		t.Fatalf("unexpected initial load: %v %v", recs, err)
	}
	v0, _ := s.Version(context.Background())

	id, err := s.ReplaceAll(context.Background(), "test", []core.Record{
		{Date: "2022-01-01", Department: "A", Software: "P", Seats: 1, Amount: core.Cents(123), User: "u"},
	})
	if err != nil || id != 1 {
		t.Fatalf("unexpected replace: id=%d err=%v", id, err)
	}
	v1, _ := s.Version(context.Background())
	if v0 == v1 {
		t.Fatal("version should change after ReplaceAll")
	}

	recs, _ = s.Load(context.Background())
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	recs[0].User = "mutated"
	again, _ := s.Load(context.Background())
	if again[0].User != "u" {
		t.Fatal("Load must return a copy")
	}

	if _, err := s.ReplaceAll(context.Background(), "test", []core.Record{{Date: "bad"}}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFromFile(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if recs, _ := s.Load(ctx); len(recs) != 0 {
		t.Fatalf("expected empty store, got %d", len(recs))
	}

	path := filepath.Join(dir, "sales_2022.csv")
	if _, err := NewFromFile(ctx, path, 0); err == nil {
		t.Fatal("expected error for missing seed file")
	}

	content := "date;department;software;seats;amount;user\n2022-01-01;A;P;2;3,5;u\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(ctx, path, ';')
	if err != nil {
		t.Fatal(err)
	}
	recs, _ := s.Load(ctx)
	if len(recs) != 1 || !recs[0].Amount.Equal(core.Cents(350)) {
		t.Fatalf("unexpected seed: %+v", recs)
	}

	if err := os.WriteFile(path, []byte("date\n2022\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(ctx, path, 0); err == nil {
		t.Fatal("expected error for malformed seed file")
	}
}
