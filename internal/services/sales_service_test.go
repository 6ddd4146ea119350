package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/records/memory"
)

type failingSource struct{ err error }

func (f failingSource) Load(context.Context) ([]core.Record, error) { return nil, f.err }

type countingSource struct {
	calls int
	recs  []core.Record
}

func (c *countingSource) Load(context.Context) ([]core.Record, error) {
	c.calls++
	return c.recs, nil
}

func rec(date, dept, software string, seats, cents int64, user string) core.Record {
	return core.Record{Date: date, Department: dept, Software: software, Seats: seats, Amount: core.Cents(cents), User: user}
}

func fixture() []core.Record {
	return []core.Record{
		rec("2022-08-05", "Marketing", "Outplay", 3, 1050, "alice"),
		rec("2022-08-20", "Marketing", "Zoom", 2, 400, "bob"),
		rec("2022-01-01", "Marketing", "Slack", 100, 99, "carol"),
		rec("2022-03-15", "Sales", "Outplay", 5, 1050, "dave"),
	}
}

func newService(t *testing.T, policy core.WindowPolicy) *SalesService {
	t.Helper()
	return NewSalesService(memory.New(fixture()), SalesConfig{TotalItemsPolicy: policy, QueryTimeout: time.Second}, nil)
}

func assertKind(t *testing.T, err error, want core.ErrorKind, wantMsg string) {
	t.Helper()
	var qe *core.QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *core.QueryError, got %T: %v", err, err)
	}
	if qe.Kind != want {
		t.Errorf("kind = %s, want %s", qe.Kind, want)
	}
	if wantMsg != "" && qe.Message != wantMsg {
		t.Errorf("message = %q, want %q", qe.Message, wantMsg)
	}
}

func TestSalesServiceTotalItems(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		policy core.WindowPolicy
		start  string
		end    string
		dept   string
		want   int64
	}{
		{"third quarter ignores months", "", "2022-01-01", "2022-02-01", "Marketing", 5},
		{"full year", core.PolicyFullYear, "2022-01-01", "2022-12-31", "Marketing", 105},
		{"supplied quarter", core.PolicySuppliedQuarter, "2022-01-10", "2022-02-01", "Sales", 5},
		{"unknown department", "", "2022-07-01", "2022-09-30", "Support", 0},
		{"empty department", "", "2022-07-01", "2022-09-30", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newService(t, tt.policy).TotalItems(ctx, tt.start, tt.end, tt.dept)
			if err != nil {
				t.Fatalf("TotalItems() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("TotalItems() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSalesServiceValidatesBeforeLoading(t *testing.T) {
	src := &countingSource{recs: fixture()}
	svc := NewSalesService(src, SalesConfig{}, nil)
	ctx := context.Background()

	_, err := svc.TotalItems(ctx, "2022", "2022-09-30", "Marketing")
	assertKind(t, err, core.KindInvalidInput, core.MsgMalformedDate)

	_, err = svc.NthMostItem(ctx, "volume", "2022-01-01", "2022-12-31", "1")
	assertKind(t, err, core.KindValidation, core.MsgInvalidItemBy)

	_, err = svc.NthMostItem(ctx, "price", "2022-01-01", "2022-12-31", "two")
	assertKind(t, err, core.KindInvalidInput, core.MsgInvalidRank)

	_, err = svc.NthMostItem(ctx, "price", "2022-01-01", "2022-12-31", "0")
	assertKind(t, err, core.KindValidation, core.MsgInvalidRank)

	_, err = svc.DepartmentPercentages(ctx, "2022-01-01", "bad")
	assertKind(t, err, core.KindInvalidInput, core.MsgMalformedDate)

	_, err = svc.MonthlySales(ctx, "Outplay", "22")
	assertKind(t, err, core.KindInvalidInput, core.MsgInvalidYear)

	if src.calls != 0 {
		t.Errorf("source loaded %d times for rejected queries", src.calls)
	}
}

func TestSalesServiceNthMostItem(t *testing.T) {
	svc := newService(t, "")
	ctx := context.Background()

	tests := []struct {
		by   string
		n    string
		want string
	}{
		{"quantity", "1", "Slack"},
		{"quantity", "2", "Outplay"},
		{"price", "1", "alice"},
		{"price", "2", "dave"},
		{"price", "4", "carol"},
	}
	for _, tt := range tests {
		t.Run(tt.by+"/"+tt.n, func(t *testing.T) {
			got, err := svc.NthMostItem(ctx, tt.by, "2022-01-01", "2022-12-31", tt.n)
			if err != nil {
				t.Fatalf("NthMostItem() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NthMostItem() = %q, want %q", got, tt.want)
			}
		})
	}

	_, err := svc.NthMostItem(ctx, "quantity", "2022-01-01", "2022-12-31", "5")
	assertKind(t, err, core.KindValidation, core.MsgRankOutOfRange)
}

func TestSalesServiceDepartmentPercentages(t *testing.T) {
	svc := newService(t, "")
	ctx := context.Background()

	got, err := svc.DepartmentPercentages(ctx, "2022-01-01", "2022-12-31")
	if err != nil {
		t.Fatalf("DepartmentPercentages() error = %v", err)
	}
	if got["Marketing"] != 95.45 || got["Sales"] != 4.55 {
		t.Errorf("DepartmentPercentages() = %v", got)
	}

	_, err = svc.DepartmentPercentages(ctx, "2030-01-01", "2030-12-31")
	assertKind(t, err, core.KindComputation, core.MsgInternal)
}

func TestSalesServiceMonthlySales(t *testing.T) {
	svc := newService(t, "")

	got, err := svc.MonthlySales(context.Background(), "Outplay", "2022")
	if err != nil {
		t.Fatalf("MonthlySales() error = %v", err)
	}
	if got[2] != 10.5 || got[7] != 10.5 {
		t.Errorf("MonthlySales() = %v", got)
	}
	if got[0] != 0 {
		t.Errorf("January should be empty, got %v", got[0])
	}
}

func TestSalesServiceSourceFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewSalesService(failingSource{err: boom}, SalesConfig{}, nil)

	_, err := svc.MonthlySales(context.Background(), "Outplay", "2022")
	assertKind(t, err, core.KindSource, core.MsgInternal)
	if !errors.Is(err, boom) {
		t.Errorf("source error should be wrapped, got %v", err)
	}
}
