package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/records"
)

// SalesConfig tunes the query behaviour of SalesService.
type SalesConfig struct {
	// TotalItemsPolicy widens the total items date range, core.PolicyThirdQuarter by default.
	TotalItemsPolicy core.WindowPolicy
	// QueryTimeout bounds a single dataset load; zero disables the bound.
	QueryTimeout time.Duration
}

// SalesService answers the four sales questions over a record source.
// Every call loads the dataset afresh through the source; any caching lives
// in the source itself.
type SalesService struct {
	source records.Source
	config SalesConfig
	logger *applog.Logger
}

func NewSalesService(source records.Source, config SalesConfig, logger *applog.Logger) *SalesService {
	if config.TotalItemsPolicy == "" {
		config.TotalItemsPolicy = core.PolicyThirdQuarter
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SalesService{
		source: source,
		config: config,
		logger: logger.WithComponent(applog.ComponentQuery),
	}
}

// TotalItems sums seats sold by department inside the total items window.
func (s *SalesService) TotalItems(ctx context.Context, startDate, endDate, department string) (int64, error) {
	const op = applog.OpTotalItems

	w, err := s.config.TotalItemsPolicy.Resolve(startDate, endDate)
	if err != nil {
		return 0, classify(op, err)
	}
	recs, err := s.load(ctx, op)
	if err != nil {
		return 0, err
	}

	total := core.TotalItems(recs, w, department)
	s.logger.DebugContext(ctx, "Computed total items",
		applog.NewFields().WithWindow(w.Start, w.End).WithQuery(department, "", "", 0).WithRecords(len(recs)).ToSlice()...)
	return total, nil
}

// NthMostItem returns the product (by quantity) or user (by price) ranked n
// inside the full-year window. n arrives unparsed from the caller.
func (s *SalesService) NthMostItem(ctx context.Context, itemBy, startDate, endDate, n string) (string, error) {
	const op = applog.OpNthMostItem

	by := core.ItemBy(itemBy)
	if !by.IsValid() {
		return "", classify(op, fmt.Errorf("%w: %q", core.ErrInvalidItemBy, itemBy))
	}
	rank, err := strconv.Atoi(n)
	if err != nil {
		return "", core.NewQueryError(core.KindInvalidInput, op, core.MsgInvalidRank, fmt.Errorf("parse n %q: %w", n, err))
	}
	if rank < 1 {
		return "", classify(op, fmt.Errorf("%w: %d", core.ErrInvalidRank, rank))
	}
	w, err := core.FullYearWindow(startDate, endDate)
	if err != nil {
		return "", classify(op, err)
	}
	recs, err := s.load(ctx, op)
	if err != nil {
		return "", err
	}

	item, err := core.NthMostItem(recs, w, by, rank)
	if err != nil {
		return "", classify(op, err)
	}
	return item, nil
}

// DepartmentPercentages returns each department's share of seats sold in the
// full-year window.
func (s *SalesService) DepartmentPercentages(ctx context.Context, startDate, endDate string) (map[string]float64, error) {
	const op = applog.OpDeptPercentage

	w, err := core.FullYearWindow(startDate, endDate)
	if err != nil {
		return nil, classify(op, err)
	}
	recs, err := s.load(ctx, op)
	if err != nil {
		return nil, err
	}

	pct, err := core.DepartmentPercentages(recs, w)
	if err != nil {
		return nil, classify(op, err)
	}
	return pct, nil
}

// MonthlySales returns the amount of product sold in each month of year.
func (s *SalesService) MonthlySales(ctx context.Context, product, year string) ([12]float64, error) {
	const op = applog.OpMonthlySales

	y, err := core.ParseYear(year)
	if err != nil {
		return [12]float64{}, core.NewQueryError(core.KindInvalidInput, op, core.MsgInvalidYear, err)
	}
	recs, err := s.load(ctx, op)
	if err != nil {
		return [12]float64{}, err
	}
	return core.MonthlySales(recs, y, product), nil
}

func (s *SalesService) load(ctx context.Context, op string) ([]core.Record, error) {
	if s.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.QueryTimeout)
		defer cancel()
	}
	recs, err := s.source.Load(ctx)
	if err != nil {
		return nil, core.NewQueryError(core.KindSource, op, core.MsgInternal, fmt.Errorf("load dataset: %w", err))
	}
	return recs, nil
}

// classify tags a core sentinel error with the kind the transport maps to a status.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, core.ErrMalformedDate):
		return core.NewQueryError(core.KindInvalidInput, op, core.MsgMalformedDate, err)
	case errors.Is(err, core.ErrInvalidItemBy):
		return core.NewQueryError(core.KindValidation, op, core.MsgInvalidItemBy, err)
	case errors.Is(err, core.ErrInvalidRank):
		return core.NewQueryError(core.KindValidation, op, core.MsgInvalidRank, err)
	case errors.Is(err, core.ErrRankOutOfRange):
		return core.NewQueryError(core.KindValidation, op, core.MsgRankOutOfRange, err)
	case errors.Is(err, core.ErrNoItems):
		return core.NewQueryError(core.KindComputation, op, core.MsgInternal, err)
	default:
		return core.NewQueryError(core.KindInternal, op, core.MsgInternal, err)
	}
}
