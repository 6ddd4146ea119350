// Package http provides HTTP server and handler implementations.
//
// This file extracts query parameters for the sales endpoints. Values are
// passed on verbatim: department and product must match the dataset exactly,
// and dates and numbers are validated by the sales service.

package http

import (
	"net/url"

	applog "salesdash/internal/log"
)

// Query parameter names.
const (
	ParamStartDate  = "start_date"
	ParamEndDate    = "end_date"
	ParamDepartment = "department"
	ParamItemBy     = "item_by"
	ParamN          = "n"
	ParamProduct    = "product"
	ParamYear       = "year"
)

// DateRangeParams holds the raw start and end of a date range.
type DateRangeParams struct {
	StartDate string
	EndDate   string
}

// TotalItemsParams holds the parameters of /api/total_items.
type TotalItemsParams struct {
	DateRangeParams
	Department string
}

// NthMostItemParams holds the parameters of /api/nth_most_total_item.
type NthMostItemParams struct {
	DateRangeParams
	ItemBy string
	N      string
}

// MonthlySalesParams holds the parameters of /api/monthly_sales.
type MonthlySalesParams struct {
	Product string
	Year    string
}

// ParseDateRangeParams extracts start_date and end_date.
func ParseDateRangeParams(query url.Values) DateRangeParams {
	return DateRangeParams{
		StartDate: query.Get(ParamStartDate),
		EndDate:   query.Get(ParamEndDate),
	}
}

// ParseTotalItemsParams extracts the total items parameters.
func ParseTotalItemsParams(query url.Values) TotalItemsParams {
	return TotalItemsParams{
		DateRangeParams: ParseDateRangeParams(query),
		Department:      query.Get(ParamDepartment),
	}
}

// ParseNthMostItemParams extracts the nth most item parameters.
func ParseNthMostItemParams(query url.Values) NthMostItemParams {
	return NthMostItemParams{
		DateRangeParams: ParseDateRangeParams(query),
		ItemBy:          query.Get(ParamItemBy),
		N:               query.Get(ParamN),
	}
}

// ParseMonthlySalesParams extracts the monthly sales parameters.
func ParseMonthlySalesParams(query url.Values) MonthlySalesParams {
	return MonthlySalesParams{
		Product: query.Get(ParamProduct),
		Year:    query.Get(ParamYear),
	}
}

// LogFields renders the parameters for structured logs.
func (p DateRangeParams) LogFields() applog.LogFields {
	return applog.NewFields().WithWindow(sanitizeInput(p.StartDate), sanitizeInput(p.EndDate))
}

func (p TotalItemsParams) LogFields() applog.LogFields {
	fields := p.DateRangeParams.LogFields()
	fields[applog.FieldDepartment] = sanitizeInput(p.Department)
	return fields
}

func (p NthMostItemParams) LogFields() applog.LogFields {
	fields := p.DateRangeParams.LogFields()
	fields[applog.FieldItemBy] = sanitizeInput(p.ItemBy)
	fields[applog.FieldRank] = sanitizeInput(p.N)
	return fields
}

func (p MonthlySalesParams) LogFields() applog.LogFields {
	fields := applog.NewFields()
	fields[applog.FieldProduct] = sanitizeInput(p.Product)
	fields[applog.FieldYear] = sanitizeInput(p.Year)
	return fields
}
