package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ItemBy selects the ranking key of the nth most item query.
type ItemBy string

const (
	ItemByQuantity ItemBy = "quantity"
	ItemByPrice    ItemBy = "price"
)

var (
	ErrInvalidItemBy  = errors.New("invalid item_by")
	ErrInvalidRank    = errors.New("rank must be positive")
	ErrRankOutOfRange = errors.New("rank exceeds available items")
	ErrNoItems        = errors.New("no items sold in window")
)

func (b ItemBy) IsValid() bool {
	return b == ItemByQuantity || b == ItemByPrice
}

// TotalItems sums seats over records inside w sold by department.
func TotalItems(records []Record, w Window, department string) int64 {
	var total int64
	for _, r := range (Filter{Window: &w, Department: &department}).Apply(records) {
		total += r.Seats
	}
	return total
}

// RankItems returns the records inside w ordered by descending key.
// Records with equal keys keep their source order.
func RankItems(records []Record, w Window, by ItemBy) ([]Record, error) {
	if !by.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemBy, string(by))
	}
	items := Filter{Window: &w}.Apply(records)
	switch by {
	case ItemByQuantity:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Seats > items[j].Seats })
	case ItemByPrice:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Amount.Cmp(items[j].Amount) > 0 })
	}
	return items, nil
}

// NthMostItem returns the product of the nth record by seats, or the user of
// the nth record by amount. n is 1-based.
func NthMostItem(records []Record, w Window, by ItemBy, n int) (string, error) {
	items, err := RankItems(records, w, by)
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidRank, n)
	}
	if n > len(items) {
		return "", fmt.Errorf("%w: n=%d, items=%d", ErrRankOutOfRange, n, len(items))
	}
	nth := items[n-1]
	if by == ItemByQuantity {
		return nth.Software, nil
	}
	return nth.User, nil
}

// DepartmentSeats groups seats by department for records inside w.
func DepartmentSeats(records []Record, w Window) (map[string]int64, int64) {
	byDept := make(map[string]int64)
	var total int64
	for _, r := range (Filter{Window: &w}).Apply(records) {
		byDept[r.Department] += r.Seats
		total += r.Seats
	}
	return byDept, total
}

// DepartmentPercentages returns each department's share of seats sold inside w,
// rounded to two decimals. ErrNoItems is returned when nothing was sold.
func DepartmentPercentages(records []Record, w Window) (map[string]float64, error) {
	byDept, total := DepartmentSeats(records, w)
	if total == 0 {
		return nil, ErrNoItems
	}
	out := make(map[string]float64, len(byDept))
	for dept, seats := range byDept {
		out[dept] = round2(float64(seats) / float64(total) * 100)
	}
	return out, nil
}

// MonthlyTotals sums amounts of product per calendar month of year.
// Index 0 is January.
func MonthlyTotals(records []Record, year int, product string) [12]Money {
	var months [12]Money
	for _, r := range FilterYearProduct(records, year, product) {
		m := r.Month()
		if m < 1 || m > 12 {
			continue
		}
		months[m-1] = months[m-1].Add(r.Amount)
	}
	return months
}

// MonthlySales is MonthlyTotals rendered as decimal amounts.
func MonthlySales(records []Record, year int, product string) [12]float64 {
	var out [12]float64
	for i, m := range MonthlyTotals(records, year, product) {
		out[i] = m.Float()
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
