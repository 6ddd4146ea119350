package core

// Filter narrows a record sequence. Nil predicates are not applied.
type Filter struct {
	Window     *Window
	Department *string
	Product    *string
}

// Match reports whether r satisfies every predicate set on f.
func (f Filter) Match(r Record) bool {
	if f.Window != nil && !f.Window.Contains(r.DateKey()) {
		return false
	}
	if f.Department != nil && r.Department != *f.Department {
		return false
	}
	if f.Product != nil && r.Software != *f.Product {
		return false
	}
	return true
}

// Apply returns the matching records in source order. The input is not modified.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterYearProduct selects records of product whose date falls in year.
// No window logic: the year prefix of the date is compared directly.
func FilterYearProduct(records []Record, year int, product string) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.Software == product && r.Year() == year {
			out = append(out, r)
		}
	}
	return out
}
