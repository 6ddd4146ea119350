package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field names expected in the dataset header.
const (
	FieldDate       = "date"
	FieldDepartment = "department"
	FieldSoftware   = "software"
	FieldSeats      = "seats"
	FieldAmount     = "amount"
	FieldUser       = "user"
)

// RequiredFields lists the columns every dataset row must carry.
var RequiredFields = []string{FieldDate, FieldDepartment, FieldSoftware, FieldSeats, FieldAmount, FieldUser}

// dateKeyLen is the number of leading characters of the date column that matter.
const dateKeyLen = 10

type (
	// Record is one sales transaction line. Records are never mutated after load.
	Record struct {
		Date       string // raw date column; only DateKey() is compared
		Department string
		Software   string // product identifier
		Seats      int64
		Amount     Money
		User       string
	}
)

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidSeats  = errors.New("invalid seats")
	ErrInvalidAmount = errors.New("invalid amount")
)

// DateKey returns the significant YYYY-MM-DD prefix of the record date.
func (r Record) DateKey() string {
	if len(r.Date) <= dateKeyLen {
		return r.Date
	}
	return r.Date[:dateKeyLen]
}

// Year returns the calendar year of the record date.
func (r Record) Year() int {
	if len(r.Date) < 4 {
		return 0
	}
	y, _ := strconv.Atoi(r.Date[:4])
	return y
}

// Month returns the calendar month (1-12) of the record date.
func (r Record) Month() int {
	if len(r.Date) < 7 {
		return 0
	}
	m, _ := strconv.Atoi(r.Date[5:7])
	return m
}

// Equal compares two records field by field, amounts by value.
func (r Record) Equal(o Record) bool {
	return r.Date == o.Date &&
		r.Department == o.Department &&
		r.Software == o.Software &&
		r.Seats == o.Seats &&
		r.Amount.Equal(o.Amount) &&
		r.User == o.User
}

func (r Record) Validate() error {
	if len(r.Date) < dateKeyLen {
		return fmt.Errorf("%w: %q", ErrInvalidDate, r.Date)
	}
	if _, err := time.Parse("2006-01-02", r.DateKey()); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, r.Date)
	}
	if r.Seats < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeats, r.Seats)
	}
	if r.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// ParseRecord builds a validated Record from a row of named string fields.
// Missing columns and unparseable seats or amount are errors, never skipped.
func ParseRecord(fields map[string]string) (Record, error) {
	for _, name := range RequiredFields {
		if _, ok := fields[name]; !ok {
			return Record{}, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	seatsStr := strings.TrimSpace(fields[FieldSeats])
	seats, err := strconv.ParseInt(seatsStr, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidSeats, seatsStr)
	}

	amountStr := fields[FieldAmount]
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", err, amountStr)
	}

	rec := Record{
		Date:       strings.TrimSpace(fields[FieldDate]),
		Department: fields[FieldDepartment],
		Software:   fields[FieldSoftware],
		Seats:      seats,
		Amount:     amount,
		User:       fields[FieldUser],
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
