package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"10.5", "10.5", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.005", true}, // no rounding
		{"10.0045", "10.0045", true},
		{" 2.50 ", "2.5", true},
		{".5", "0.5", true},
		{"7.", "7", true},
		{"0", "0", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
		{"1.٣", "", false}, // arabic-indic digit
		{"١٢", "", false},
		{"1.２", "", false}, // fullwidth digit
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %s", tc.in, got)
			}
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	if got := Cents(1050).Float(); got != 10.5 {
		t.Fatalf("Float() = %v, want 10.5", got)
	}
	if got := Cents(25).Add(Cents(75)); !got.Equal(Cents(100)) {
		t.Fatalf("Add() = %s, want 1", got)
	}

	third, _ := ParseAmount("0.333")
	var sum Money
	for i := 0; i < 3; i++ {
		sum = sum.Add(third)
	}
	if sum.String() != "0.999" || sum.Float() != 0.999 {
		t.Fatalf("sum of thirds = %s, want 0.999", sum)
	}

	a, _ := ParseAmount("10.001")
	b, _ := ParseAmount("10.004")
	if a.Cmp(b) >= 0 || b.Cmp(a) <= 0 || a.Cmp(a) != 0 {
		t.Fatalf("Cmp does not order %s < %s", a, b)
	}
	if got := a.Add(b).Float(); got != 20.005 {
		t.Fatalf("Add().Float() = %v, want 20.005", got)
	}
}
