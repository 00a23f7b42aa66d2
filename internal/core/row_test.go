package core

import (
	"encoding/json"
	"testing"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		name      string
		in        any
		wantKnown bool
		wantValue int
	}{
		{name: "nil is unknown", in: nil, wantKnown: false},
		{name: "int", in: 7, wantKnown: true, wantValue: 7},
		{name: "zero is known", in: 0, wantKnown: true, wantValue: 0},
		{name: "negative int is unknown", in: -3, wantKnown: false},
		{name: "json float", in: float64(12), wantKnown: true, wantValue: 12},
		{name: "json number", in: json.Number("24"), wantKnown: true, wantValue: 24},
		{name: "numeric string", in: "13", wantKnown: true, wantValue: 13},
		{name: "garbage string is unknown", in: "soon", wantKnown: false},
		{name: "bool is unknown", in: true, wantKnown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCount(tt.in)
			if got.Known() != tt.wantKnown {
				t.Fatalf("ParseCount(%v).Known() = %v, want %v", tt.in, got.Known(), tt.wantKnown)
			}
			if tt.wantKnown && got.Value() != tt.wantValue {
				t.Errorf("ParseCount(%v).Value() = %d, want %d", tt.in, got.Value(), tt.wantValue)
			}
		})
	}
}

func TestCountOrElse(t *testing.T) {
	if got := (Count{}).OrElse(9); got != 9 {
		t.Errorf("unknown Count.OrElse(9) = %d, want 9", got)
	}
	if got := KnownCount(4).OrElse(9); got != 4 {
		t.Errorf("KnownCount(4).OrElse(9) = %d, want 4", got)
	}
	if got := KnownCount(-2).Value(); got != 0 {
		t.Errorf("KnownCount(-2).Value() = %d, want 0", got)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{name: "hundred point scale", in: float64(85), want: 8.5},
		{name: "ten point scale untouched", in: float64(7), want: 7},
		{name: "boundary ten stays", in: float64(10), want: 10},
		{name: "rounds to one decimal", in: float64(77), want: 7.7},
		{name: "zero means unscored", in: float64(0), want: 0},
		{name: "negative means unscored", in: float64(-4), want: 0},
		{name: "nil means unscored", in: nil, want: 0},
		{name: "string score", in: "92", want: 9.2},
		{name: "garbage string means unscored", in: "great", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseScore(tt.in); got != tt.want {
				t.Errorf("ParseScore(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
