package core

import (
	"math"
	"testing"
)

func TestNormalizeSameCurrency(t *testing.T) {
	rates := []float64{0, 1, 50, -3, math.NaN(), math.Inf(1)}
	for _, c := range []Currency{EGP, USD} {
		for _, rate := range rates {
			if got := Normalize(123.45, c, c, rate); got != 123.45 {
				t.Fatalf("Normalize(123.45, %s, %s, %v) = %v, want 123.45", c, c, rate, got)
			}
		}
	}
}

func TestNormalizeMissingRatePassesThrough(t *testing.T) {
	cases := []struct {
		from, to Currency
		rate     float64
	}{
		{USD, EGP, 0},
		{EGP, USD, 0},
		{USD, EGP, -50},
		{USD, EGP, math.NaN()},
		{EGP, USD, math.Inf(1)},
	}
	for _, tc := range cases {
		if got := Normalize(5000, tc.from, tc.to, tc.rate); got != 5000 {
			t.Fatalf("Normalize(5000, %s, %s, %v) = %v, want pass-through", tc.from, tc.to, tc.rate, got)
		}
	}
}

func TestNormalizeConverts(t *testing.T) {
	if got := Normalize(100, USD, EGP, 50); got != 5000 {
		t.Fatalf("USD->EGP got %v, want 5000", got)
	}
	if got := Normalize(5000, EGP, USD, 50); got != 100 {
		t.Fatalf("EGP->USD got %v, want 100", got)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	amounts := []float64{0.01, 1, 99.99, 1234.56, 1e6}
	rates := []float64{0.5, 30.9, 48.75, 50}
	for _, a := range amounts {
		for _, r := range rates {
			back := Normalize(Normalize(a, USD, EGP, r), EGP, USD, r)
			if math.Abs(back-a) > 1e-9*math.Max(1, a) {
				t.Fatalf("round trip of %v at rate %v gave %v", a, r, back)
			}
		}
	}
}

func TestNormalizeNaNAmountPropagates(t *testing.T) {
	if got := Normalize(math.NaN(), USD, EGP, 50); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestDirectionalConversions(t *testing.T) {
	if got := ToPrimary(10, 48); got != 480 {
		t.Fatalf("ToPrimary got %v", got)
	}
	if got := ToSecondary(480, 48); got != 10 {
		t.Fatalf("ToSecondary got %v", got)
	}
	if got := ToPrimary(10, 0); got != 10 {
		t.Fatalf("ToPrimary without rate got %v", got)
	}
	if got := ToSecondary(10, -1); got != 10 {
		t.Fatalf("ToSecondary with negative rate got %v", got)
	}
}

func TestMoneyIn(t *testing.T) {
	m := Money{Amount: 100, Currency: USD, ExchangeRate: 50}
	if got := m.In(EGP); got != 5000 {
		t.Fatalf("In(EGP) = %v, want 5000", got)
	}
	if got := m.In(USD); got != 100 {
		t.Fatalf("In(USD) = %v, want 100", got)
	}
}

func TestCurrencyValid(t *testing.T) {
	if !EGP.Valid() || !USD.Valid() {
		t.Fatal("expected EGP and USD to be valid")
	}
	if Currency("EUR").Valid() || Currency("").Valid() {
		t.Fatal("expected unknown currencies to be invalid")
	}
}
