package types

import (
	"errors"
	"math"
	"testing"
)

func TestStationValidate(t *testing.T) {
	cases := []struct {
		name    string
		station Station
		want    error
	}{
		{"valid", Station{Code: "60700200", Lon: 104.2, Lat: 31.1}, nil},
		{"empty code", Station{Lon: 10, Lat: 10}, ErrStationCodeEmpty},
		{"lon too large", Station{Code: "a", Lon: 181, Lat: 0}, ErrStationOutOfRange},
		{"lat too small", Station{Code: "a", Lon: 0, Lat: -91}, ErrStationOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.station.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("got %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestResultErrorPercent(t *testing.T) {
	r := Result{RelativeError: 0.05}
	if got := r.ErrorPercent(); got != "5.0%" {
		t.Fatalf("got %q, want 5.0%%", got)
	}
	r.RelativeError = math.NaN()
	if got := r.ErrorPercent(); got != "NA" {
		t.Fatalf("got %q, want NA", got)
	}
}

func TestResultDelineated(t *testing.T) {
	if (Result{Verdict: VerdictFailed}).Delineated() {
		t.Error("failed result should not report delineated")
	}
	if !(Result{Verdict: VerdictRejected}).Delineated() {
		t.Error("rejected result still carries a geometry")
	}
}
