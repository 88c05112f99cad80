package money

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "zero", in: "0", want: "0"},
		{name: "beyond uint64", in: "1000000000000000000000000", want: "1000000000000000000000000"},
		{name: "leading zeros", in: "007", want: "7"},
		{name: "empty", in: "", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
		{name: "plus sign", in: "+1", wantErr: true},
		{name: "fraction", in: "1.5", wantErr: true},
		{name: "exponent", in: "1e3", wantErr: true},
		{name: "space", in: " 1", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("Parse(%q) err = %v, want ErrInvalidAmount", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.in, err)
			}
			if got.String() != tc.want {
				t.Fatalf("Parse(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	var zero Amount
	if !zero.IsZero() || zero.String() != "0" {
		t.Fatalf("zero value should be 0, got %s", zero)
	}

	big := MustParse("18446744073709551616") // 2^64
	sum := big.Add(FromUint64(1))
	if sum.String() != "18446744073709551617" {
		t.Fatalf("sum = %s", sum)
	}
	if big.String() != "18446744073709551616" {
		t.Fatalf("Add mutated its receiver: %s", big)
	}

	diff, ok := sum.Sub(big)
	if !ok || diff.String() != "1" {
		t.Fatalf("diff = %s ok=%v", diff, ok)
	}

	same, ok := zero.Sub(FromUint64(1))
	if ok {
		t.Fatalf("expected underflow to be refused")
	}
	if !same.IsZero() {
		t.Fatalf("refused Sub should return receiver, got %s", same)
	}

	if !FromUint64(1).LessThan(FromUint64(2)) || FromUint64(2).Cmp(FromUint64(2)) != 0 {
		t.Fatalf("comparison broken")
	}
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		Fee Amount `json:"fee"`
	}

	data, err := json.Marshal(wrapper{Fee: MustParse("1000000000000000000000000")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"fee":"1000000000000000000000000"}` {
		t.Fatalf("unexpected encoding %s", data)
	}

	var w wrapper
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Fee.String() != "1000000000000000000000000" {
		t.Fatalf("round trip lost precision: %s", w.Fee)
	}

	if err := json.Unmarshal([]byte(`{"fee":40}`), &w); err == nil {
		t.Fatalf("expected numeric fee to be rejected")
	}
	if err := json.Unmarshal([]byte(`{"fee":"-4"}`), &w); err == nil {
		t.Fatalf("expected negative fee to be rejected")
	}
}
