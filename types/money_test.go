package types

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
)

func TestAmountConstructors(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		want   string
	}{
		{"Wei", Wei(7), "7"},
		{"Ether", Ether(1), "1000000000000000000"},
		{"USD", USD(50), "50000000000000000000"},
		{"Zero", Zero, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.String(); got != tt.want {
				t.Errorf("String: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0.1", "100000000000000000", false},
		{"1", "1000000000000000000", false},
		{"0.000000000000000001", "1", false},
		{"0.0000000000000000001", "", true},
		{"-1", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		amount Amount
		want   string
	}{
		{Ether(1), "1"},
		{Wei(100000000000000000), "0.1"},
		{Wei(1), "0.000000000000000001"},
		{Zero, "0"},
	}

	for _, tt := range tests {
		if got := tt.amount.FormatEther(); got != tt.want {
			t.Errorf("FormatEther(%s): got %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestAmountArithmetic(t *testing.T) {
	sum, err := Ether(1).Add(Ether(2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !sum.Equal(Ether(3)) {
		t.Errorf("Add: got %s, want %s", sum, Ether(3))
	}

	diff, err := Ether(3).Sub(Ether(1))
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if !diff.Equal(Ether(2)) {
		t.Errorf("Sub: got %s, want %s", diff, Ether(2))
	}

	if _, err := Wei(1).Sub(Wei(2)); !errors.Is(err, ErrUnderflow) {
		t.Errorf("Sub below zero: got %v, want ErrUnderflow", err)
	}

	prod, err := Wei(3).Mul(big.NewInt(4))
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if !prod.Equal(Wei(12)) {
		t.Errorf("Mul: got %s, want 12", prod)
	}

	if got := Wei(13).Quo(big.NewInt(4)); !got.Equal(Wei(3)) {
		t.Errorf("Quo: got %s, want 3", got)
	}
}

func TestAmountOverflow(t *testing.T) {
	if _, err := MaxAmount().Add(Wei(1)); !errors.Is(err, ErrOverflow) {
		t.Errorf("Add: got %v, want ErrOverflow", err)
	}
	if _, err := MaxAmount().Mul(big.NewInt(2)); !errors.Is(err, ErrOverflow) {
		t.Errorf("Mul: got %v, want ErrOverflow", err)
	}
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := NewAmount(tooBig); !errors.Is(err, ErrOverflow) {
		t.Errorf("NewAmount: got %v, want ErrOverflow", err)
	}
	if _, err := NewAmount(big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("NewAmount negative: got %v, want ErrInvalidAmount", err)
	}
}

func TestAmountImmutable(t *testing.T) {
	src := big.NewInt(10)
	a, err := NewAmount(src)
	if err != nil {
		t.Fatal(err)
	}
	src.SetInt64(99)
	if !a.Equal(Wei(10)) {
		t.Errorf("NewAmount aliased its input: got %s", a)
	}
	a.BigInt().SetInt64(5)
	if !a.Equal(Wei(10)) {
		t.Errorf("BigInt aliased the amount: got %s", a)
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(Ether(2))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"2000000000000000000"` {
		t.Errorf("Marshal: got %s", data)
	}

	var bare Amount
	if err := json.Unmarshal([]byte(`42`), &bare); err != nil {
		t.Fatalf("Unmarshal bare: %v", err)
	}
	if !bare.Equal(Wei(42)) {
		t.Errorf("Unmarshal bare: got %s, want 42", bare)
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	for _, src := range []any{"123", []byte("123"), int64(123)} {
		if err := a.Scan(src); err != nil {
			t.Fatalf("Scan(%T): %v", src, err)
		}
		if !a.Equal(Wei(123)) {
			t.Errorf("Scan(%T): got %s, want 123", src, a)
		}
	}
	if err := a.Scan(1.5); err == nil {
		t.Error("expected error scanning a float")
	}
}

func TestAddress(t *testing.T) {
	const raw = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"

	a, err := ParseAddress(raw)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if a.String() != raw {
		t.Errorf("String: got %s, want %s", a, raw)
	}

	upper, err := ParseAddress("70997970C51812DC3A010C7D01B50E0D17DC79C8")
	if err != nil {
		t.Fatalf("ParseAddress without prefix: %v", err)
	}
	if upper != a {
		t.Error("case and prefix should not matter")
	}

	for _, bad := range []string{"", "0x1234", "0xzz997970c51812dc3a010c7d01b50e0d17dc79c8"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Errorf("ParseAddress(%q): expected error", bad)
		}
	}

	if !ZeroAddress.IsZero() || a.IsZero() {
		t.Error("IsZero mismatch")
	}
}
