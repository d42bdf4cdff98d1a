package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBatchListSum(t *testing.T) {
	list := BatchList{
		{Quantity: decimal.NewFromInt(3)},
		{Quantity: decimal.RequireFromString("2.5")},
	}

	if got := list.Sum(); !got.Equal(decimal.RequireFromString("5.5")) {
		t.Fatalf("expected sum 5.5, got %s", got)
	}

	var empty BatchList
	if got := empty.Sum(); !got.IsZero() {
		t.Fatalf("expected zero sum for empty list, got %s", got)
	}
}

func TestBatchListScanRoundTrip(t *testing.T) {
	src := BatchList{{Quantity: decimal.NewFromInt(7)}}
	value, err := src.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var dst BatchList
	if err := dst.Scan(value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(dst) != 1 || !dst[0].Quantity.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected round trip result %+v", dst)
	}
}

func TestSerialListScanNil(t *testing.T) {
	var list SerialList
	if err := list.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if list != nil {
		t.Fatalf("expected nil list, got %+v", list)
	}

	if err := list.Scan(42); err == nil {
		t.Fatal("expected error for unsupported scan type")
	}
}
