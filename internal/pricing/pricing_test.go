package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToInclusiveRoundTrip(t *testing.T) {
	exclusive := decimal.RequireFromString("20.00")
	inclusive := ToInclusive(exclusive, TaxRate)
	if inclusive.StringFixed(2) != "22.00" {
		t.Fatalf("expected 22.00, got: %s", inclusive.StringFixed(2))
	}
	back := FromInclusive(inclusive, TaxRate)
	if !back.Equal(exclusive) {
		t.Fatalf("round trip mismatch: got %s", back.String())
	}
}

func TestComputeOrderTotals(t *testing.T) {
	cases := []struct {
		name     string
		subtotal string
		discount string
		tax      string
		total    string
	}{
		{"no discount", "20.00", "0", "2.00", "22.00"},
		{"percent discount applied", "20.00", "2.00", "1.80", "19.80"},
		{"half off", "20.00", "10.00", "1.00", "11.00"},
		{"zero subtotal", "0", "0", "0.00", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := ComputeOrderTotals(
				decimal.RequireFromString(tc.subtotal),
				decimal.RequireFromString(tc.discount),
			)
			if totals.Tax.String() != tc.tax {
				t.Fatalf("expected tax=%s, got: %s", tc.tax, totals.Tax.String())
			}
			if totals.TotalInclusive.String() != tc.total {
				t.Fatalf("expected total=%s, got: %s", tc.total, totals.TotalInclusive.String())
			}
		})
	}
}

func TestComputeOrderTotalsNeverNegative(t *testing.T) {
	// 折扣超过小计时计税基数应被钳制为 0
	totals := ComputeOrderTotals(
		decimal.RequireFromString("10.00"),
		decimal.RequireFromString("25.00"),
	)
	if totals.Tax.Decimal.IsNegative() {
		t.Fatalf("tax must not be negative, got: %s", totals.Tax.String())
	}
	if totals.TotalInclusive.Decimal.IsNegative() {
		t.Fatalf("total must not be negative, got: %s", totals.TotalInclusive.String())
	}
	if totals.TotalInclusive.String() != "0.00" {
		t.Fatalf("expected clamped total 0.00, got: %s", totals.TotalInclusive.String())
	}
}

func TestComputeOrderTotalsKeepsPreDiscountSubtotal(t *testing.T) {
	totals := ComputeOrderTotals(
		decimal.RequireFromString("20.00"),
		decimal.RequireFromString("2.00"),
	)
	if totals.SubtotalInclusive.String() != "22.00" {
		t.Fatalf("subtotal inclusive should ignore discount, got: %s", totals.SubtotalInclusive.String())
	}
	if totals.DiscountInclusive.String() != "2.20" {
		t.Fatalf("expected discount inclusive 2.20, got: %s", totals.DiscountInclusive.String())
	}
}
