package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLineCompute(t *testing.T) {
	cases := []struct {
		name string
		line LineInput
		want Amounts
	}{
		{
			name: "plain",
			line: LineInput{ProductID: 1, Quantity: d("2"), UnitPrice: d("500")},
			want: Amounts{Subtotal: d("1000"), Net: d("1000"), Total: d("1000")},
		},
		{
			name: "percent discount and tax on net",
			line: LineInput{ProductID: 1, Quantity: d("3"), UnitPrice: d("100"), DiscountPercent: d("10"), TaxPercent: d("9")},
			want: Amounts{Subtotal: d("300"), Discount: d("30"), Net: d("270"), Tax: d("24.30"), Total: d("294.30")},
		},
		{
			name: "flat amounts win over percentages",
			line: LineInput{ProductID: 1, Quantity: d("1"), UnitPrice: d("80"), DiscountPercent: d("50"), DiscountAmount: d("5"), TaxPercent: d("10"), TaxAmount: d("1.25")},
			want: Amounts{Subtotal: d("80"), Discount: d("5"), Net: d("75"), Tax: d("1.25"), Total: d("76.25")},
		},
		{
			name: "fractional quantity rounds to cents",
			line: LineInput{ProductID: 1, Quantity: d("1.333"), UnitPrice: d("9.99"), TaxPercent: d("7.5")},
			want: Amounts{Subtotal: d("13.32"), Net: d("13.32"), Tax: d("1.00"), Total: d("14.32")},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.line.Compute()
			assert.True(t, tc.want.Subtotal.Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, tc.want.Discount.Equal(got.Discount), "discount %s", got.Discount)
			assert.True(t, tc.want.Net.Equal(got.Net), "net %s", got.Net)
			assert.True(t, tc.want.Tax.Equal(got.Tax), "tax %s", got.Tax)
			assert.True(t, tc.want.Total.Equal(got.Total), "total %s", got.Total)
		})
	}
}

func TestComputeTotalsAppliesCharges(t *testing.T) {
	lines := []LineInput{
		{ProductID: 1, Quantity: d("2"), UnitPrice: d("500")},
		{ProductID: 2, Quantity: d("1"), UnitPrice: d("200"), DiscountPercent: d("25"), TaxPercent: d("10")},
	}
	got := ComputeTotals(lines, Charges{Shipping: d("15"), Additions: d("5"), Deductions: d("20")})
	assert.True(t, d("1200").Equal(got.Subtotal))
	assert.True(t, d("50").Equal(got.Discount))
	assert.True(t, d("1150").Equal(got.Net))
	assert.True(t, d("15").Equal(got.Tax))
	assert.True(t, d("1165").Equal(got.LinesTotal))
	assert.True(t, d("1165").Equal(got.Total))
}

func TestLineValidation(t *testing.T) {
	valid := LineInput{ProductID: 1, Quantity: d("1"), UnitPrice: d("10")}
	require.NoError(t, valid.validate(0))

	cases := map[string]func(*LineInput){
		"zero quantity":      func(l *LineInput) { l.Quantity = decimal.Zero },
		"negative price":     func(l *LineInput) { l.UnitPrice = d("-1") },
		"discount over 100%": func(l *LineInput) { l.DiscountPercent = d("101") },
		"discount too large": func(l *LineInput) { l.DiscountAmount = d("11") },
		"negative tax":       func(l *LineInput) { l.TaxAmount = d("-0.01") },
		"fine price":         func(l *LineInput) { l.UnitPrice = d("0.001") },
		"missing product":    func(l *LineInput) { l.ProductID = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			l := valid
			mutate(&l)
			assert.ErrorIs(t, l.validate(0), shared.ErrInvalidInvoiceLine)
		})
	}
}

func TestSalesAndPurchaseLinesMirror(t *testing.T) {
	totals := ComputeTotals([]LineInput{{ProductID: 1, Quantity: d("1"), UnitPrice: d("100"), TaxPercent: d("10")}},
		Charges{Shipping: d("10"), Deductions: d("5")})
	ledger := Ledger{Counter: 1, Main: 2, Tax: 3, Shipping: 4, Additions: 5, Deductions: 6}

	sales := Lines(Invoice{Type: TypeSales, InvoiceNo: 7}, totals, ledger)
	require.Len(t, sales, 5)
	assert.Equal(t, int64(1), sales[0].AccountID)
	assert.True(t, d("115").Equal(sales[0].Debit))
	assert.Equal(t, int64(6), sales[1].AccountID)
	assert.True(t, d("5").Equal(sales[1].Debit))
	assert.True(t, d("100").Equal(sales[2].Credit))
	assert.Equal(t, "sales invoice 7", sales[0].Description)

	purchase := Lines(Invoice{Type: TypePurchase, InvoiceNo: 7}, totals, ledger)
	require.Len(t, purchase, 5)
	for i := range sales {
		assert.True(t, sales[i].Debit.Equal(purchase[i].Credit))
		assert.True(t, sales[i].Credit.Equal(purchase[i].Debit))
	}
}
