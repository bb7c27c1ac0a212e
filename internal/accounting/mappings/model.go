package mappings

import "time"

// Posting rule keys resolved per fiscal year.
const (
	PersonReceivable = "person.receivable"
	PersonPayable    = "person.payable"
	VoucherBankFee   = "voucher.bank_fee"

	SalesRevenue    = "invoice.sales.revenue"
	SalesTax        = "invoice.sales.tax"
	SalesShipping   = "invoice.sales.shipping"
	SalesAdditions  = "invoice.sales.additions"
	SalesDeductions = "invoice.sales.deductions"

	PurchaseExpense    = "invoice.purchase.expense"
	PurchaseTax        = "invoice.purchase.tax"
	PurchaseShipping   = "invoice.purchase.shipping"
	PurchaseAdditions  = "invoice.purchase.additions"
	PurchaseDeductions = "invoice.purchase.deductions"
)

// Keys lists every known posting rule key.
var Keys = []string{
	PersonReceivable, PersonPayable, VoucherBankFee,
	SalesRevenue, SalesTax, SalesShipping, SalesAdditions, SalesDeductions,
	PurchaseExpense, PurchaseTax, PurchaseShipping, PurchaseAdditions, PurchaseDeductions,
}

// KnownKey reports whether key is a posting rule key.
func KnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// AccountMapping links posting rule keys to ledger accounts of one fiscal year.
type AccountMapping struct {
	FiscalYearID int64     `json:"fiscal_year_id"`
	Key          string    `json:"key"`
	AccountID    int64     `json:"account_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
