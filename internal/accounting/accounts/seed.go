package accounts

import "github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"

type defaultAccount struct {
	Code       string
	Title      string
	ParentCode string
	Type       AccountType
	Mappings   []string
}

// defaultChart is ordered parents first.
var defaultChart = []defaultAccount{
	{Code: "1000", Title: "Assets", Type: AccountTypeAsset},
	{Code: "1100", Title: "Cash and Bank", ParentCode: "1000", Type: AccountTypeAsset},
	{Code: "1200", Title: "Accounts Receivable", ParentCode: "1000", Type: AccountTypeAsset, Mappings: []string{mappings.PersonReceivable}},
	{Code: "1300", Title: "Input Tax", ParentCode: "1000", Type: AccountTypeAsset, Mappings: []string{mappings.PurchaseTax}},
	{Code: "2000", Title: "Liabilities", Type: AccountTypeLiability},
	{Code: "2100", Title: "Accounts Payable", ParentCode: "2000", Type: AccountTypeLiability, Mappings: []string{mappings.PersonPayable}},
	{Code: "2200", Title: "Output Tax", ParentCode: "2000", Type: AccountTypeLiability, Mappings: []string{mappings.SalesTax}},
	{Code: "3000", Title: "Equity", Type: AccountTypeEquity},
	{Code: "3100", Title: "Owner Capital", ParentCode: "3000", Type: AccountTypeEquity},
	{Code: "4000", Title: "Revenue", Type: AccountTypeRevenue},
	{Code: "4100", Title: "Sales Revenue", ParentCode: "4000", Type: AccountTypeRevenue, Mappings: []string{mappings.SalesRevenue}},
	{Code: "4200", Title: "Shipping Income", ParentCode: "4000", Type: AccountTypeRevenue, Mappings: []string{mappings.SalesShipping}},
	{Code: "4300", Title: "Other Sales Charges", ParentCode: "4000", Type: AccountTypeRevenue, Mappings: []string{mappings.SalesAdditions}},
	{Code: "4400", Title: "Sales Discounts", ParentCode: "4000", Type: AccountTypeRevenue, Mappings: []string{mappings.SalesDeductions}},
	{Code: "5000", Title: "Expenses", Type: AccountTypeExpense},
	{Code: "5100", Title: "Purchases", ParentCode: "5000", Type: AccountTypeExpense, Mappings: []string{mappings.PurchaseExpense}},
	{Code: "5200", Title: "Freight In", ParentCode: "5000", Type: AccountTypeExpense, Mappings: []string{mappings.PurchaseShipping}},
	{Code: "5300", Title: "Other Purchase Charges", ParentCode: "5000", Type: AccountTypeExpense, Mappings: []string{mappings.PurchaseAdditions}},
	{Code: "5400", Title: "Purchase Discounts", ParentCode: "5000", Type: AccountTypeExpense, Mappings: []string{mappings.PurchaseDeductions}},
	{Code: "5500", Title: "Bank Charges", ParentCode: "5000", Type: AccountTypeExpense, Mappings: []string{mappings.VoucherBankFee}},
}
