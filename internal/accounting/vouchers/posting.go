package vouchers

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
)

// Ledger holds the chart accounts a voucher posts to.
type Ledger struct {
	Cash        int64
	Destination int64
	Counter     int64
	BankFee     int64
}

// Lines builds the balanced journal lines of v. Receipts debit the cash
// account, payments credit it, transfers move the amount between two cash
// accounts and a bank fee is always charged to the source.
func Lines(v Voucher, l Ledger) []journals.LineInput {
	memo := v.Description
	if memo == "" {
		memo = fmt.Sprintf("Voucher %d", v.VoucherNo)
	}
	var lines []journals.LineInput
	switch v.Type {
	case TypeReceipt:
		lines = append(lines,
			journals.LineInput{AccountID: l.Cash, Debit: v.Amount, Description: memo},
			journals.LineInput{AccountID: l.Counter, Credit: v.Amount, Description: memo})
	case TypePayment:
		lines = append(lines,
			journals.LineInput{AccountID: l.Counter, Debit: v.Amount, Description: memo},
			journals.LineInput{AccountID: l.Cash, Credit: v.Amount, Description: memo})
	case TypeTransfer:
		lines = append(lines,
			journals.LineInput{AccountID: l.Destination, Debit: v.Amount, Description: memo},
			journals.LineInput{AccountID: l.Cash, Credit: v.Amount, Description: memo})
	}
	if v.BankFee.IsPositive() {
		lines = append(lines,
			journals.LineInput{AccountID: l.BankFee, Debit: v.BankFee, Description: "Bank fee"},
			journals.LineInput{AccountID: l.Cash, Credit: v.BankFee, Description: "Bank fee"})
	}
	return lines
}
