package shared

import (
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// kindError carries a specific message while matching its error kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = newError(internalShared.ErrValidation, "accounting: journal lines must balance")
	// ErrNoLines indicates an empty line set.
	ErrNoLines = newError(internalShared.ErrValidation, "accounting: journal requires lines")
	// ErrInvalidLine indicates a line with a negative amount or both/neither side set.
	ErrInvalidLine = newError(internalShared.ErrValidation, "accounting: line must carry exactly one positive side")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = newError(internalShared.ErrNotFound, "accounting: journal entry not found")
	// ErrNotDraft indicates a mutation of a document that left draft.
	ErrNotDraft = newError(internalShared.ErrInvalidState, "accounting: document is not in draft")
	// ErrInvalidStatus indicates action can't proceed.
	ErrInvalidStatus = newError(internalShared.ErrInvalidState, "accounting: invalid status transition")
	// ErrDateOutOfRange indicates a document date outside its fiscal year.
	ErrDateOutOfRange = newError(internalShared.ErrValidation, "accounting: date outside fiscal year")
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = newError(internalShared.ErrValidation, "accounting: account mapping not found")
	// ErrSourceAlreadyLinked indicates a document already owns a journal entry.
	ErrSourceAlreadyLinked = newError(internalShared.ErrConflict, "accounting: source already linked")
	// ErrNumberTaken indicates a lost race on a document number.
	ErrNumberTaken = newError(internalShared.ErrConflict, "accounting: document number already allocated")

	// ErrFiscalYearNotFound indicates missing fiscal year.
	ErrFiscalYearNotFound = newError(internalShared.ErrNotFound, "accounting: fiscal year not found")
	// ErrNoActiveFiscalYear indicates no fiscal year is active.
	ErrNoActiveFiscalYear = newError(internalShared.ErrNotFound, "accounting: no active fiscal year")
	// ErrFiscalYearReferenced blocks deleting a year with dependent documents.
	ErrFiscalYearReferenced = newError(internalShared.ErrReferenced, "accounting: fiscal year is referenced by documents")
	// ErrRangeExcludesDocuments blocks moving a year's bounds past its own documents.
	ErrRangeExcludesDocuments = newError(internalShared.ErrReferenced, "accounting: fiscal year range would exclude existing documents")
	// ErrInvalidDateRange indicates end before start.
	ErrInvalidDateRange = newError(internalShared.ErrValidation, "accounting: end date precedes start date")

	// ErrAccountNotFound indicates missing chart account.
	ErrAccountNotFound = newError(internalShared.ErrNotFound, "accounting: account not found")
	// ErrDuplicateCode indicates the code already exists in the fiscal year.
	ErrDuplicateCode = newError(internalShared.ErrValidation, "accounting: account code already exists in fiscal year")
	// ErrAccountCycle indicates a parent assignment that would create a cycle.
	ErrAccountCycle = newError(internalShared.ErrValidation, "accounting: parent assignment creates a cycle")
	// ErrAccountHasChildren blocks deleting a non-leaf account.
	ErrAccountHasChildren = newError(internalShared.ErrReferenced, "accounting: account has children")
	// ErrSystemAccount blocks deleting a seeded account.
	ErrSystemAccount = newError(internalShared.ErrValidation, "accounting: system account cannot be deleted")
	// ErrAccountReferenced blocks deleting an account used by lines or cash accounts.
	ErrAccountReferenced = newError(internalShared.ErrReferenced, "accounting: account is referenced")
	// ErrAccountOutsideYear indicates an account of another fiscal year.
	ErrAccountOutsideYear = newError(internalShared.ErrValidation, "accounting: account belongs to another fiscal year")

	// ErrCashAccountNotFound indicates missing cash account.
	ErrCashAccountNotFound = newError(internalShared.ErrNotFound, "accounting: cash account not found")
	// ErrCashAccountReferenced blocks deleting a cash account used by vouchers or cheques.
	ErrCashAccountReferenced = newError(internalShared.ErrReferenced, "accounting: cash account is referenced")
	// ErrCashAccountUnmapped indicates a cash account without chart account.
	ErrCashAccountUnmapped = newError(internalShared.ErrValidation, "accounting: cash account has no chart account")
	// ErrDuplicateCashCode indicates the cash account code is taken.
	ErrDuplicateCashCode = newError(internalShared.ErrValidation, "accounting: cash account code already exists")
	// ErrCashAccountInactive indicates an inactive cash account on a new document.
	ErrCashAccountInactive = newError(internalShared.ErrValidation, "accounting: cash account is inactive")

	// ErrVoucherNotFound indicates missing voucher.
	ErrVoucherNotFound = newError(internalShared.ErrNotFound, "accounting: voucher not found")
	// ErrNonPositiveAmount indicates amount <= 0.
	ErrNonPositiveAmount = newError(internalShared.ErrValidation, "accounting: amount must be positive")
	// ErrTransferTarget indicates a missing or identical transfer destination.
	ErrTransferTarget = newError(internalShared.ErrValidation, "accounting: transfer requires a distinct destination cash account")
	// ErrCounterAccountRequired indicates a voucher without counter account or person.
	ErrCounterAccountRequired = newError(internalShared.ErrValidation, "accounting: counter account or person required")

	// ErrChequeNotFound indicates missing cheque.
	ErrChequeNotFound = newError(internalShared.ErrNotFound, "accounting: cheque not found")

	// ErrInvoiceNotFound indicates missing invoice.
	ErrInvoiceNotFound = newError(internalShared.ErrNotFound, "accounting: invoice not found")
	// ErrProformaNotPostable rejects confirming a quote.
	ErrProformaNotPostable = newError(internalShared.ErrInvalidState, "accounting: proforma invoices cannot be confirmed")
	// ErrNotProforma rejects converting a non-proforma invoice.
	ErrNotProforma = newError(internalShared.ErrValidation, "accounting: only proforma invoices can be converted")
	// ErrNonPositiveTotal indicates an invoice total <= 0.
	ErrNonPositiveTotal = newError(internalShared.ErrValidation, "accounting: invoice total must be positive")
	// ErrInvalidInvoiceLine indicates a bad quantity, price, discount or tax.
	ErrInvalidInvoiceLine = newError(internalShared.ErrValidation, "accounting: invalid invoice line")

	// ErrPersonNotFound indicates an unknown person id.
	ErrPersonNotFound = newError(internalShared.ErrValidation, "accounting: person not found")
	// ErrProductNotFound indicates an unknown product id.
	ErrProductNotFound = newError(internalShared.ErrValidation, "accounting: product not found")
	// ErrUnitNotFound indicates an unknown unit id.
	ErrUnitNotFound = newError(internalShared.ErrValidation, "accounting: unit not found")
)
