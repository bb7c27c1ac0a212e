package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// Reference types recorded on generated journal entries.
const (
	RefVoucher         = "voucher"
	RefInvoice         = "invoice"
	RefInvoiceReturn   = "invoice_return"
	RefJournalReversal = "journal_reversal"
)

// SourceKey derives the deterministic key that ties one journal entry to one document.
func SourceKey(referenceType string, id int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("%s:%d", referenceType, id)))
}
