// Package directory reads the CRM reference records that accounting
// documents point at: persons, products and units. The accounting core never
// writes them.
package directory

import "time"

// Person is a customer or supplier record.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog item with its default unit.
type Product struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UnitID *int64 `json:"unit_id"`
}

// Unit is a unit of measure.
type Unit struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PersonUsage counts accounting documents that reference a person.
type PersonUsage struct {
	Invoices int64 `json:"invoices"`
	Vouchers int64 `json:"vouchers"`
	Cheques  int64 `json:"cheques"`
}

// Total sums every document kind.
func (u PersonUsage) Total() int64 {
	return u.Invoices + u.Vouchers + u.Cheques
}
