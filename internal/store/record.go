// Package store keeps the client-side copy of the product catalog and
// flushes local changes to the backend in batches.
package store

import (
	"github.com/shopspring/decimal"
)

// Record is one product tracked by the Store. ID is nil until the server has persisted it.
type Record struct {
	ID          *int64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`

	dirty bool
	// persisted holds the values last confirmed by the server, nil until loaded or saved.
	persisted *Values
}

// Values are the editable fields of a Record.
type Values struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

// NewRecord builds an unsaved record from values.
func NewRecord(v Values) *Record {
	r := &Record{}
	r.apply(v)
	return r
}

// IsPhantom reports whether the record has not been persisted yet.
func (r *Record) IsPhantom() bool { return r.ID == nil }

// IsDirty reports whether a persisted record has unsynced edits.
func (r *Record) IsDirty() bool { return r.dirty }

// Values returns the editable fields of r.
func (r *Record) Values() Values {
	return Values{Name: r.Name, Description: r.Description, Price: r.Price, Quantity: r.Quantity}
}

// GetID returns the id, or 0 for a phantom record.
func (r *Record) GetID() int64 {
	if r.ID == nil {
		return 0
	}
	return *r.ID
}

// apply copies v onto r and reports whether anything changed.
func (r *Record) apply(v Values) bool {
	changed := r.Name != v.Name ||
		r.Description != v.Description ||
		!r.Price.Equal(v.Price) ||
		r.Quantity != v.Quantity
	r.Name = v.Name
	r.Description = v.Description
	r.Price = v.Price
	r.Quantity = v.Quantity
	return changed
}

// markPersisted records the current values as the server's.
func (r *Record) markPersisted() {
	v := r.Values()
	r.persisted = &v
	r.dirty = false
}

// revert restores the values last confirmed by the server.
func (r *Record) revert() {
	if r.persisted != nil {
		r.apply(*r.persisted)
	}
	r.dirty = false
}

// Int64 returns a pointer to id, for building persisted records.
func Int64(id int64) *int64 { return &id }
