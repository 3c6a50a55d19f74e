package model

import "time"

// Product carries the catalog fields the order engine reads plus the on-hand
// stock counter. Prices are integer minor currency units (cents). Only the
// ledger repository writes Stock.
type Product struct {
	BaseModel
	CategoryID     *string    `db:"category_id" json:"category_id"`
	Name           string     `db:"name" json:"name"`
	Price          int64      `db:"price" json:"price"`
	BatchDate      *time.Time `db:"batch_date" json:"batch_date"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date"`
	Stock          int64      `db:"stock" json:"stock"`
	IsActive       bool       `db:"is_active" json:"is_active"`
}

// Expired reports whether the product may no longer be sold. An unset
// expiration date never expires.
func (p *Product) Expired(now time.Time) bool {
	return p.ExpirationDate != nil && !p.ExpirationDate.After(now)
}
