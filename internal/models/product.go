package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PricePlaces is the number of decimal places a price is kept with.
const PricePlaces = 2

func init() {
	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description" gorm:"type:varchar(1000)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// ProductInput is the request body accepted when creating or updating a product.
// Any id in the body is ignored: the server assigns ids and updates take it from the path.
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"max=1000"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Quantity    *int             `json:"quantity" validate:"omitempty,gte=0"`
}

// Normalize trims the text fields so that a whitespace-only name fails validation.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

// ApplyTo copies the input onto p. Price is rounded to PricePlaces and a missing quantity becomes 0.
func (in ProductInput) ApplyTo(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	if in.Price != nil {
		p.Price = in.Price.Round(PricePlaces)
	}
	p.Quantity = 0
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
}
