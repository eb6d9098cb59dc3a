package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa una pieza del catálogo (registro de ítems, administrado fuera del núcleo).
// El núcleo solo lee la ficha y escribe Quantity.
type Item struct {
	ID           string
	CategoryID   string
	Name         string
	DesignCode   string          // único
	MetalType    string          // gold, silver, platinum...
	Purity       string          // 22K, 18K, 925...
	Quantity     int64           // existencia actual, nunca negativa
	Weight       decimal.Decimal // peso unitario (gramos)
	SellingPrice decimal.Decimal // precio de venta unitario
	Status       string
	CreatedAt    time.Time
}

// HasIdentity indica si la ficha trae los campos que el libro desnormaliza en cada asiento.
func (i *Item) HasIdentity() bool {
	return i != nil && i.ID != "" && i.Name != "" && i.DesignCode != ""
}

// TotalWeight peso total en existencia (peso unitario * cantidad).
func (i *Item) TotalWeight() decimal.Decimal {
	return i.Weight.Mul(decimal.NewFromInt(i.Quantity))
}

// TotalValue valor de la existencia a precio de venta.
func (i *Item) TotalValue() decimal.Decimal {
	return i.SellingPrice.Mul(decimal.NewFromInt(i.Quantity))
}
