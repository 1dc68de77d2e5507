package models

import "github.com/shopspring/decimal"

// InventoryItem is one stocked product.
type InventoryItem struct {
	Item            string          `json:"item"`
	InitialQuantity int64           `json:"initial_quantity"`
	Quantity        int64           `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
}

// LowStock reports whether the item is at or below 20% of its initial stock.
// The comparison is done in decimal so large quantities cannot overflow.
func (i InventoryItem) LowStock() bool {
	return decimal.NewFromInt(i.Quantity).Mul(lowStockFactor).LessThanOrEqual(decimal.NewFromInt(i.InitialQuantity))
}

var lowStockFactor = decimal.NewFromInt(5)

// SaleRecord captures one sale to a patient.
type SaleRecord struct {
	Patient  string          `json:"patient"`
	Item     string          `json:"item"`
	Quantity int64           `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// PatientRecord captures a registered patient.
type PatientRecord struct {
	Name           string `json:"name"`
	Age            int64  `json:"age"`
	Diagnosis      string `json:"diagnosis"`
	MedicalHistory string `json:"medical_history"`
}

// Invoice aggregates the sales of one patient.
type Invoice struct {
	Patient     string          `json:"patient"`
	Rows        []SaleRecord    `json:"rows"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
