package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

// ParseInt reads an integer cell. Blank cells are zero and whole floats such
// as "10.0" are accepted because spreadsheets store numbers that way.
func ParseInt(cell string) (int64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", cell)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("integer out of range: %q", cell)
	}
	return int64(f), nil
}

// ParseDecimal reads a money cell; blank cells are zero.
func ParseDecimal(cell string) (decimal.Decimal, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", cell)
	}
	return d, nil
}

// FormatInt renders an integer cell.
func FormatInt(n int64) string { return strconv.FormatInt(n, 10) }

// FormatDecimal renders a money cell without trailing zeros.
func FormatDecimal(d decimal.Decimal) string { return d.String() }

func cellError(id models.StoreID, row int, field string, err error) error {
	return fmt.Errorf("%s row %d field %s: %w", id, row+1, field, err)
}

// DecodeInventory returns the typed view of an inventory table.
func DecodeInventory(t models.Table) ([]models.InventoryItem, error) {
	items := make([]models.InventoryItem, 0, t.Len())
	for i := range t.Rows {
		item, err := InventoryAt(t, i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// InventoryAt decodes row i of an inventory table.
func InventoryAt(t models.Table, i int) (models.InventoryItem, error) {
	item := models.InventoryItem{Item: t.Value(i, models.FieldItem)}
	var err error
	if item.InitialQuantity, err = ParseInt(t.Value(i, models.FieldInitialQuantity)); err != nil {
		return item, cellError(models.StoreInventory, i, models.FieldInitialQuantity, err)
	}
	if item.Quantity, err = ParseInt(t.Value(i, models.FieldQuantity)); err != nil {
		return item, cellError(models.StoreInventory, i, models.FieldQuantity, err)
	}
	if item.Price, err = ParseDecimal(t.Value(i, models.FieldPrice)); err != nil {
		return item, cellError(models.StoreInventory, i, models.FieldPrice, err)
	}
	return item, nil
}

// DecodeSales returns the typed view of a sales table.
func DecodeSales(t models.Table) ([]models.SaleRecord, error) {
	sales := make([]models.SaleRecord, 0, t.Len())
	for i := range t.Rows {
		sale, err := SaleAt(t, i)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

// SaleAt decodes row i of a sales table.
func SaleAt(t models.Table, i int) (models.SaleRecord, error) {
	sale := models.SaleRecord{
		Patient: t.Value(i, models.FieldPatient),
		Item:    t.Value(i, models.FieldItem),
	}
	var err error
	if sale.Quantity, err = ParseInt(t.Value(i, models.FieldQuantity)); err != nil {
		return sale, cellError(models.StoreSales, i, models.FieldQuantity, err)
	}
	if sale.Total, err = ParseDecimal(t.Value(i, models.FieldTotal)); err != nil {
		return sale, cellError(models.StoreSales, i, models.FieldTotal, err)
	}
	return sale, nil
}

// DecodePatients returns the typed view of a patients table.
func DecodePatients(t models.Table) ([]models.PatientRecord, error) {
	patients := make([]models.PatientRecord, 0, t.Len())
	for i := range t.Rows {
		p := models.PatientRecord{
			Name:           t.Value(i, models.FieldName),
			Diagnosis:      t.Value(i, models.FieldDiagnosis),
			MedicalHistory: t.Value(i, models.FieldMedicalHistory),
		}
		age, err := ParseInt(t.Value(i, models.FieldAge))
		if err != nil {
			return nil, cellError(models.StorePatients, i, models.FieldAge, err)
		}
		p.Age = age
		patients = append(patients, p)
	}
	return patients, nil
}
