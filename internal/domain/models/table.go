package models

import "slices"

// StoreID names one of the persisted tables.
type StoreID string

const (
	StoreInventory StoreID = "inventory"
	StoreSales     StoreID = "sales"
	StorePatients  StoreID = "patients"
)

// Field names used by the three stores.
const (
	FieldItem            = "item"
	FieldInitialQuantity = "initial_quantity"
	FieldQuantity        = "quantity"
	FieldPrice           = "price"
	FieldPatient         = "patient"
	FieldTotal           = "total"
	FieldName            = "name"
	FieldAge             = "age"
	FieldDiagnosis       = "diagnosis"
	FieldMedicalHistory  = "medical_history"
)

// Schemas lists the required fields of every store, in column order.
var Schemas = map[StoreID][]string{
	StoreInventory: {FieldItem, FieldInitialQuantity, FieldQuantity, FieldPrice},
	StoreSales:     {FieldPatient, FieldItem, FieldQuantity, FieldTotal},
	StorePatients:  {FieldName, FieldAge, FieldDiagnosis, FieldMedicalHistory},
}

// AllStores returns the store identifiers in a stable order.
func AllStores() []StoreID {
	return []StoreID{StoreInventory, StoreSales, StorePatients}
}

// Table is an ordered sequence of rows sharing one field schema. Cells are kept
// as strings the way a spreadsheet shows them; the empty string is the null
// marker. Revision is the content fingerprint observed when the table was
// loaded and is empty for tables that were never persisted.
type Table struct {
	Fields   []string   `json:"fields"`
	Rows     [][]string `json:"rows"`
	Revision string     `json:"-"`
}

// NewTable returns an empty table with the given fields.
func NewTable(fields ...string) Table {
	return Table{Fields: slices.Clone(fields), Rows: [][]string{}}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Index returns the column index of field, or -1.
func (t Table) Index(field string) int {
	return slices.Index(t.Fields, field)
}

// HasField reports whether the table carries field.
func (t Table) HasField(field string) bool { return t.Index(field) >= 0 }

// Value returns the cell at row/field, or "" when the field or cell is missing.
func (t Table) Value(row int, field string) string {
	col := t.Index(field)
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Set writes a cell. Unknown fields are ignored; short rows are padded.
func (t *Table) Set(row int, field, value string) {
	col := t.Index(field)
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return
	}
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = value
}

// Append adds a row built from field/value pairs. Fields missing from values
// get the null marker and keys unknown to the table are dropped.
func (t *Table) Append(values map[string]string) int {
	row := make([]string, len(t.Fields))
	for i, field := range t.Fields {
		row[i] = values[field]
	}
	t.Rows = append(t.Rows, row)
	return len(t.Rows) - 1
}

// AddField appends a new column filled with the null marker.
func (t *Table) AddField(field string) {
	if t.HasField(field) {
		return
	}
	t.Fields = append(t.Fields, field)
	for i := range t.Rows {
		t.Normalize(i)
	}
}

// Normalize pads or trims row i to the width of the schema.
func (t *Table) Normalize(i int) {
	width := len(t.Fields)
	switch {
	case len(t.Rows[i]) < width:
		t.Rows[i] = append(t.Rows[i], make([]string, width-len(t.Rows[i]))...)
	case len(t.Rows[i]) > width:
		t.Rows[i] = t.Rows[i][:width]
	}
}

// Find returns the first row whose field equals value, or -1.
func (t Table) Find(field, value string) int {
	col := t.Index(field)
	if col < 0 {
		return -1
	}
	for i, row := range t.Rows {
		if col < len(row) && row[col] == value {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{Fields: slices.Clone(t.Fields), Rows: make([][]string, len(t.Rows)), Revision: t.Revision}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

// Equal compares fields and cell values, ignoring Revision. Rows are compared
// after padding to the schema width so trailing null cells do not matter.
func (t Table) Equal(other Table) bool {
	if !slices.Equal(t.Fields, other.Fields) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Rows {
		for j := range t.Fields {
			if cell(t.Rows[i], j) != cell(other.Rows[i], j) {
				return false
			}
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
