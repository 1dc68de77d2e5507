package models

import "time"

// InventoryReport is a point-in-time snapshot of the three stores, archived in MongoDB.
// Money amounts are kept as fixed two-decimal strings.
type InventoryReport struct {
	Date          time.Time `bson:"date" json:"date"`
	Items         int       `bson:"items" json:"items"`
	UnitsInStock  int64     `bson:"units_in_stock" json:"units_in_stock"`
	StockValue    string    `bson:"stock_value" json:"stock_value"`
	LowStockItems []string  `bson:"low_stock_items" json:"low_stock_items"`
	SalesCount    int       `bson:"sales_count" json:"sales_count"`
	UnitsSold     int64     `bson:"units_sold" json:"units_sold"`
	Revenue       string    `bson:"revenue" json:"revenue"`
	Patients      int       `bson:"patients" json:"patients"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
