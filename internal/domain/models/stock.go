package models

// StockRecord is one leaf product's inventory count at capture time.
// Composite ("variable") catalog entries are expanded into their leaf
// variations before this type is constructed; a StockRecord never has
// sub-variations of its own.
type StockRecord struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// StockChange describes how one product's quantity moved between two
// snapshots. Previous is zero for products first seen in the current
// snapshot; Current is zero for products that disappeared.
type StockChange struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Delta    float64 `json:"delta"`
}
