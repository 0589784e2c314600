package main

import "github.com/matst80/slask-theme/pkg/cart"

// sampleCatalog is served when no CATALOG_FILE is configured.
func sampleCatalog() *cart.Catalog {
	return cart.NewCatalog(
		cart.Variant{ID: 1001, ProductID: 1, Title: "Amber Oil", Handle: "amber-oil", Price: 1500, CompareAtPrice: 2000},
		cart.Variant{ID: 1002, ProductID: 1, Title: "Amber Oil", VariantTitle: "50 ml", Handle: "amber-oil", Price: 2500},
		cart.Variant{ID: 2001, ProductID: 2, Title: "Cedar Candle", Handle: "cedar-candle", Price: 3200, Inventory: 3},
		cart.Variant{ID: 3001, ProductID: 3, Title: "Citrus Mist", Handle: "citrus-mist", Price: 1800},
		cart.Variant{ID: 4001, ProductID: 4, Title: "Lavender Diffuser", Handle: "lavender-diffuser", Price: 6400, CompareAtPrice: 7200},
	)
}
