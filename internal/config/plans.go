package config

import "strings"

// planToProduct maps our plan ids to Polar product ids.
var planToProduct = map[string]string{
	"plus": "46b04f9e-0d98-45b2-a7eb-eb1a3521ba01",
	// add more here
}

// ProductForPlan resolves a plan id (case-insensitive) to a Polar product id.
func ProductForPlan(planID string) (string, bool) {
	productID, ok := planToProduct[strings.ToLower(planID)]
	return productID, ok
}
