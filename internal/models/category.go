package models

// Categories is the single authoritative category list. Every validator
// consults it through IsValidCategory; no call site keeps its own copy.
var Categories = []string{
	"Automotive",
	"Education & Training",
	"Electronics & Technology",
	"Entertainment",
	"Fashion & Accessories",
	"Food & Dining",
	"Health & Beauty",
	"Home & Garden",
	"Professional Services",
	"Real Estate",
	"Shopping & Retail",
	"Sports & Fitness",
	"Travel & Hotels",
}

var categorySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// IsValidCategory reports whether category is in the authoritative list.
func IsValidCategory(category string) bool {
	_, ok := categorySet[category]
	return ok
}
