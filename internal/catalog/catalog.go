// Package catalog holds the fixed drink and size catalogs and the input
// normalization rules for each dialogue step.
//
// Codes are lower-case catalog keys; labels are the display names shown
// to users. Historic orders are never re-validated against catalog
// changes.
package catalog

import (
	"sort"
	"strings"

	"github.com/brewbeat/baristabot/internal/models"
)

// Drinks maps drink codes to display labels.
var Drinks = map[string]string{
	"americano":  "Americano",
	"latte":      "Latte",
	"cappuccino": "Cappuccino",
	"flat white": "Flat white",
	"mocha":      "Mocha",
}

// Sizes maps size codes to display labels.
var Sizes = map[string]string{
	"small":  "Small",
	"medium": "Medium",
	"large":  "Large",
}

// milkSynonyms normalizes affirmative/negative answers in two languages.
var milkSynonyms = map[string]string{
	"yes": models.MilkYes,
	"y":   models.MilkYes,
	"да":  models.MilkYes,
	"no":  models.MilkNo,
	"n":   models.MilkNo,
	"нет": models.MilkNo,
}

// NormalizeDrink lower-cases the input and checks catalog membership.
func NormalizeDrink(input string) (string, bool) {
	code := strings.ToLower(strings.TrimSpace(input))
	_, ok := Drinks[code]
	return code, ok
}

// NormalizeSize lower-cases the input and checks catalog membership.
func NormalizeSize(input string) (string, bool) {
	code := strings.ToLower(strings.TrimSpace(input))
	_, ok := Sizes[code]
	return code, ok
}

// NormalizeMilk maps an answer to "yes"/"no" through the synonym set.
func NormalizeMilk(input string) (string, bool) {
	norm, ok := milkSynonyms[strings.ToLower(strings.TrimSpace(input))]
	return norm, ok
}

// IsDrink reports whether code is a valid drink code. The "all" filter
// token is not a drink.
func IsDrink(code string) bool {
	_, ok := Drinks[code]
	return ok
}

// DrinkLabel returns the display label for a drink code. The "all"
// filter token gets its own label; unknown codes are title-cased as-is.
func DrinkLabel(code string) string {
	if code == "all" || code == "" {
		return "All"
	}
	if label, ok := Drinks[code]; ok {
		return label
	}
	return titleCase(code)
}

// SizeLabel returns the display label for a size code.
func SizeLabel(code string) string {
	if label, ok := Sizes[code]; ok {
		return label
	}
	return titleCase(code)
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// MilkLabel renders a stored milk value for display.
func MilkLabel(milk string) string {
	if milk == models.MilkYes {
		return "With milk"
	}
	return "No milk"
}

// DrinkLabels returns all drink display labels in a stable order.
func DrinkLabels() []string {
	labels := make([]string, 0, len(Drinks))
	for _, label := range Drinks {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// DrinkCodes returns all drink codes in a stable order.
func DrinkCodes() []string {
	codes := make([]string, 0, len(Drinks))
	for code := range Drinks {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
