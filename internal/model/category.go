package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a name does not match any category.
var ErrUnknownCategory = errors.New("unknown category")

// Category is one label from the fixed set used for budgeting and classification.
type Category string

// The closed set of expense categories.
const (
	CategoryFood      Category = "Food"
	CategoryTransport Category = "Transport"
	CategoryMusic     Category = "Music"
	CategorySocial    Category = "Social"
	CategoryTech      Category = "Tech"
	CategoryOther     Category = "Other"
)

var allCategories = [...]Category{
	CategoryFood,
	CategoryTransport,
	CategoryMusic,
	CategorySocial,
	CategoryTech,
	CategoryOther,
}

// Categories returns the ordered category list. The returned slice is a copy.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories[:])
	return out
}

// CategoryNames returns the ordered category list as plain strings.
func CategoryNames() []string {
	names := make([]string, len(allCategories))
	for i, c := range allCategories {
		names[i] = string(c)
	}
	return names
}

// ParseCategory matches name against the category set, ignoring case and
// surrounding whitespace.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	for _, c := range allCategories {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownCategory, name, strings.Join(CategoryNames(), ", "))
}

// Valid reports whether c is a member of the category set.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
