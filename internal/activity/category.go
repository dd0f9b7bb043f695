package activity

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCategory = errors.New("invalid category")

// Category identifies one of the fixed activity groups.
type Category string

const (
	CategoryHealth  Category = "health"
	CategoryFinance Category = "finance"
	CategoryTravel  Category = "travel"
	CategoryLeisure Category = "leisure"
	CategoryFamily  Category = "family"
)

// RGB is a colour used when rendering a category.
type RGB struct {
	R, G, B int
}

// CategoryInfo holds the display attributes of a category.
type CategoryInfo struct {
	ID    Category
	Name  string
	Color RGB
}

// Categories is the single, ordered enumeration of categories. Validation,
// storage, reports and the CLI all read from it.
var Categories = []CategoryInfo{
	{ID: CategoryHealth, Name: "Health", Color: RGB{0xef, 0x44, 0x44}},
	{ID: CategoryFinance, Name: "Finance", Color: RGB{0x22, 0xc5, 0x5e}},
	{ID: CategoryTravel, Name: "Travel", Color: RGB{0x3b, 0x82, 0xf6}},
	{ID: CategoryLeisure, Name: "Leisure", Color: RGB{0xa8, 0x55, 0xf7}},
	{ID: CategoryFamily, Name: "Family", Color: RGB{0xf9, 0x73, 0x16}},
}

// ParseCategory resolves a category id, ignoring case and surrounding space.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Valid reports whether c is part of the enumeration.
func (c Category) Valid() bool {
	_, ok := c.info()
	return ok
}

// Name returns the display name, or the raw id for unknown categories.
func (c Category) Name() string {
	if info, ok := c.info(); ok {
		return info.Name
	}
	return string(c)
}

// Slug is the lowercase display name, used in file names.
func (c Category) Slug() string {
	return strings.ToLower(c.Name())
}

// Color returns the category colour, grey for unknown categories.
func (c Category) Color() RGB {
	if info, ok := c.info(); ok {
		return info.Color
	}
	return RGB{0x6b, 0x72, 0x80}
}

func (c Category) String() string {
	return string(c)
}

func (c Category) info() (CategoryInfo, bool) {
	for _, info := range Categories {
		if info.ID == c {
			return info, true
		}
	}
	return CategoryInfo{}, false
}
