package model

import "net/url"

// Category is the fixed classification of a discovered resource
type Category int

const (
	CategoryImage Category = iota + 1
	CategoryScript
	CategoryStylesheet
)

// Categories returns all resource categories
func Categories() []Category {
	return []Category{CategoryImage, CategoryScript, CategoryStylesheet}
}

// Dir returns the destination folder name of the category
func (c Category) Dir() string {
	switch c {
	case CategoryImage:
		return "img"
	case CategoryScript:
		return "script"
	case CategoryStylesheet:
		return "stylesheet"
	default:
		return "unknown"
	}
}

func (c Category) String() string { return c.Dir() }

// Resource is a resource reference discovered in the fetched page
type Resource struct {
	URL      *url.URL
	Category Category
}
