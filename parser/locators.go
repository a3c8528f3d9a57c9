package parser

import (
	"fmt"
	"regexp"
)

// Locators maps each listing field to the markup that carries it, so a
// markup change is a configuration edit.
type Locators struct {
	// Listing selects one anchor per listing card.
	Listing string `yaml:"listing"`
	// LabelAttr holds "<type> - <address>, <area>".
	LabelAttr string `yaml:"label_attr"`
	Separator string `yaml:"separator"`
	Size      string `yaml:"size"`
	// SizePattern must capture the numeric size in group 1.
	SizePattern string `yaml:"size_pattern"`
	Price       string `yaml:"price"`
	Dates       string `yaml:"dates"`
	DateItem    string `yaml:"date_item"`
	// BaseOrigin prefixes relative listing links.
	BaseOrigin string `yaml:"base_origin"`
}

// DefaultLocators returns the locators for the current Blocket Bostad markup.
func DefaultLocators() Locators {
	return Locators{
		Listing:     "a[aria-label]",
		LabelAttr:   "aria-label",
		Separator:   " - ",
		Size:        "div.ea5jgjt0 p:last-child",
		SizePattern: `(?i)(\d+)\s*m²?`,
		Price:       "p.eq1ubw50",
		Dates:       "div.e1ngqp210",
		DateItem:    "span",
		BaseOrigin:  "https://bostad.blocket.se",
	}
}

// Merge returns l with every empty field taken from defaults.
func (l Locators) Merge(defaults Locators) Locators {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Locators{
		Listing:     pick(l.Listing, defaults.Listing),
		LabelAttr:   pick(l.LabelAttr, defaults.LabelAttr),
		Separator:   pick(l.Separator, defaults.Separator),
		Size:        pick(l.Size, defaults.Size),
		SizePattern: pick(l.SizePattern, defaults.SizePattern),
		Price:       pick(l.Price, defaults.Price),
		Dates:       pick(l.Dates, defaults.Dates),
		DateItem:    pick(l.DateItem, defaults.DateItem),
		BaseOrigin:  pick(l.BaseOrigin, defaults.BaseOrigin),
	}
}

// Validate checks that the locators can drive an extraction.
func (l Locators) Validate() error {
	if l.Listing == "" || l.LabelAttr == "" || l.Separator == "" {
		return fmt.Errorf("listing, label_attr and separator locators are required")
	}
	re, err := regexp.Compile(l.SizePattern)
	if err != nil {
		return fmt.Errorf("invalid size_pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("size_pattern must have a capture group")
	}
	return nil
}
