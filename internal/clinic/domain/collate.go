package domain

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// nameOrder compares display names the way a user reads a sorted list:
// case-insensitive and accent-aware. A Collator keeps internal buffers and
// is not safe for concurrent use, so each sort builds its own.
type nameOrder struct {
	c *collate.Collator
}

func newNameOrder() nameOrder {
	return nameOrder{c: collate.New(language.English, collate.IgnoreCase, collate.Numeric)}
}

func (n nameOrder) less(a, b string) bool {
	return n.c.CompareString(a, b) < 0
}
