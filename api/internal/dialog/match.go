package dialog

import (
	"strings"

	"nonemergency-bot/api/internal/vision"
)

// pseudonyms maps an item label to labels a vision service may use for
// the same object. One level deep and deliberately tiny; extend per
// label as mismatches show up in the field.
var pseudonyms = map[string][]string{
	"bike": {"bicycle"},
}

// ContainsItemOrPseudonym reports whether tags contain the item by name
// (case-insensitive) or by one of its known pseudonyms.
func ContainsItemOrPseudonym(tags []vision.Tag, item string) bool {
	for _, t := range tags {
		if strings.EqualFold(t.Name, item) {
			return true
		}
	}
	for _, alias := range pseudonyms[strings.ToLower(item)] {
		if ContainsItemOrPseudonym(tags, alias) {
			return true
		}
	}
	return false
}
