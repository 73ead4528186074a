package valuation

import (
	"strings"

	"stock-valuator/models"
)

// Template names a set of weights and thresholds tuned to a sector archetype
type Template string

const (
	TemplateDefault Template = "DEFAULT"
	TemplateTech    Template = "TECH"
	TemplateBanks   Template = "BANKS"
	TemplateEnergy  Template = "ENERGY"
)

// Templates returns the known templates in display order
func Templates() []Template {
	return []Template{TemplateDefault, TemplateTech, TemplateBanks, TemplateEnergy}
}

// Known reports whether t has its own policy
func (t Template) Known() bool {
	_, ok := policies[t]
	return ok
}

// sectorRules are checked in order; the first match wins.
var sectorRules = []struct {
	template Template
	needles  []string
}{
	{TemplateBanks, []string{"financial"}},
	{TemplateEnergy, []string{"energy"}},
	{TemplateTech, []string{"tech", "communication", "internet", "software"}},
}

// SelectTemplate resolves the template for a request. Any explicit value
// other than AUTO is returned as is (upper-cased); unknown names fall back to
// the DEFAULT policy at lookup time. AUTO matches the sector text.
func SelectTemplate(explicit, sector string) Template {
	explicit = strings.ToUpper(strings.TrimSpace(explicit))
	if explicit != "" && explicit != models.TemplateAuto {
		return Template(explicit)
	}

	s := strings.ToLower(sector)
	for _, rule := range sectorRules {
		for _, needle := range rule.needles {
			if strings.Contains(s, needle) {
				return rule.template
			}
		}
	}
	return TemplateDefault
}
