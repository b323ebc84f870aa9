package formengine

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Conventions names the well-known geo fields and the country that
// requires department and city.
type Conventions struct {
	CountryField    string
	DepartmentField string
	CityField       string
	PhoneCodeField  string

	// SpecialCountry is the display name of the country whose department
	// and city are required.
	SpecialCountry string
	// Sentinel marks department/city as not applicable.
	Sentinel string
}

// DefaultConventions returns the field names used by existing schemas.
func DefaultConventions() Conventions {
	return Conventions{
		CountryField:    "pais",
		DepartmentField: "departamento",
		CityField:       "ciudad",
		PhoneCodeField:  "indicativo",
		SpecialCountry:  "Colombia",
		Sentinel:        "No aplica",
	}
}

// withDefaults fills any blank member from DefaultConventions.
func (c Conventions) withDefaults() Conventions {
	d := DefaultConventions()
	if c.CountryField == "" {
		c.CountryField = d.CountryField
	}
	if c.DepartmentField == "" {
		c.DepartmentField = d.DepartmentField
	}
	if c.CityField == "" {
		c.CityField = d.CityField
	}
	if c.PhoneCodeField == "" {
		c.PhoneCodeField = d.PhoneCodeField
	}
	if c.SpecialCountry == "" {
		c.SpecialCountry = d.SpecialCountry
	}
	if c.Sentinel == "" {
		c.Sentinel = d.Sentinel
	}
	return c
}

// IsSpecial reports whether country names the special country.
func (c Conventions) IsSpecial(country string) bool {
	return text.Fold(strings.TrimSpace(country)) == text.Fold(c.SpecialCountry)
}
