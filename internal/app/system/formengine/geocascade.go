package formengine

import (
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/geo"
)

// countryValue is the country the geo option lists are scoped to. Forms
// without a country field are scoped to the special country.
func (f *Form) countryValue() string {
	if f.country == "" {
		return f.conv.SpecialCountry
	}
	return f.values.String(f.country)
}

// geoHidden reports whether a department/city field is replaced by the
// sentinel because the chosen country does not use them.
func (f *Form) geoHidden(fl field) bool {
	if fl.role != roleDepartment && fl.role != roleCity {
		return false
	}
	if f.country == "" {
		return false
	}
	c := strings.TrimSpace(f.values.String(f.country))
	return c != "" && !f.conv.IsSpecial(c)
}

// changeCountry stores the display name of the chosen country, derives the
// phone code and invalidates any department/city picked for the old one.
func (f *Form) changeCountry(v string) {
	v = strings.TrimSpace(v)
	if c, ok := geo.ResolveCountry(v); ok {
		v = c.Name
	}
	prev := f.values.String(f.country)
	f.values[f.country] = v
	f.writePhoneCode(v)

	if prev != v {
		f.setIfDeclared(f.department, "")
		f.setIfDeclared(f.city, "")
	}
}

// changeDepartment stores the department and clears the city chosen under
// the previous one.
func (f *Form) changeDepartment(v string) {
	v = strings.TrimSpace(v)
	if c, ok := geo.ResolveCountry(f.countryValue()); ok {
		if s, ok := geo.StateByName(c, v); ok {
			v = s.Name
		}
	}
	prev := f.values.String(f.department)
	f.values[f.department] = v
	if prev != v {
		f.setIfDeclared(f.city, "")
	}
}

// changeCity accepts a composite "city::stateCode" option value, stores
// only the city name and pulls department (and, if it drifted, country)
// into agreement with it.
func (f *Form) changeCity(v string) {
	v = strings.TrimSpace(v)
	city, code, ok := geo.SplitCityKey(v)
	if !ok {
		f.values[f.city] = city
		return
	}

	if c, found := geo.ResolveCountry(f.countryValue()); found {
		if s, found := geo.StateByCode(c, code); found && hasCity(s, city) {
			f.values[f.city] = city
			f.setIfDeclared(f.department, s.Name)
			return
		}
	}

	locs := geo.LocateCity(city, code)
	if len(locs) == 0 {
		f.values[f.city] = city
		return
	}
	loc := locs[0]
	if f.country != "" && !f.conv.IsSpecial(loc.Country.Name) {
		// Only the special country keeps department/city values.
		f.values[f.city] = city
		return
	}
	if f.country != "" && f.values.String(f.country) != loc.Country.Name {
		f.values[f.country] = loc.Country.Name
		f.writePhoneCode(loc.Country.Name)
	}
	f.setIfDeclared(f.department, loc.State.Name)
	f.values[f.city] = loc.City
}

// writePhoneCode sets the phone-code field from country, or clears it when
// the country is unknown.
func (f *Form) writePhoneCode(country string) {
	if f.phoneCode == "" {
		return
	}
	code := ""
	if c, ok := geo.ResolveCountry(country); ok {
		code = geo.PhoneCode(c)
	}
	f.values[f.phoneCode] = code
}

func (f *Form) setIfDeclared(name, v string) {
	if name == "" {
		return
	}
	f.values[name] = v
}

func hasCity(s geo.State, city string) bool {
	for _, c := range s.Cities {
		if c == city {
			return true
		}
	}
	return false
}
