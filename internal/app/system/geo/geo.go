// Package geo is the offline country / state / city reference table used by
// the form engine's cascading selects.
//
// Countries, dialing codes and ISO 3166-2 subdivisions come from gountries.
// Display names are the Spanish ones where the dataset has them. Countries
// listed in geodata/localities.json replace the library's subdivisions with
// their own states and full city lists; that file carries the special
// country. Everything is built once; lookups after that are map reads.
package geo

import (
	"embed"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/pariz/gountries"
)

//go:embed geodata/localities.json
var FS embed.FS

// CityKeySep joins a city name and its state code in city option values.
const CityKeySep = "::"

// displayLang is the gountries translation key used for display names.
const displayLang = "spa"

type State struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Cities []string `json:"cities"`
}

type Country struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	PhoneCodes []string `json:"phone_codes"`
	States     []State  `json:"states"`
}

// Location is one place a city name appears in the dataset.
type Location struct {
	Country Country
	State   State
	City    string
}

var (
	loadOnce  sync.Once
	countries []Country
	byCode    map[string]int
	byName    map[string]int
	loadErr   error
)

func load() {
	loadOnce.Do(func() {
		data, err := FS.ReadFile("geodata/localities.json")
		if err != nil {
			loadErr = err
			return
		}
		var local []Country
		if err := json.Unmarshal(data, &local); err != nil {
			loadErr = err
			return
		}
		overrides := make(map[string]Country, len(local))
		for _, c := range local {
			overrides[strings.ToUpper(c.Code)] = c
		}

		all := gountries.New().FindAllCountries()
		list := make([]Country, 0, len(all))
		aliases := make(map[string][]string, len(all))
		for _, gc := range all {
			c := fromLibrary(gc)
			if o, ok := overrides[c.Code]; ok {
				c = merge(c, o)
				delete(overrides, c.Code)
			}
			aliases[c.Code] = []string{gc.Name.Common, gc.Name.Official}
			list = append(list, c)
		}
		// Entries the library does not know are taken as they are.
		for _, o := range overrides {
			o.Code = strings.ToUpper(o.Code)
			list = append(list, o)
		}

		sort.SliceStable(list, func(i, j int) bool {
			return text.Fold(list[i].Name) < text.Fold(list[j].Name)
		})

		countries = list
		byCode = make(map[string]int, len(list))
		byName = make(map[string]int, len(list)*3)
		for i, c := range list {
			byCode[c.Code] = i
			byName[text.Fold(c.Name)] = i
		}
		// English names resolve too, unless a display name already took them.
		for i, c := range list {
			for _, a := range aliases[c.Code] {
				k := text.Fold(strings.TrimSpace(a))
				if _, taken := byName[k]; k != "" && !taken {
					byName[k] = i
				}
			}
		}
	})
}

func fromLibrary(gc gountries.Country) Country {
	name := gc.Name.Common
	if t, ok := gc.Translations[displayLang]; ok && strings.TrimSpace(t.Common) != "" {
		name = t.Common
	}
	c := Country{
		Code:       strings.ToUpper(gc.Codes.Alpha2),
		Name:       name,
		PhoneCodes: append([]string(nil), gc.CallingCodes...),
	}
	for _, sd := range gc.SubDivisions() {
		if strings.TrimSpace(sd.Name) == "" {
			continue
		}
		c.States = append(c.States, State{Code: sd.Code, Name: sd.Name})
	}
	sort.SliceStable(c.States, func(i, j int) bool {
		return text.Fold(c.States[i].Name) < text.Fold(c.States[j].Name)
	})
	return c
}

// merge lays a localities.json entry over the library record. Blank members
// of o keep the library value.
func merge(c, o Country) Country {
	if strings.TrimSpace(o.Name) != "" {
		c.Name = o.Name
	}
	if len(o.PhoneCodes) > 0 {
		c.PhoneCodes = o.PhoneCodes
	}
	if len(o.States) > 0 {
		c.States = o.States
	}
	return c
}

// Load is optional: call it at startup to fail fast on a broken dataset.
func Load() error {
	load()
	return loadErr
}

// Countries returns every country sorted by display name.
func Countries() ([]Country, error) {
	load()
	if loadErr != nil {
		return nil, loadErr
	}
	return countries, nil
}

// CountryByName matches a display name, ignoring case and diacritics.
func CountryByName(name string) (Country, bool) {
	load()
	if loadErr != nil {
		return Country{}, false
	}
	i, ok := byName[text.Fold(strings.TrimSpace(name))]
	if !ok {
		return Country{}, false
	}
	return countries[i], true
}

// CountryByCode matches an ISO 3166-1 alpha-2 code.
func CountryByCode(code string) (Country, bool) {
	load()
	if loadErr != nil {
		return Country{}, false
	}
	i, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return countries[i], true
}

// ResolveCountry accepts either a display name or an ISO code.
func ResolveCountry(v string) (Country, bool) {
	if c, ok := CountryByName(v); ok {
		return c, true
	}
	return CountryByCode(v)
}

// PhoneCode returns the country's first dialing code with a leading "+".
// A country the dataset lists without one yields "".
func PhoneCode(c Country) string {
	for _, pc := range c.PhoneCodes {
		pc = strings.TrimSpace(pc)
		if pc == "" {
			continue
		}
		return "+" + strings.TrimLeft(pc, "+")
	}
	return ""
}

// StateByCode finds a state of c by its code.
func StateByCode(c Country, code string) (State, bool) {
	for _, s := range c.States {
		if strings.EqualFold(s.Code, code) {
			return s, true
		}
	}
	return State{}, false
}

// StateByName finds a state of c by display name, ignoring case and diacritics.
func StateByName(c Country, name string) (State, bool) {
	folded := text.Fold(strings.TrimSpace(name))
	for _, s := range c.States {
		if text.Fold(s.Name) == folded {
			return s, true
		}
	}
	return State{}, false
}

// CountryOptions lists every country, value and label both the display name.
func CountryOptions() []models.PropertyOption {
	list, err := Countries()
	if err != nil {
		return nil
	}
	out := make([]models.PropertyOption, 0, len(list))
	for _, c := range list {
		out = append(out, models.PropertyOption{Value: c.Name, Label: c.Name})
	}
	return out
}

// StateOptions lists the states of the named country.
func StateOptions(country string) []models.PropertyOption {
	c, ok := ResolveCountry(country)
	if !ok {
		return nil
	}
	out := make([]models.PropertyOption, 0, len(c.States))
	for _, s := range c.States {
		out = append(out, models.PropertyOption{Value: s.Name, Label: s.Name})
	}
	return out
}

// CityOptions lists the cities of state within country. With an empty or
// unknown state it falls back to every city of the country. Values are
// composite keys (see CityKey) so equally named cities stay distinct.
func CityOptions(country, state string) []models.PropertyOption {
	c, ok := ResolveCountry(country)
	if !ok {
		return nil
	}
	if s, ok := StateByName(c, state); ok {
		out := make([]models.PropertyOption, 0, len(s.Cities))
		for _, city := range s.Cities {
			out = append(out, models.PropertyOption{Value: CityKey(city, s.Code), Label: city})
		}
		return out
	}

	var out []models.PropertyOption
	for _, s := range c.States {
		for _, city := range s.Cities {
			out = append(out, models.PropertyOption{
				Value: CityKey(city, s.Code),
				Label: city + ", " + s.Name,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return text.Fold(out[i].Label) < text.Fold(out[j].Label)
	})
	return out
}

// CityKey builds the composite option value "city::stateCode".
func CityKey(city, stateCode string) string {
	return city + CityKeySep + stateCode
}

// SplitCityKey decomposes a composite city option value. ok is false when
// key carries no state code (a plain city name).
func SplitCityKey(key string) (city, stateCode string, ok bool) {
	i := strings.LastIndex(key, CityKeySep)
	if i < 0 {
		return key, "", false
	}
	return key[:i], key[i+len(CityKeySep):], true
}

// LocateCity returns every country/state pair holding city under stateCode.
func LocateCity(city, stateCode string) []Location {
	list, err := Countries()
	if err != nil {
		return nil
	}
	folded := text.Fold(city)
	var out []Location
	for _, c := range list {
		s, ok := StateByCode(c, stateCode)
		if !ok {
			continue
		}
		for _, name := range s.Cities {
			if text.Fold(name) == folded {
				out = append(out, Location{Country: c, State: s, City: name})
				break
			}
		}
	}
	return out
}
