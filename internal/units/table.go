package units

import "strings"

const (
	dimEnergy = "energy"
	dimTime   = "time"
	dimMass   = "mass"
	dimLength = "length"
)

func currency(code string) string { return "currency:" + code }

// baseUnits are the atomic symbols the parser understands before prefixes.
var baseUnits = map[string]Unit{
	// Dimensionless.
	"1":        {Scale: 1, Dims: Dims{}},
	"%":        {Scale: 0.01, Dims: Dims{}},
	"ratio":    {Scale: 1, Dims: Dims{}},
	"fraction": {Scale: 1, Dims: Dims{}},
	"-":        {Scale: 1, Dims: Dims{}},

	// Time.
	"s":     {Scale: 1, Dims: Dims{dimTime: 1}},
	"min":   {Scale: 60, Dims: Dims{dimTime: 1}},
	"h":     {Scale: 3600, Dims: Dims{dimTime: 1}},
	"d":     {Scale: 86400, Dims: Dims{dimTime: 1}},
	"day":   {Scale: 86400, Dims: Dims{dimTime: 1}},
	"yr":    {Scale: 365 * 86400, Dims: Dims{dimTime: 1}},
	"year":  {Scale: 365 * 86400, Dims: Dims{dimTime: 1}},
	"years": {Scale: 365 * 86400, Dims: Dims{dimTime: 1}},
	"a":     {Scale: 365 * 86400, Dims: Dims{dimTime: 1}},

	// Energy and power.
	"J":  {Scale: 1, Dims: Dims{dimEnergy: 1}},
	"Wh": {Scale: 3600, Dims: Dims{dimEnergy: 1}},
	"W":  {Scale: 1, Dims: Dims{dimEnergy: 1, dimTime: -1}},

	// Mass. Emissions are tracked as mass of CO2.
	"g":    {Scale: 0.001, Dims: Dims{dimMass: 1}},
	"kg":   {Scale: 1, Dims: Dims{dimMass: 1}},
	"t":    {Scale: 1000, Dims: Dims{dimMass: 1}},
	"tCO2": {Scale: 1000, Dims: Dims{dimMass: 1}},

	// Length.
	"m":  {Scale: 1, Dims: Dims{dimLength: 1}},
	"km": {Scale: 1000, Dims: Dims{dimLength: 1}},

	// Currency. Different currencies never convert into each other.
	"$":   {Scale: 1, Dims: Dims{currency("USD"): 1}},
	"USD": {Scale: 1, Dims: Dims{currency("USD"): 1}},
	"EUR": {Scale: 1, Dims: Dims{currency("EUR"): 1}},
	"€":   {Scale: 1, Dims: Dims{currency("EUR"): 1}},
}

// prefixable lists the symbols that accept a metric multiplier.
var prefixable = map[string]bool{
	"W": true, "Wh": true, "J": true,
	"t": true, "tCO2": true,
	"$": true, "USD": true, "EUR": true, "€": true,
}

var prefixes = map[string]float64{
	"k": 1e3,
	"M": 1e6,
	"G": 1e9,
	"T": 1e12,
}

// lookupAtom resolves one unit symbol, applying a metric prefix when the
// bare symbol is unknown.
func lookupAtom(sym string) (Unit, bool) {
	if u, ok := baseUnits[sym]; ok {
		return Unit{Symbol: sym, Scale: u.Scale, Dims: u.Dims}, true
	}
	// "bn$" and "mn$" show up in cost tables.
	for _, p := range []struct {
		prefix string
		scale  float64
	}{{"bn", 1e9}, {"mn", 1e6}} {
		if rest, ok := strings.CutPrefix(sym, p.prefix); ok && prefixable[rest] {
			u := baseUnits[rest]
			return Unit{Symbol: sym, Scale: u.Scale * p.scale, Dims: u.Dims}, true
		}
	}
	if len(sym) < 2 {
		return Unit{}, false
	}
	scale, ok := prefixes[sym[:1]]
	if !ok || !prefixable[sym[1:]] {
		return Unit{}, false
	}
	u := baseUnits[sym[1:]]
	return Unit{Symbol: sym, Scale: u.Scale * scale, Dims: u.Dims}, true
}
