package geo

// DefaultCityCode is returned when a destination is not in the table.
const DefaultCityCode = "NYC"

// cityCodes maps destination names to IATA city (or main airport) codes.
// More specific names come first ("porto seguro" before "porto").
var cityCodes = Table[string]{
	Rules: []Rule[string]{
		{Keywords: []string{"fernando de noronha", "noronha"}, Value: "FEN"},
		{Keywords: []string{"rio de janeiro"}, Value: "RIO"},
		{Keywords: []string{"sao paulo"}, Value: "SAO"},
		{Keywords: []string{"salvador"}, Value: "SSA"},
		{Keywords: []string{"porto seguro"}, Value: "BPS"},
		{Keywords: []string{"florianopolis"}, Value: "FLN"},
		{Keywords: []string{"foz do iguacu", "iguacu"}, Value: "IGU"},
		{Keywords: []string{"gramado", "porto alegre"}, Value: "POA"},
		{Keywords: []string{"natal"}, Value: "NAT"},
		{Keywords: []string{"fortaleza"}, Value: "FOR"},
		{Keywords: []string{"recife"}, Value: "REC"},
		{Keywords: []string{"bonito"}, Value: "BYO"},
		{Keywords: []string{"buenos aires"}, Value: "BUE"},
		{Keywords: []string{"santiago"}, Value: "SCL"},
		{Keywords: []string{"montevideu", "montevideo"}, Value: "MVD"},
		{Keywords: []string{"lima"}, Value: "LIM"},
		{Keywords: []string{"cartagena"}, Value: "CTG"},
		{Keywords: []string{"lisboa", "lisbon"}, Value: "LIS"},
		{Keywords: []string{"porto"}, Value: "OPO"},
		{Keywords: []string{"orlando"}, Value: "ORL"},
		{Keywords: []string{"miami"}, Value: "MIA"},
		{Keywords: []string{"nova york", "new york"}, Value: "NYC"},
		{Keywords: []string{"paris"}, Value: "PAR"},
		{Keywords: []string{"roma", "rome"}, Value: "ROM"},
		{Keywords: []string{"londres", "london"}, Value: "LON"},
		{Keywords: []string{"madri", "madrid"}, Value: "MAD"},
		{Keywords: []string{"barcelona"}, Value: "BCN"},
		{Keywords: []string{"cancun"}, Value: "CUN"},
		{Keywords: []string{"toquio", "tokyo"}, Value: "TYO"},
		{Keywords: []string{"dubai"}, Value: "DXB"},
		{Keywords: []string{"zurique", "zurich"}, Value: "ZRH"},
	},
	Default: DefaultCityCode,
}

// CityCode returns the IATA code for a destination name. guessed is true when
// the name was not recognized and DefaultCityCode was returned.
func CityCode(destination string) (code string, guessed bool) {
	code, matched := cityCodes.Match(destination)
	return code, !matched
}
