package geo

// dollarCurrencies tells which currency a bare "$" means at a destination.
// Peso countries and other dollar-sign currencies are listed; anything else
// reads "$" as US dollars.
var dollarCurrencies = Table[string]{
	Rules: []Rule[string]{
		{Keywords: []string{"argentina", "buenos aires", "bariloche", "mendoza", "ushuaia", "el calafate"}, Value: "ARS"},
		{Keywords: []string{"chile", "santiago", "valparaiso", "atacama", "punta arenas"}, Value: "CLP"},
		{Keywords: []string{"colombia", "cartagena", "bogota", "medellin", "san andres"}, Value: "COP"},
		{Keywords: []string{"uruguai", "uruguay", "montevideu", "montevideo", "punta del este"}, Value: "UYU"},
		{Keywords: []string{"mexico", "cancun", "playa del carmen", "tulum", "cidade do mexico"}, Value: "MXN"},
		{Keywords: []string{"canada", "toronto", "vancouver", "montreal", "quebec"}, Value: "CAD"},
		{Keywords: []string{"australia", "sydney", "melbourne"}, Value: "AUD"},
	},
	Default: "USD",
}

// DollarCurrency returns the ISO code a bare "$" stands for at destination.
func DollarCurrency(destination string) string {
	code, _ := dollarCurrencies.Match(destination)
	return code
}
