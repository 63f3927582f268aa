package estimate

import (
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"
)

// USDToBRL is the fixed rate used by the heuristics. It is not the live rate,
// so estimates stay reproducible.
const USDToBRL = 5.5

// Region is a coarse flight-price region.
type Region struct {
	Name    string
	BaseUSD float64 // round trip per person from Brazil
}

// regions is matched against "name country"; first match wins.
var regions = geo.Table[Region]{
	Rules: []geo.Rule[Region]{
		{Keywords: []string{"brasil", "brazil"}, Value: Region{"Brasil", 150}},
		{Keywords: []string{"argentina", "chile", "uruguai", "uruguay", "peru", "colombia", "paraguai", "bolivia", "equador"}, Value: Region{"América do Sul", 400}},
		{Keywords: []string{"estados unidos", "eua", "united states", "mexico", "canada", "caribe", "cuba", "punta cana", "republica dominicana", "aruba", "jamaica", "bahamas"}, Value: Region{"América do Norte e Caribe", 800}},
		{Keywords: []string{"portugal", "franca", "espanha", "italia", "alemanha", "reino unido", "inglaterra", "holanda", "grecia", "suica", "europa"}, Value: Region{"Europa", 1100}},
		{Keywords: []string{"australia", "nova zelandia", "oceania"}, Value: Region{"Oceania", 1800}},
		{Keywords: []string{"japao", "china", "tailandia", "emirados", "india", "coreia", "singapura", "indonesia", "vietna", "asia"}, Value: Region{"Ásia e Oriente Médio", 1500}},
		{Keywords: []string{"africa", "egito", "marrocos", "quenia"}, Value: Region{"África", 1300}},
	},
	Default: Region{"Outros", 1000},
}

// Tier is a city hotel-price tier.
type Tier struct {
	Name  string
	Daily float64 // BRL per night for one room
}

var hotelTiers = geo.Table[Tier]{
	Rules: []geo.Rule[Tier]{
		{Keywords: []string{"paris", "londres", "london", "nova york", "new york", "toquio", "tokyo", "dubai", "zurique", "zurich", "noronha"}, Value: Tier{"expensive", 900}},
		{Keywords: []string{"lisboa", "roma", "orlando", "cancun", "santiago", "buenos aires", "montevideu", "rio de janeiro", "gramado", "cartagena", "lima", "madri", "barcelona"}, Value: Tier{"medium", 450}},
		{Keywords: []string{"salvador", "fortaleza", "natal", "recife", "foz do iguacu", "bonito", "florianopolis"}, Value: Tier{"budget", 200}},
	},
	Default: Tier{"default", 300},
}

var flightStyle = map[domain.TravelStyle]float64{
	domain.StyleEconomica: 0.85,
	domain.StyleConforto:  1.0,
	domain.StyleLuxo:      2.5,
	domain.StyleAventura:  0.9,
}

var hotelStyle = map[domain.TravelStyle]float64{
	domain.StyleEconomica: 0.7,
	domain.StyleConforto:  1.0,
	domain.StyleLuxo:      2.2,
	domain.StyleAventura:  0.8,
}

// sharedRoomFactor scales the daily rate per traveler when more than one
// traveler shares rooms.
const sharedRoomFactor = 0.7

// RegionFor returns the flight region of a destination.
func RegionFor(d domain.DestinationDescriptor) Region {
	r, _ := regions.Match(d.Name + " " + d.Country)
	return r
}

// TierFor returns the hotel tier of a destination.
func TierFor(d domain.DestinationDescriptor) Tier {
	t, _ := hotelTiers.Match(d.Name + " " + d.Country)
	return t
}
