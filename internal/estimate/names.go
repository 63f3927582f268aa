package estimate

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// NameGenerator supplies display names for estimated legs. Numbers never
// depend on it.
type NameGenerator interface {
	HotelName(destination string, style domain.TravelStyle) string
	Airline() (code, name string)
}

var airlines = []struct{ code, name string }{
	{"LA", "LATAM Airlines"},
	{"G3", "GOL Linhas Aéreas"},
	{"AD", "Azul Linhas Aéreas"},
	{"TP", "TAP Air Portugal"},
	{"AA", "American Airlines"},
	{"AF", "Air France"},
}

var hotelPrefixes = map[domain.TravelStyle][]string{
	domain.StyleEconomica: {"Hostel", "Pousada", "Hotel Econômico"},
	domain.StyleConforto:  {"Hotel", "Hotel Plaza", "Suítes"},
	domain.StyleLuxo:      {"Grand Hotel", "Palace", "Resort & Spa"},
	domain.StyleAventura:  {"Eco Lodge", "Camping", "Refúgio"},
}

// RandomNames picks display names at random.
type RandomNames struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomNames seeds from the current time.
func NewRandomNames() *RandomNames {
	return &RandomNames{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *RandomNames) HotelName(destination string, style domain.TravelStyle) string {
	prefixes, ok := hotelPrefixes[style]
	if !ok {
		prefixes = hotelPrefixes[domain.StyleConforto]
	}
	r.mu.Lock()
	p := prefixes[r.rnd.Intn(len(prefixes))]
	r.mu.Unlock()
	return fmt.Sprintf("%s %s", p, destination)
}

func (r *RandomNames) Airline() (string, string) {
	r.mu.Lock()
	a := airlines[r.rnd.Intn(len(airlines))]
	r.mu.Unlock()
	return a.code, a.name
}

// StaticNames always returns the same names.
type StaticNames struct {
	Hotel       string
	AirlineCode string
	AirlineName string
}

func (s StaticNames) HotelName(string, domain.TravelStyle) string { return s.Hotel }
func (s StaticNames) Airline() (string, string)                  { return s.AirlineCode, s.AirlineName }
