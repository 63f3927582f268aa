package service

import (
	"strings"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"
)

// destinationCatalog lists the destinations the suggestion flow considers.
// MinBudget is the heuristic minimum cost of a one-week trip for one traveler.
var destinationCatalog = []domain.DestinationDescriptor{
	// nacional
	{Name: "Foz do Iguaçu", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1000},
	{Name: "Florianópolis", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1100},
	{Name: "Salvador", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1200},
	{Name: "Recife", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1200},
	{Name: "Fortaleza", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1300},
	{Name: "Natal", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1300},
	{Name: "Gramado", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1400},
	{Name: "Rio de Janeiro", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1500},
	{Name: "Bonito", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 1500},
	{Name: "Fernando de Noronha", Country: "Brasil", Category: domain.CategoryNacional, MinBudget: 3500},

	// america_do_sul
	{Name: "Buenos Aires", Country: "Argentina", Category: domain.CategoryAmericaDoSul, MinBudget: 3000},
	{Name: "Montevidéu", Country: "Uruguai", Category: domain.CategoryAmericaDoSul, MinBudget: 3200},
	{Name: "Santiago", Country: "Chile", Category: domain.CategoryAmericaDoSul, MinBudget: 3500},
	{Name: "Lima", Country: "Peru", Category: domain.CategoryAmericaDoSul, MinBudget: 3800},
	{Name: "Cartagena", Country: "Colombia", Category: domain.CategoryAmericaDoSul, MinBudget: 4500},

	// internacional
	{Name: "Cancún", Country: "Mexico", Category: domain.CategoryInternacional, MinBudget: 6500},
	{Name: "Lisboa", Country: "Portugal", Category: domain.CategoryInternacional, MinBudget: 7000},
	{Name: "Orlando", Country: "Estados Unidos", Category: domain.CategoryInternacional, MinBudget: 8000},
	{Name: "Madri", Country: "Espanha", Category: domain.CategoryInternacional, MinBudget: 8500},
	{Name: "Roma", Country: "Italia", Category: domain.CategoryInternacional, MinBudget: 9000},
	{Name: "Paris", Country: "Franca", Category: domain.CategoryInternacional, MinBudget: 9500},
	{Name: "Nova York", Country: "Estados Unidos", Category: domain.CategoryInternacional, MinBudget: 10000},
	{Name: "Londres", Country: "Reino Unido", Category: domain.CategoryInternacional, MinBudget: 10500},
	{Name: "Dubai", Country: "Emirados Arabes", Category: domain.CategoryInternacional, MinBudget: 12000},
	{Name: "Tóquio", Country: "Japao", Category: domain.CategoryInternacional, MinBudget: 14000},
}

// Catalog returns a copy of the destination catalog.
func Catalog() []domain.DestinationDescriptor {
	out := make([]domain.DestinationDescriptor, len(destinationCatalog))
	copy(out, destinationCatalog)
	return out
}

// LookupDestination finds a catalog entry whose name appears in the free-form
// destination ("Paris, França" -> Paris). Unknown destinations come back with
// only the name set, which the heuristics handle through their defaults.
func LookupDestination(name string) domain.DestinationDescriptor {
	n := geo.Normalize(name)
	for _, d := range destinationCatalog {
		if strings.Contains(n, geo.Normalize(d.Name)) {
			return d
		}
	}
	return domain.DestinationDescriptor{Name: strings.TrimSpace(name)}
}
