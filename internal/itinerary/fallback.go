package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"
)

type activitySet struct {
	theme      string
	activities []domain.ItineraryActivity
}

type templateRegion struct {
	name string
	sets []activitySet
}

var asianSets = []activitySet{
	{"Templos e tradição", []domain.ItineraryActivity{
		{Time: "09:00", Name: "Visita a templo histórico", EstimatedCost: "US$ 10"},
		{Time: "13:00", Name: "Almoço de comida de rua", EstimatedCost: "US$ 8"},
		{Time: "18:00", Name: "Mercado noturno", EstimatedCost: "US$ 15"},
	}},
	{"Cidade moderna", []domain.ItineraryActivity{
		{Time: "10:00", Name: "Mirante panorâmico", EstimatedCost: "US$ 25"},
		{Time: "14:00", Name: "Bairro de compras e tecnologia", EstimatedCost: "Gratuito"},
		{Time: "20:00", Name: "Jantar com culinária local", EstimatedCost: "US$ 30"},
	}},
	{"Natureza e jardins", []domain.ItineraryActivity{
		{Time: "09:30", Name: "Jardim tradicional", EstimatedCost: "US$ 6"},
		{Time: "13:30", Name: "Passeio de barco", EstimatedCost: "US$ 20"},
		{Time: "19:00", Name: "Cerimônia do chá", EstimatedCost: "US$ 18"},
	}},
}

var europeanSets = []activitySet{
	{"Centro histórico", []domain.ItineraryActivity{
		{Time: "09:00", Name: "Caminhada pelo centro histórico", EstimatedCost: "Gratuito"},
		{Time: "11:00", Name: "Visita a catedral", EstimatedCost: "€10"},
		{Time: "20:00", Name: "Jantar em bistrô", EstimatedCost: "€35"},
	}},
	{"Museus e arte", []domain.ItineraryActivity{
		{Time: "10:00", Name: "Museu de arte", EstimatedCost: "€17"},
		{Time: "15:00", Name: "Galeria contemporânea", EstimatedCost: "€12"},
		{Time: "19:00", Name: "Degustação de vinhos", EstimatedCost: "€25"},
	}},
	{"Vida local", []domain.ItineraryActivity{
		{Time: "09:30", Name: "Mercado municipal", EstimatedCost: "€15"},
		{Time: "14:00", Name: "Passeio de bicicleta", EstimatedCost: "€20"},
		{Time: "18:30", Name: "Pôr do sol no mirante", EstimatedCost: "Gratuito"},
	}},
}

var genericSets = []activitySet{
	{"Conhecendo a cidade", []domain.ItineraryActivity{
		{Time: "09:00", Name: "City tour pelos principais pontos", EstimatedCost: "R$ 120"},
		{Time: "13:00", Name: "Almoço com culinária regional", EstimatedCost: "R$ 80"},
		{Time: "17:00", Name: "Pôr do sol em mirante", EstimatedCost: "Gratuito"},
	}},
	{"Natureza", []domain.ItineraryActivity{
		{Time: "08:30", Name: "Passeio em parque natural", EstimatedCost: "R$ 60"},
		{Time: "14:00", Name: "Trilha guiada", EstimatedCost: "R$ 90"},
		{Time: "20:00", Name: "Jantar típico", EstimatedCost: "R$ 100"},
	}},
	{"Cultura", []domain.ItineraryActivity{
		{Time: "10:00", Name: "Museu local", EstimatedCost: "R$ 30"},
		{Time: "15:00", Name: "Feira de artesanato", EstimatedCost: "Gratuito"},
		{Time: "19:30", Name: "Show de música ao vivo", EstimatedCost: "R$ 70"},
	}},
}

// templateRegions is matched against the destination; first match wins.
var templateRegions = geo.Table[templateRegion]{
	Rules: []geo.Rule[templateRegion]{
		{
			Keywords: []string{"japao", "toquio", "tokyo", "kyoto", "china", "pequim", "xangai", "tailandia", "bangkok", "dubai", "emirados", "india", "coreia", "seul", "singapura", "bali", "indonesia", "vietna", "asia"},
			Value:    templateRegion{"asian", asianSets},
		},
		{
			Keywords: []string{"paris", "franca", "londres", "london", "inglaterra", "reino unido", "roma", "italia", "lisboa", "portugal", "madri", "barcelona", "espanha", "berlim", "alemanha", "amsterda", "amsterdam", "holanda", "zurique", "suica", "atenas", "grecia", "praga", "viena", "europa"},
			Value:    templateRegion{"european", europeanSets},
		},
	},
	Default: templateRegion{"generic", genericSets},
}

// TemplateRegion returns "asian", "european" or "generic".
func TemplateRegion(destination string) string {
	r, _ := templateRegions.Match(destination)
	return r.name
}

// Template builds a canned plan of count days for the destination, rotating
// through the region's activity sets.
func Template(destination string, count int, start time.Time) domain.ItineraryData {
	region, _ := templateRegions.Match(destination)
	place := strings.TrimSpace(destination)

	data := domain.ItineraryData{
		Title:   fmt.Sprintf("Roteiro em %s", place),
		Summary: fmt.Sprintf("Roteiro de %d dias em %s com atividades sugeridas.", count, place),
		Days:    make([]domain.ItineraryDay, 0, count),
	}
	for i := 0; i < count; i++ {
		set := region.sets[i%len(region.sets)]
		acts := make([]domain.ItineraryActivity, len(set.activities))
		for j, a := range set.activities {
			a.Location = place
			acts[j] = a
		}
		data.Days = append(data.Days, domain.ItineraryDay{
			Day:        i + 1,
			Date:       start.AddDate(0, 0, i).Format(DateLayout),
			Theme:      set.theme,
			Activities: acts,
		})
	}
	return data
}
