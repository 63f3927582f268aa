package itinerary

import (
	"fmt"
	"strings"
	"time"
)

// SystemPrompt asks the generator for JSON only, in Brazilian Portuguese.
const SystemPrompt = `Você é um planejador de viagens. Responda SOMENTE com um objeto JSON válido, sem markdown e sem texto fora do JSON, em português do Brasil.
Formato:
{"title": string, "summary": string, "days": [{"day": number, "date": "YYYY-MM-DD", "theme": string, "activities": [{"time": "HH:MM", "name": string, "description": string, "location": string, "estimatedCost": string}]}]}
Em "estimatedCost" use a moeda local com símbolo (ex.: "€25", "US$ 30", "R$ 80") ou "Gratuito".`

// PromptInput is what the user prompt is built from.
type PromptInput struct {
	Destination string
	Days        int
	Start       time.Time
	Budget      float64
	Travelers   int
	Style       string
	Preferences string
}

// BuildPrompt renders the user prompt.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Crie um roteiro de exatamente %d dias para %s", in.Days, in.Destination)
	fmt.Fprintf(&b, ", começando em %s.\n", in.Start.Format(DateLayout))
	fmt.Fprintf(&b, "Viajantes: %d. Estilo de viagem: %s.\n", in.Travelers, in.Style)
	if in.Budget > 0 {
		fmt.Fprintf(&b, "Orçamento total: R$ %.2f.\n", in.Budget)
	}
	if p := strings.TrimSpace(in.Preferences); p != "" {
		fmt.Fprintf(&b, "Preferências: %s\n", p)
	}
	b.WriteString("Inclua de 3 a 4 atividades por dia com horário e custo estimado.")
	return b.String()
}
