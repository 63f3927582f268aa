package geo_test

import (
	"testing"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "sao paulo", geo.Normalize("  São   Paulo "))
	assert.Equal(t, "florianopolis", geo.Normalize("FLORIANÓPOLIS"))
	assert.Equal(t, "", geo.Normalize("   "))
}

func TestCityCode(t *testing.T) {
	cases := []struct {
		in      string
		code    string
		guessed bool
	}{
		{"Rio de Janeiro", "RIO", false},
		{"Fernando de Noronha", "FEN", false},
		{"Foz do Iguaçu", "IGU", false},
		{"Tóquio, Japão", "TYO", false},
		{"Atlantis", geo.DefaultCityCode, true},
	}
	for _, tc := range cases {
		code, guessed := geo.CityCode(tc.in)
		assert.Equal(t, tc.code, code, tc.in)
		assert.Equal(t, tc.guessed, guessed, tc.in)
	}
}

func TestTable_FirstMatchWins(t *testing.T) {
	table := geo.Table[int]{
		Rules: []geo.Rule[int]{
			{Keywords: []string{"brasil"}, Value: 1},
			{Keywords: []string{"rio"}, Value: 2},
		},
		Default: -1,
	}

	v, ok := table.Match("Rio de Janeiro, Brasil")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = table.Match("Oslo")
	assert.False(t, ok)
	assert.Equal(t, -1, v)
}

func TestCityCode_SpecificNamesBeforeShorterOnes(t *testing.T) {
	cases := map[string]string{
		"Porto Seguro, Bahia": "BPS",
		"Porto, Portugal":     "OPO",
		"Porto Alegre":        "POA",
	}
	for in, want := range cases {
		code, guessed := geo.CityCode(in)
		assert.Equal(t, want, code, in)
		assert.False(t, guessed, in)
	}
}

func TestTable_MatchesWholeWordsOnly(t *testing.T) {
	table := geo.Table[string]{
		Rules:   []geo.Rule[string]{{Keywords: []string{"lima"}, Value: "LIM"}},
		Default: "?",
	}

	v, ok := table.Match("Lima, Peru")
	assert.True(t, ok)
	assert.Equal(t, "LIM", v)

	_, ok = table.Match("Limassol")
	assert.False(t, ok)
}

func TestDollarCurrency(t *testing.T) {
	cases := map[string]string{
		"Buenos Aires, Argentina": "ARS",
		"Santiago":                "CLP",
		"Cartagena":               "COP",
		"Montevidéu":              "UYU",
		"Cancún, México":          "MXN",
		"Orlando":                 "USD",
		"Lisboa":                  "USD",
	}
	for in, want := range cases {
		assert.Equal(t, want, geo.DollarCurrency(in), in)
	}
}
