// Package itinerary turns the text generator's raw output into a usable
// day-by-day plan: progressive parsing, structural validation, day-count
// adjustment and the canned fallback template.
package itinerary

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// Status tags a successful parse.
type Status int

const (
	// StatusValid means the text decoded into a full structure.
	StatusValid Status = iota + 1
	// StatusDegraded means only the title/summary could be recovered.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Parse strategies, tried in this order.
const (
	StrategyDirect   = 1
	StrategyBalanced = 2
	StrategyFlatten  = 3
	StrategyMinimal  = 4
)

// ParseOutcome is the result of Parse. Failures are returned as
// *domain.ErrItineraryParse instead.
type ParseOutcome struct {
	Status   Status
	Data     domain.ItineraryData
	Strategy int
	Reason   string
}

var (
	titleField   = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	summaryField = regexp.MustCompile(`"summary"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Parse recovers an itinerary from raw generator output. The first
// strategy that succeeds wins:
//
//  1. strict decode of the whole text
//  2. strip markdown fences, slice from the first '{' to the last '}',
//     append missing closers, decode
//  3. as 2, with newlines and tabs flattened to spaces
//  4. regex out title/summary and return a degraded, day-less structure
func Parse(raw string) (*ParseOutcome, error) {
	if data, err := decode(raw); err == nil {
		return &ParseOutcome{Status: StatusValid, Data: data, Strategy: StrategyDirect}, nil
	}

	if obj, ok := sliceObject(raw); ok {
		if data, err := decode(balance(obj)); err == nil {
			return &ParseOutcome{Status: StatusValid, Data: data, Strategy: StrategyBalanced}, nil
		}
		if data, err := decode(balance(flatten(obj))); err == nil {
			return &ParseOutcome{Status: StatusValid, Data: data, Strategy: StrategyFlatten}, nil
		}
	}

	title := unquote(titleField.FindStringSubmatch(raw))
	if strings.TrimSpace(title) == "" {
		return nil, &domain.ErrItineraryParse{Reason: "no strategy recovered a title"}
	}
	return &ParseOutcome{
		Status:   StatusDegraded,
		Data:     domain.ItineraryData{Title: title, Summary: unquote(summaryField.FindStringSubmatch(raw))},
		Strategy: StrategyMinimal,
		Reason:   "only title and summary could be recovered",
	}, nil
}

func unquote(m []string) string {
	if len(m) < 2 {
		return ""
	}
	s, err := strconv.Unquote(`"` + m[1] + `"`)
	if err != nil {
		return m[1]
	}
	return s
}

// ============================================================
// Wire shape
// ============================================================

// The generator is loose with types ("day": "1", "estimatedCost": 50), so
// the wire structs accept strings and numbers alike.

type wireItinerary struct {
	Title   looseString `json:"title"`
	Summary looseString `json:"summary"`
	Days    []wireDay   `json:"days"`
}

type wireDay struct {
	Day        looseInt       `json:"day"`
	Date       looseString    `json:"date"`
	Theme      looseString    `json:"theme"`
	Activities []wireActivity `json:"activities"`
}

type wireActivity struct {
	Time          looseString `json:"time"`
	Name          looseString `json:"name"`
	Description   looseString `json:"description"`
	Location      looseString `json:"location"`
	EstimatedCost looseString `json:"estimatedCost"`
}

func decode(text string) (domain.ItineraryData, error) {
	var w wireItinerary
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &w); err != nil {
		return domain.ItineraryData{}, err
	}

	data := domain.ItineraryData{
		Title:   strings.TrimSpace(string(w.Title)),
		Summary: strings.TrimSpace(string(w.Summary)),
	}
	for _, d := range w.Days {
		day := domain.ItineraryDay{
			Day:        int(d.Day),
			Date:       string(d.Date),
			Theme:      string(d.Theme),
			Activities: make([]domain.ItineraryActivity, 0, len(d.Activities)),
		}
		for _, a := range d.Activities {
			day.Activities = append(day.Activities, domain.ItineraryActivity{
				Time:          string(a.Time),
				Name:          strings.TrimSpace(string(a.Name)),
				Description:   string(a.Description),
				Location:      string(a.Location),
				EstimatedCost: string(a.EstimatedCost),
			})
		}
		data.Days = append(data.Days, day)
	}
	return data, nil
}

type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type looseInt int

func (i *looseInt) UnmarshalJSON(b []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return err
	}
	*i = looseInt(f)
	return nil
}
