package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/estimate"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
)

var tracer = otel.Tracer("service")

// Suggestion tuning.
const (
	affordableShare   = 0.8
	maxCandidates     = 5
	budgetReserve     = 500.0
	defaultTripDays   = 7
	defaultLeadDays   = 30
	scoreReal         = 1000.0
	scoreHybrid       = 500.0
	scoreEstimated    = 100.0
	overBudgetPenalty = 2000.0
)

// Score ranks a candidate: a provenance bonus, plus one point per R$100 left
// in the budget, minus a penalty when the total eats into the reserve.
func Score(dataType string, budget, total float64) float64 {
	score := (budget - total) / 100
	switch dataType {
	case domain.DataTypeReal:
		score += scoreReal
	case domain.DataTypeHybrid:
		score += scoreHybrid
	default:
		score += scoreEstimated
	}
	if !fits(budget, total) {
		score -= overBudgetPenalty
	}
	return round2(score)
}

func fits(budget, total float64) bool {
	return total <= budget-budgetReserve
}

// DestinationService picks the richest destination that fits a budget.
type DestinationService struct {
	costs     *TravelCostService
	estimator *estimate.Estimator
	catalog   []domain.DestinationDescriptor
	origin    string
	now       func() time.Time
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDestinationService creates the service over the built-in catalog.
func NewDestinationService(
	costs *TravelCostService,
	estimator *estimate.Estimator,
	defaultOrigin string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DestinationService {
	if defaultOrigin == "" {
		defaultOrigin = "GRU"
	}
	return &DestinationService{
		costs:     costs,
		estimator: estimator,
		catalog:   Catalog(),
		origin:    defaultOrigin,
		now:       time.Now,
		metrics:   metrics,
		logger:    logger,
	}
}

// WithClock replaces the clock used for the default departure date.
func (s *DestinationService) WithClock(now func() time.Time) *DestinationService {
	s.now = now
	return s
}

// SuggestDestination evaluates the most expensive affordable destinations
// with live quotes and returns the best scored one, or a fully estimated
// suggestion when no live candidate fits.
func (s *DestinationService) SuggestDestination(ctx context.Context, req *domain.SuggestionRequest) (*domain.DestinationSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "DestinationService.SuggestDestination")
	defer span.End()
	span.SetAttributes(attribute.Float64("budget", req.Budget))

	if req.Budget <= 0 {
		return nil, &domain.ErrValidation{Field: "budget", Message: "must be greater than zero"}
	}
	req = s.withDefaults(req)

	// --- Step 1: affordability filter + cap ---
	candidates := s.affordable(req.Budget)
	if len(candidates) == 0 {
		return nil, &domain.ErrBudgetInsufficient{Budget: req.Budget, Reserve: budgetReserve}
	}

	// --- Step 2: live quotes, one candidate at a time ---
	scored := make([]domain.DestinationCandidate, 0, len(candidates))
	for _, d := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, ok := s.evaluate(ctx, d, req)
		if !ok {
			continue
		}
		scored = append(scored, c)
	}

	// --- Step 3: rank ---
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > 0 && fits(req.Budget, scored[0].Costs.GrandTotal()) {
		s.logger.Info("destination selected",
			zap.String("destination", scored[0].Destination.Name),
			zap.String("data_type", scored[0].DataType),
			zap.Float64("score", scored[0].Score),
		)
		s.metrics.IncrProvenance("destination", scored[0].DataType)
		return s.suggestion(scored[0], req.Budget, len(candidates)), nil
	}

	// --- Step 4: fully estimated fallback ---
	for _, d := range candidates {
		costs := s.estimator.Estimate(d, s.trip(req))
		if !fits(req.Budget, costs.GrandTotal()) {
			continue
		}
		c := domain.DestinationCandidate{
			Destination: d,
			Costs:       costs,
			DataType:    domain.DataTypeEstimated,
			Score:       Score(domain.DataTypeEstimated, req.Budget, costs.GrandTotal()),
		}
		s.logger.Warn("no live candidate fits, using estimated suggestion",
			zap.String("destination", d.Name),
			zap.Int("scored", len(scored)),
		)
		s.metrics.IncrProvenance("destination", domain.DataTypeEstimated)
		return s.suggestion(c, req.Budget, len(candidates)), nil
	}

	return nil, &domain.ErrBudgetInsufficient{Budget: req.Budget, Reserve: budgetReserve}
}

// affordable keeps destinations whose MinBudget is at most 80% of the budget,
// most expensive first, capped.
func (s *DestinationService) affordable(budget float64) []domain.DestinationDescriptor {
	limit := budget * affordableShare
	out := make([]domain.DestinationDescriptor, 0, len(s.catalog))
	for _, d := range s.catalog {
		if d.MinBudget <= limit {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinBudget > out[j].MinBudget })
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

// evaluate quotes one candidate. A failed flight leg drops the candidate:
// flight cost dominates the decision and the estimated path covers it.
func (s *DestinationService) evaluate(ctx context.Context, d domain.DestinationDescriptor, req *domain.SuggestionRequest) (domain.DestinationCandidate, bool) {
	code, guessed := geo.CityCode(d.Name)
	if guessed {
		s.logger.Warn("city code not found, using default",
			zap.String("destination", d.Name),
			zap.String("code", code),
		)
	}

	q := s.costs.Quote(ctx, TripPlan{
		Destination:   d,
		CityCode:      code,
		Origin:        req.Origin,
		DepartureDate: req.DepartureDate,
		ReturnDate:    addDays(req.DepartureDate, req.Days),
		Travelers:     req.Travelers,
		Nights:        req.Days,
		Style:         req.Style,
	})
	if !q.FlightReal() {
		s.logger.Debug("candidate skipped, no flight quote",
			zap.String("destination", d.Name),
			zap.Error(q.FlightErr),
		)
		return domain.DestinationCandidate{}, false
	}

	dataType := domain.DataTypeReal
	if !q.HotelReal() {
		dataType = domain.DataTypeHybrid
	}
	return domain.DestinationCandidate{
		Destination: d,
		Costs:       q.Costs,
		DataType:    dataType,
		Score:       Score(dataType, req.Budget, q.Costs.GrandTotal()),
	}, true
}

func (s *DestinationService) withDefaults(in *domain.SuggestionRequest) *domain.SuggestionRequest {
	req := *in
	if req.Travelers < 1 {
		req.Travelers = 1
	}
	if req.Days < 1 {
		req.Days = defaultTripDays
	}
	req.Style = domain.ParseTravelStyle(string(req.Style))
	if req.Origin == "" {
		req.Origin = s.origin
	}
	if req.DepartureDate == "" {
		req.DepartureDate = s.now().AddDate(0, 0, defaultLeadDays).Format(dateLayout)
	}
	return &req
}

func (s *DestinationService) trip(req *domain.SuggestionRequest) estimate.Trip {
	return estimate.Trip{Travelers: req.Travelers, Nights: req.Days, Style: req.Style}
}

func (s *DestinationService) suggestion(c domain.DestinationCandidate, budget float64, evaluated int) *domain.DestinationSuggestion {
	return &domain.DestinationSuggestion{
		Success:                  true,
		Destination:              c.Destination,
		TravelCosts:              c.Costs,
		DataType:                 c.DataType,
		Score:                    c.Score,
		RemainingBudget:          round2(budget - c.Costs.GrandTotal()),
		HasRealFlightData:        c.Costs.Flight.Source == domain.ProvenanceReal,
		HasRealAccommodationData: c.Costs.Accommodation.Source == domain.ProvenanceReal,
		IsEstimate:               c.DataType != domain.DataTypeReal,
		IsRealData:               c.DataType == domain.DataTypeReal,
		CandidatesEvaluated:      evaluated,
		GeneratedAt:              s.now().UTC(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
