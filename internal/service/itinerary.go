package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/itinerary"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/pricing"
)

// ActivityPricer prices one activity. Implemented by ActivityPriceService.
type ActivityPricer interface {
	GetActivityPrice(ctx context.Context, name, location string) (*domain.ActivityPrice, error)
}

// ItineraryOptions tunes the itinerary service.
type ItineraryOptions struct {
	DefaultOrigin string
	// EnrichmentPause is the delay between two activity price lookups.
	EnrichmentPause time.Duration
	// Sleep waits for the pause; defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ItineraryService assembles a priced day-by-day plan.
type ItineraryService struct {
	generator  port.TextGenerator
	costs      *TravelCostService
	activities ActivityPricer
	converter  *CurrencyConverter
	store      port.ItineraryStore
	opts       ItineraryOptions
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewItineraryService creates the service. generator and store may be nil;
// without a generator every plan comes from the fallback template.
func NewItineraryService(
	generator port.TextGenerator,
	costs *TravelCostService,
	activities ActivityPricer,
	converter *CurrencyConverter,
	store port.ItineraryStore,
	opts ItineraryOptions,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ItineraryService {
	if opts.DefaultOrigin == "" {
		opts.DefaultOrigin = "GRU"
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	return &ItineraryService{
		generator:  generator,
		costs:      costs,
		activities: activities,
		converter:  converter,
		store:      store,
		opts:       opts,
		metrics:    metrics,
		logger:     logger,
	}
}

// GenerateItinerary builds the plan, prices it and attaches the budget
// verdict. Only invalid input is returned as an error; every other failure
// degrades to estimates or the fallback template.
func (s *ItineraryService) GenerateItinerary(ctx context.Context, req *domain.ItineraryRequest) (*domain.Itinerary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ItineraryService.GenerateItinerary")
	defer span.End()
	span.SetAttributes(attribute.String("destination", req.Destination))

	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	tripSpan, err := itinerary.SpanOf(req.DepartureDate, req.ReturnDate)
	if err != nil {
		return nil, err
	}

	code, guessed := geo.CityCode(req.Destination)
	if guessed {
		s.logger.Warn("city code not found, using default",
			zap.String("destination", req.Destination),
			zap.String("code", code),
		)
	}

	// --- Step 1: text generation || cost legs ---
	var (
		completion *port.Completion
		genErr     error
		legs       LegQuote
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		completion, genErr = s.generate(gCtx, req, tripSpan)
		return nil
	})
	g.Go(func() error {
		legs = s.costs.Quote(gCtx, TripPlan{
			Destination:   LookupDestination(req.Destination),
			CityCode:      code,
			Origin:        req.Origin,
			DepartureDate: req.DepartureDate,
			ReturnDate:    req.ReturnDate,
			Travelers:     req.TravelersCount,
			Nights:        tripSpan.Nights,
			Style:         req.TravelStyle,
		})
		return nil
	})
	_ = g.Wait()

	// --- Step 2/3: parse + validate, or template ---
	data, prov := s.plan(req, tripSpan, completion, genErr)
	prov.DestinationCode = code
	prov.DestinationCodeGuessed = guessed

	// --- Step 4: exact day count ---
	data = itinerary.AdjustDays(data, tripSpan.Days, tripSpan.Start)

	// --- Step 5: sequential price enrichment ---
	prov.PricedActivities, prov.EstimatedActivities = s.enrich(ctx, &data, req.Destination)

	// --- Step 6: totals ---
	costs := legs.Costs
	costs.ExtrasTotal = extrasTotal(data)

	it := &domain.Itinerary{
		ID:            uuid.NewString(),
		ItineraryData: data,
		TravelCosts:   costs,
		Provenance:    prov,
	}

	// --- Step 7: budget verdict ---
	if req.Budget > 0 {
		it.BudgetAnalysis = AnalyzeBudget(req.Budget, costs.GrandTotal())
	}

	s.metrics.IncrItinerary(prov.ItinerarySource)
	s.persist(ctx, req, it)

	s.logger.Info("itinerary generated",
		zap.String("id", it.ID),
		zap.String("destination", req.Destination),
		zap.String("source", prov.ItinerarySource),
		zap.Int("days", len(data.Days)),
		zap.Float64("grand_total", costs.GrandTotal()),
	)
	return it, nil
}

func (s *ItineraryService) normalize(in *domain.ItineraryRequest) (*domain.ItineraryRequest, error) {
	req := *in
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Destination == "" {
		return nil, &domain.ErrValidation{Field: "destination", Message: "is required"}
	}
	if req.Budget < 0 {
		return nil, &domain.ErrValidation{Field: "budget", Message: "must not be negative"}
	}
	if req.TravelersCount < 1 {
		req.TravelersCount = 1
	}
	req.TravelStyle = domain.ParseTravelStyle(string(req.TravelStyle))
	if req.Origin == "" {
		req.Origin = s.opts.DefaultOrigin
	}
	req.Origin = strings.ToUpper(req.Origin)
	return &req, nil
}

func (s *ItineraryService) generate(ctx context.Context, req *domain.ItineraryRequest, span itinerary.Span) (*port.Completion, error) {
	if s.generator == nil {
		return nil, &domain.ErrSourceUnavailable{Source: "llm", Reason: "not configured"}
	}
	prompt := itinerary.BuildPrompt(itinerary.PromptInput{
		Destination: req.Destination,
		Days:        span.Days,
		Start:       span.Start,
		Budget:      req.Budget,
		Travelers:   req.TravelersCount,
		Style:       string(req.TravelStyle),
		Preferences: req.AdditionalPreferences,
	})
	c, err := s.generator.Generate(ctx, itinerary.SystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokens(c.PromptTokens, c.CompletionTokens)
	return c, nil
}

// plan turns the completion into a validated plan, or falls back to the
// region template. A degraded parse keeps its title and summary.
func (s *ItineraryService) plan(req *domain.ItineraryRequest, span itinerary.Span, c *port.Completion, genErr error) (domain.ItineraryData, domain.ItineraryProvenance) {
	fallback := func(reason string, keep *domain.ItineraryData) (domain.ItineraryData, domain.ItineraryProvenance) {
		s.logger.Warn("using fallback itinerary template",
			zap.String("destination", req.Destination),
			zap.String("region", itinerary.TemplateRegion(req.Destination)),
			zap.String("reason", reason),
		)
		data := itinerary.Template(req.Destination, span.Days, span.Start)
		prov := domain.ItineraryProvenance{
			ItinerarySource: domain.SourceFallbackTempl,
			Degraded:        true,
			DegradedReason:  reason,
		}
		if keep != nil {
			if keep.Title != "" {
				data.Title = keep.Title
			}
			if keep.Summary != "" {
				data.Summary = keep.Summary
			}
			prov.ParseStrategy = itinerary.StrategyMinimal
		}
		return data, prov
	}

	if genErr != nil {
		return fallback(fmt.Sprintf("text generation failed: %v", genErr), nil)
	}

	outcome, err := itinerary.Parse(c.Text)
	if err != nil {
		return fallback(err.Error(), nil)
	}
	if outcome.Status == itinerary.StatusDegraded {
		return fallback(outcome.Reason, &outcome.Data)
	}
	if err := itinerary.Validate(outcome.Data); err != nil {
		return fallback(err.Error(), nil)
	}

	return outcome.Data, domain.ItineraryProvenance{
		ItinerarySource: domain.SourceLLM,
		ParseStrategy:   outcome.Strategy,
	}
}

// enrich prices every activity, one at a time with a pause in between.
// A failed lookup keeps the original cost string, converted to BRL.
func (s *ItineraryService) enrich(ctx context.Context, data *domain.ItineraryData, destination string) (priced, estimated int) {
	first := true
	for d := range data.Days {
		for a := range data.Days[d].Activities {
			act := &data.Days[d].Activities[a]

			if !first && s.opts.EnrichmentPause > 0 && ctx.Err() == nil {
				_ = s.opts.Sleep(ctx, s.opts.EnrichmentPause)
			}
			first = false

			if ctx.Err() == nil && s.activities != nil {
				price, err := s.activities.GetActivityPrice(ctx, act.Name, destination)
				if err == nil {
					applyPrice(act, price)
					s.metrics.IncrProvenance("activity", domain.ProvenanceReal)
					priced++
					continue
				}
				s.logger.Debug("activity price unavailable, keeping estimate",
					zap.String("activity", act.Name),
					zap.Error(err),
				)
			}

			s.applyEstimate(ctx, act, destination)
			s.metrics.IncrProvenance("activity", domain.ProvenanceEstimate)
			estimated++
		}
	}
	return priced, estimated
}

func applyPrice(act *domain.ItineraryActivity, p *domain.ActivityPrice) {
	act.EstimatedCost = pricing.FormatBRL(p.EstimatedPriceBRL)
	act.CostBRL = p.EstimatedPriceBRL
	act.PriceSource = p.Source
	act.Confidence = p.Confidence
	act.OriginalCurrency = p.OriginalCurrency
	act.ExchangeRate = p.ExchangeRate
	act.ExchangeDate = p.ExchangeDate
}

func (s *ItineraryService) applyEstimate(ctx context.Context, act *domain.ItineraryActivity, destination string) {
	act.PriceSource = domain.PriceSourceEstimate
	act.Confidence = domain.ConfidenceLow

	conv := s.converter.ConvertPriceIn(ctx, act.EstimatedCost, domain.CurrencyBRL, geo.DollarCurrency(destination))
	act.CostBRL = conv.Amount
	if conv.Converted {
		act.OriginalCurrency = conv.OriginalCurrency
		act.ExchangeRate = conv.Rate
		act.ExchangeDate = conv.AsOfDate
	}
}

func extrasTotal(data domain.ItineraryData) float64 {
	total := 0.0
	for _, d := range data.Days {
		for _, a := range d.Activities {
			total += a.CostBRL
		}
	}
	return round2(total)
}

// AnalyzeBudget compares the budget with the grand total.
func AnalyzeBudget(budget, grandTotal float64) *domain.BudgetAnalysis {
	diff := round2(budget - grandTotal)
	pct := 0.0
	if budget > 0 {
		pct = round2(diff / budget * 100)
	}

	ba := &domain.BudgetAnalysis{
		Budget:     budget,
		GrandTotal: grandTotal,
		Difference: diff,
		Percentage: pct,
		Sufficient: diff >= 0,
	}
	if ba.Sufficient {
		ba.Message = fmt.Sprintf("Orçamento suficiente! Sobram %s (%.2f%% do orçamento).", pricing.FormatBRL(diff), pct)
	} else {
		ba.Message = fmt.Sprintf("Orçamento insuficiente: faltam %s (%.2f%% acima do orçamento).", pricing.FormatBRL(-diff), -pct)
	}
	return ba
}

func (s *ItineraryService) persist(ctx context.Context, req *domain.ItineraryRequest, it *domain.Itinerary) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveItinerary(ctx, req, it); err != nil {
		s.logger.Warn("failed to persist itinerary",
			zap.String("id", it.ID),
			zap.Error(err),
		)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
