// Package advisor orchestrates the analytics modules into the three
// operations exposed over HTTP: optimize, predict, and assess risk.
package advisor

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantfolio/advisor/internal/config"
	"github.com/quantfolio/advisor/internal/domain"
	"github.com/quantfolio/advisor/internal/events"
	"github.com/quantfolio/advisor/internal/modules/optimizer"
	"github.com/quantfolio/advisor/internal/modules/risk"
)

// SeriesFetcher loads historical series for a set of symbols
type SeriesFetcher interface {
	Fetch(symbols []string, lookbackDays int) (map[string]domain.AssetSeries, error)
}

// ReturnEstimator builds the annualized return model from series
type ReturnEstimator interface {
	Estimate(series map[string]domain.AssetSeries, symbols []string, lookbackDays int) (domain.ReturnModel, error)
}

// WeightOptimizer solves for optimal allocations
type WeightOptimizer interface {
	Optimize(req optimizer.Request) (optimizer.Result, error)
}

// RiskAssessor evaluates a weight vector against a risk profile
type RiskAssessor interface {
	Assess(weights []float64, model domain.ReturnModel, profile domain.RiskProfile) (risk.Assessment, error)
}

// TrendPredictor projects one series forward
type TrendPredictor interface {
	Predict(series domain.AssetSeries, days int) (domain.PredictionSeries, error)
}

// Service wires the analytics modules together
type Service struct {
	fetcher   SeriesFetcher
	estimator ReturnEstimator
	optimizer WeightOptimizer
	risk      RiskAssessor
	predictor TrendPredictor
	bus       *events.Bus
	cfg       config.Analytics
	log       zerolog.Logger
}

// NewService creates the advisor service
func NewService(
	fetcher SeriesFetcher,
	est ReturnEstimator,
	opt WeightOptimizer,
	riskAssessor RiskAssessor,
	pred TrendPredictor,
	bus *events.Bus,
	cfg config.Analytics,
	log zerolog.Logger,
) *Service {
	return &Service{
		fetcher:   fetcher,
		estimator: est,
		optimizer: opt,
		risk:      riskAssessor,
		predictor: pred,
		bus:       bus,
		cfg:       cfg,
		log:       log.With().Str("component", "advisor").Logger(),
	}
}

// Optimize produces a rebalancing plan: optimal weights, per-asset actions,
// and a risk assessment of the optimized portfolio.
func (s *Service) Optimize(req OptimizeRequest) (*OptimizeResponse, error) {
	if len(req.Assets) == 0 {
		return nil, &domain.InvalidPortfolioError{Reason: "no assets submitted"}
	}

	horizon := req.InvestmentHorizon
	if horizon < 1 {
		horizon = DefaultHorizonYears
	}
	riskProfile := profile(req.RiskTolerance)

	current, totalValue, err := domain.Weights(holdings(req.Assets))
	if err != nil {
		return nil, err
	}

	symbols := make([]string, len(req.Assets))
	for i, a := range req.Assets {
		symbols[i] = a.Symbol
	}

	model, err := s.buildModel(symbols, s.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	result, err := s.optimizer.Optimize(optimizer.Request{
		Model:        model,
		Profile:      riskProfile,
		HorizonYears: horizon,
	})
	if err != nil {
		return nil, err
	}

	assessment, err := s.risk.Assess(result.Weights, model, riskProfile)
	if err != nil {
		return nil, err
	}

	recommendations := make([]Recommendation, len(symbols))
	for i, symbol := range symbols {
		target := result.Weights[i]
		recommendations[i] = Recommendation{
			Symbol:            symbol,
			CurrentAllocation: current[i],
			TargetAllocation:  target,
			DollarValue:       target * totalValue,
			Action:            s.action(current[i], target),
		}
	}

	analysisID := uuid.New().String()
	s.log.Info().
		Str("analysis_id", analysisID).
		Int("assets", len(symbols)).
		Str("profile", string(riskProfile)).
		Int("horizon_years", horizon).
		Msg("Portfolio optimization completed")
	s.publishCompleted(analysisID, "optimize", len(symbols))

	return &OptimizeResponse{
		AnalysisID:      analysisID,
		Recommendations: recommendations,
		PortfolioStats: PortfolioStats{
			ExpectedReturn: result.ExpectedReturn,
			ExpectedRisk:   result.Volatility,
			SharpeRatio:    result.SharpeRatio,
			RiskAssessment: report(assessment),
		},
	}, nil
}

// Predict projects each requested symbol forward. History is fetched over at
// least the configured lookback, widened to twice the prediction window for
// long horizons.
func (s *Service) Predict(req PredictRequest) (*PredictResponse, error) {
	if len(req.Symbols) == 0 {
		return nil, &domain.InvalidPortfolioError{Reason: "no symbols submitted"}
	}

	days := req.Days
	if days < 1 {
		days = DefaultPredictionDays
	}

	lookback := s.cfg.LookbackDays
	if 2*days > lookback {
		lookback = 2 * days
	}

	series, err := s.fetcher.Fetch(req.Symbols, lookback)
	if err != nil {
		return nil, err
	}

	predictions := make(map[string]SymbolPrediction, len(req.Symbols))
	for _, symbol := range req.Symbols {
		p, err := s.predictor.Predict(series[symbol], days)
		if err != nil {
			return nil, err
		}
		predictions[symbol] = SymbolPrediction{
			LastClose:   p.LastClose,
			Trend:       p.Trend,
			Projections: p.Points,
		}
	}

	analysisID := uuid.New().String()
	s.log.Info().
		Str("analysis_id", analysisID).
		Int("symbols", len(req.Symbols)).
		Int("days", days).
		Msg("Market prediction completed")
	s.publishCompleted(analysisID, "predict", len(req.Symbols))

	return &PredictResponse{AnalysisID: analysisID, Predictions: predictions}, nil
}

// AssessRisk evaluates the submitted portfolio at its current weights
func (s *Service) AssessRisk(req RiskRequest) (*RiskResponse, error) {
	if len(req.Assets) == 0 {
		return nil, &domain.InvalidPortfolioError{Reason: "no assets submitted"}
	}
	riskProfile := profile(req.RiskTolerance)

	current, _, err := domain.Weights(holdings(req.Assets))
	if err != nil {
		return nil, err
	}

	symbols := make([]string, len(req.Assets))
	for i, a := range req.Assets {
		symbols[i] = a.Symbol
	}

	model, err := s.buildModel(symbols, s.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	assessment, err := s.risk.Assess(current, model, riskProfile)
	if err != nil {
		return nil, err
	}

	analysisID := uuid.New().String()
	s.log.Info().
		Str("analysis_id", analysisID).
		Int("assets", len(symbols)).
		Str("band", string(assessment.Band)).
		Msg("Risk assessment completed")
	s.publishCompleted(analysisID, "assess-risk", len(symbols))

	return &RiskResponse{AnalysisID: analysisID, RiskAssessment: report(assessment)}, nil
}

func (s *Service) buildModel(symbols []string, lookbackDays int) (domain.ReturnModel, error) {
	series, err := s.fetcher.Fetch(symbols, lookbackDays)
	if err != nil {
		return domain.ReturnModel{}, err
	}
	return s.estimator.Estimate(series, symbols, lookbackDays)
}

// action compares target and current allocation against the rebalancing
// threshold: drift inside the band is left alone.
func (s *Service) action(current, target float64) string {
	switch {
	case target > current+s.cfg.ActionThreshold:
		return ActionBuy
	case target < current-s.cfg.ActionThreshold:
		return ActionSell
	default:
		return ActionHold
	}
}

func (s *Service) publishCompleted(analysisID, kind string, symbols int) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.AnalysisCompleted, &events.AnalysisCompletedData{
		AnalysisID: analysisID,
		Kind:       kind,
		Symbols:    symbols,
	})
}

func report(a risk.Assessment) RiskReport {
	return RiskReport{
		Volatility:        a.Volatility,
		RiskLevel:         string(a.Band),
		Concentration:     a.Herfindahl,
		Diversification:   a.Diversification,
		FitsTolerance:     a.FitsProfile,
		ExpectedRiskLevel: string(a.ExpectedBand),
	}
}
