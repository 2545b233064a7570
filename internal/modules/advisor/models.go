package advisor

import "github.com/quantfolio/advisor/internal/domain"

// Recommendation actions
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Defaults applied when the request omits a field
const (
	DefaultHorizonYears   = 5
	DefaultPredictionDays = 30
)

// AssetInput is one portfolio line as submitted by the caller
type AssetInput struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"currentPrice"`
}

// OptimizeRequest asks for a rebalancing plan for the submitted portfolio
type OptimizeRequest struct {
	Assets            []AssetInput `json:"assets"`
	RiskTolerance     string       `json:"riskTolerance"`
	InvestmentHorizon int          `json:"investmentHorizon"`
}

// Recommendation is the per-asset rebalancing advice
type Recommendation struct {
	Symbol            string  `json:"symbol"`
	CurrentAllocation float64 `json:"currentAllocation"`
	TargetAllocation  float64 `json:"targetAllocation"`
	DollarValue       float64 `json:"dollarValue"`
	Action            string  `json:"action"`
}

// RiskReport is the externally visible risk assessment
type RiskReport struct {
	Volatility        float64 `json:"volatility"`
	RiskLevel         string  `json:"riskLevel"`
	Concentration     float64 `json:"concentration"`
	Diversification   float64 `json:"diversification"`
	FitsTolerance     bool    `json:"fitsTolerance"`
	ExpectedRiskLevel string  `json:"expectedRiskLevel"`
}

// PortfolioStats summarizes the optimized portfolio
type PortfolioStats struct {
	ExpectedReturn float64    `json:"expectedReturn"`
	ExpectedRisk   float64    `json:"expectedRisk"`
	SharpeRatio    float64    `json:"sharpeRatio"`
	RiskAssessment RiskReport `json:"riskAssessment"`
}

// OptimizeResponse is the full rebalancing plan
type OptimizeResponse struct {
	AnalysisID      string           `json:"analysisId"`
	Recommendations []Recommendation `json:"recommendations"`
	PortfolioStats  PortfolioStats   `json:"portfolioStats"`
}

// PredictRequest asks for forward price projections
type PredictRequest struct {
	Symbols []string `json:"symbols"`
	Days    int      `json:"days"`
}

// SymbolPrediction is the projection for one symbol
type SymbolPrediction struct {
	LastClose   float64                  `json:"lastClose"`
	Trend       string                   `json:"trend"`
	Projections []domain.PredictionPoint `json:"projections"`
}

// PredictResponse maps each requested symbol to its projection
type PredictResponse struct {
	AnalysisID  string                      `json:"analysisId"`
	Predictions map[string]SymbolPrediction `json:"predictions"`
}

// RiskRequest asks for a risk assessment of the submitted portfolio as-is
type RiskRequest struct {
	Assets        []AssetInput `json:"assets"`
	RiskTolerance string       `json:"riskTolerance"`
}

// RiskResponse wraps the assessment of the current holdings
type RiskResponse struct {
	AnalysisID     string     `json:"analysisId"`
	RiskAssessment RiskReport `json:"riskAssessment"`
}

// holdings converts request assets to domain holdings
func holdings(assets []AssetInput) []domain.Holding {
	out := make([]domain.Holding, len(assets))
	for i, a := range assets {
		out[i] = domain.Holding{Symbol: a.Symbol, Quantity: a.Quantity, CurrentPrice: a.CurrentPrice}
	}
	return out
}

// profile parses the risk tolerance label, defaulting to MODERATE
func profile(label string) domain.RiskProfile {
	switch domain.RiskProfile(label) {
	case domain.RiskConservative, domain.RiskAggressive:
		return domain.RiskProfile(label)
	default:
		return domain.RiskModerate
	}
}
