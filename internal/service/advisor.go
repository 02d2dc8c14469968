package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"aira/internal/model"
	"aira/internal/repository"
	"aira/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrMalformedResponse is returned when model output does not have the
// advisor result shape
var ErrMalformedResponse = errors.New("malformed advisor response")

// Fixed advisor results
const (
	NoPropertiesTitle     = "No Properties Found"
	AnalysisErrorTitle    = "Analysis Error"
	AnalysisErrorAnalysis = "Sorry, I had trouble analyzing the properties. Please try again."
)

// AIRecommendation is one pick in the model's answer
type AIRecommendation struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// AIAdvisorResponse is the validated shape of the model's answer
type AIAdvisorResponse struct {
	PortfolioTitle    string             `json:"portfolioTitle"`
	PortfolioAnalysis string             `json:"portfolioAnalysis"`
	Recommendations   []AIRecommendation `json:"recommendations"`
}

// ParseAdvisorResponse extracts the advisor result from raw model output.
// The output may be fenced and JSON5-ish. Every recommendation needs an id
// (string or number) and a reason key; a null reason reads as "".
func ParseAdvisorResponse(raw string) (*AIAdvisorResponse, error) {
	var obj map[string]interface{}
	if err := utils.ParseAIJSON(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	title, ok := obj["portfolioTitle"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: portfolioTitle missing or not a string", ErrMalformedResponse)
	}
	analysis, ok := obj["portfolioAnalysis"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: portfolioAnalysis missing or not a string", ErrMalformedResponse)
	}
	list, ok := obj["recommendations"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: recommendations missing or not a list", ErrMalformedResponse)
	}

	recs := make([]AIRecommendation, 0, len(list))
	for i, item := range list {
		rec, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: recommendation %d is not an object", ErrMalformedResponse, i)
		}
		id, ok := recommendationID(rec["id"])
		if !ok {
			return nil, fmt.Errorf("%w: recommendation %d has no usable id", ErrMalformedResponse, i)
		}
		reason, ok := recommendationReason(rec)
		if !ok {
			return nil, fmt.Errorf("%w: recommendation %d has no reason", ErrMalformedResponse, i)
		}
		recs = append(recs, AIRecommendation{ID: id, Reason: reason})
	}

	return &AIAdvisorResponse{
		PortfolioTitle:    title,
		PortfolioAnalysis: analysis,
		Recommendations:   recs,
	}, nil
}

func recommendationReason(rec map[string]interface{}) (string, bool) {
	v, present := rec["reason"]
	if !present {
		return "", false
	}
	switch reason := v.(type) {
	case nil:
		return "", true
	case string:
		return reason, true
	default:
		return "", false
	}
}

func recommendationID(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return "", false
	}
}

// JoinRecommendations resolves the model's picks against the full property
// list, in the model's order. Unknown ids are dropped.
func JoinRecommendations(recs []AIRecommendation, properties []model.Property) []model.Recommendation {
	byID := make(map[string]model.Property, len(properties))
	for _, p := range properties {
		byID[p.ID] = p
	}

	joined := make([]model.Recommendation, 0, len(recs))
	for _, rec := range recs {
		p, ok := byID[rec.ID]
		if !ok {
			continue
		}
		joined = append(joined, model.Recommendation{Property: p, Reason: rec.Reason})
	}
	return joined
}

// NoPropertiesResult is returned when nothing fits the budget
func NoPropertiesResult(budget decimal.Decimal) *model.AdvisorResult {
	return &model.AdvisorResult{
		PortfolioTitle: NoPropertiesTitle,
		PortfolioAnalysis: fmt.Sprintf(
			"Unfortunately, I couldn't find any properties that match your budget of %s. Try increasing your budget to see more options.",
			utils.FormatUSD(budget)),
		Recommendations: []model.Recommendation{},
	}
}

// AnalysisErrorResult is returned for any model or parse failure
func AnalysisErrorResult() *model.AdvisorResult {
	return &model.AdvisorResult{
		PortfolioTitle:    AnalysisErrorTitle,
		PortfolioAnalysis: AnalysisErrorAnalysis,
		Recommendations:   []model.Recommendation{},
	}
}

// AdvisorService recommends properties for an investment goal and budget
type AdvisorService struct {
	store    repository.PropertyStore
	llm      LLMClient
	topPicks int
	logger   *zap.Logger
}

// NewAdvisorService creates a new advisor service
func NewAdvisorService(store repository.PropertyStore, llm LLMClient, topPicks int, logger *zap.Logger) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorService{
		store:    store,
		llm:      llm,
		topPicks: topPicks,
		logger:   logger,
	}
}

// Advise runs the advisor pipeline. Only a store failure is returned as an
// error; model failures collapse to AnalysisErrorResult.
func (s *AdvisorService) Advise(ctx context.Context, req model.AdvisorRequest) (*model.AdvisorResult, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	budget := decimal.NewFromFloat(req.Budget)
	affordable := FilterAffordable(all, budget)
	if len(affordable) == 0 {
		s.logger.Info("no affordable properties",
			zap.String("goal", req.Goal),
			zap.String("budget", budget.String()),
			zap.Int("total", len(all)))
		return NoPropertiesResult(budget), nil
	}

	prompt := BuildAdvisorPrompt(req.Goal, budget, affordable, s.topPicks)
	raw, err := s.llm.Complete(ctx, []ChatMessage{{Role: RoleUser, Content: prompt}})
	if err != nil {
		s.logger.Error("advisor model call failed", zap.Error(err))
		return AnalysisErrorResult(), nil
	}

	parsed, err := ParseAdvisorResponse(raw)
	if err != nil {
		s.logger.Warn("advisor response rejected", zap.Error(err), zap.String("raw", truncate(raw, 300)))
		return AnalysisErrorResult(), nil
	}

	recommendations := JoinRecommendations(parsed.Recommendations, all)
	s.logger.Info("advice generated",
		zap.String("goal", req.Goal),
		zap.Int("affordable", len(affordable)),
		zap.Int("picked", len(parsed.Recommendations)),
		zap.Int("joined", len(recommendations)))

	return &model.AdvisorResult{
		PortfolioTitle:    parsed.PortfolioTitle,
		PortfolioAnalysis: parsed.PortfolioAnalysis,
		Recommendations:   recommendations,
	}, nil
}
