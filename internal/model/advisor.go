package model

// AdvisorRequest represents an investment advice request
type AdvisorRequest struct {
	Goal   string  `json:"goal" binding:"required"`
	Budget float64 `json:"budget" binding:"required,gt=0"`
}

// Recommendation is a property chosen by the advisor with the model's reason
type Recommendation struct {
	Property
	Reason string `json:"reason"`
}

// AdvisorResult is the response of the advisor pipeline. Never persisted.
type AdvisorResult struct {
	PortfolioTitle    string           `json:"portfolioTitle"`
	PortfolioAnalysis string           `json:"portfolioAnalysis"`
	Recommendations   []Recommendation `json:"recommendations"`
}
