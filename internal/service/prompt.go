package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"aira/internal/model"
	"aira/internal/utils"

	"github.com/shopspring/decimal"
)

const balancedInstructions = "Provide a balanced list of properties with a mix of yield and stability."

var goalInstructions = map[string]string{
	"high growth":   "Prioritize properties with the highest 'yield' percentage. Also, favor properties in desirable or up-and-coming locations mentioned in their description. Your summary should highlight the growth potential.",
	"stable income": "Prioritize properties with solid, moderate 'yield' percentages (e.g., 4-6%). Favor properties in major, well-established cities like 'New York', 'Tokyo', or 'Miami'. Your summary should emphasize consistency and lower risk.",
	"quick flip":    "Look for properties that seem undervalued for their location. A lower price is more important than a high yield for this goal. Check the description for keywords like 'potential' or 'opportunity'. Your summary should explain why it might be a good short-term investment.",
}

var goalAliases = map[string]string{
	"growth": "high growth",
	"income": "stable income",
	"flip":   "quick flip",
}

// GoalInstructions maps an investment goal to the strategy text given to the
// model. Unknown goals get balanced instructions.
func GoalInstructions(goal string) string {
	key := strings.ToLower(strings.TrimSpace(goal))
	if canonical, ok := goalAliases[key]; ok {
		key = canonical
	}
	if text, ok := goalInstructions[key]; ok {
		return text
	}
	return balancedInstructions
}

// FilterAffordable keeps properties whose per-share price is within budget.
// Properties without a parseable price or with no shares are skipped.
func FilterAffordable(properties []model.Property, budget decimal.Decimal) []model.Property {
	affordable := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		pps, ok := utils.PricePerShare(p.Price, p.TotalShares)
		if !ok {
			continue
		}
		if pps.LessThanOrEqual(budget) {
			affordable = append(affordable, p)
		}
	}
	return affordable
}

// BuildAdvisorPrompt renders the advisor instruction for the affordable set
func BuildAdvisorPrompt(goal string, budget decimal.Decimal, affordable []model.Property, topPicks int) string {
	if topPicks <= 0 {
		topPicks = 2
	}

	summaries := make([]model.PropertySummary, len(affordable))
	for i := range affordable {
		summaries[i] = affordable[i].Summary()
	}
	listing, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		listing = []byte("[]")
	}

	var b strings.Builder
	b.WriteString("You are an expert real estate investment analyst for AIRA. Your task is to recommend the best properties for a user based on their goals and budget.\n")
	fmt.Fprintf(&b, "The user's goal is: \"%s\".\n", goal)
	fmt.Fprintf(&b, "The user's budget is: %s.\n\n", utils.FormatUSD(budget))
	b.WriteString("Here are the available properties that fit the user's budget:\n")
	b.Write(listing)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Your instructions for this goal are: \"%s\"\n\n", GoalInstructions(goal))
	b.WriteString("Based on your analysis, please provide the following:\n")
	b.WriteString("1. A catchy, one-line 'portfolioTitle' for this recommendation.\n")
	b.WriteString("2. A detailed 'portfolioAnalysis' paragraph (3-4 sentences) explaining the overall strategy and why these properties work well together for the user's goal.\n")
	fmt.Fprintf(&b, "3. An array named 'recommendations' containing objects for the top %d properties. Each object must have an 'id' and a short, one-sentence 'reason' explaining why that specific property was chosen.\n\n", topPicks)
	b.WriteString("IMPORTANT: Return ONLY a single, valid JSON object. All keys and string values must be enclosed in double quotes.\n")
	return b.String()
}
