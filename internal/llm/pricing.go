package llm

import "strings"

// ModelCost is list pricing in USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of one request.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1e6
}

// LookupCost returns pricing for modelID, or nil when unknown. Dated
// snapshots ("claude-sonnet-4-5-20250929") and OpenRouter IDs
// ("anthropic/claude-sonnet-4.5") resolve to their family's price.
func LookupCost(modelID string) *ModelCost {
	id := strings.ToLower(modelID)
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		id = id[i+1:]
	}
	id = strings.ReplaceAll(id, ".", "-")

	var best *ModelCost
	bestLen := 0
	for i := range priceTable {
		fam := priceTable[i].family
		if len(fam) > bestLen && hasFamily(id, fam) {
			best, bestLen = &priceTable[i].cost, len(fam)
		}
	}
	if best == nil {
		return nil
	}
	c := *best
	return &c
}

// hasFamily matches whole dash-separated segments so "gpt-4-1" does not
// price as "gpt-4".
func hasFamily(id, fam string) bool {
	return id == fam || strings.HasPrefix(id, fam+"-")
}

// priceTable covers the models a lesson is likely to be written with.
// Versions use dashes; LookupCost normalizes dots.
var priceTable = []struct {
	family string
	cost   ModelCost
}{
	{"claude-opus-4", ModelCost{15, 75}},
	{"claude-opus-4-5", ModelCost{5, 25}},
	{"claude-sonnet-4", ModelCost{3, 15}},
	{"claude-3-7-sonnet", ModelCost{3, 15}},
	{"claude-haiku-4-5", ModelCost{1, 5}},
	{"claude-3-5-haiku", ModelCost{0.8, 4}},

	{"gpt-4o", ModelCost{2.5, 10}},
	{"gpt-4o-mini", ModelCost{0.15, 0.6}},
	{"gpt-4-1", ModelCost{2, 8}},
	{"gpt-4-1-mini", ModelCost{0.4, 1.6}},
	{"gpt-4-1-nano", ModelCost{0.1, 0.4}},
	{"gpt-5", ModelCost{1.25, 10}},
	{"gpt-5-mini", ModelCost{0.25, 2}},
	{"gpt-5-nano", ModelCost{0.05, 0.4}},
	{"o4-mini", ModelCost{1.1, 4.4}},

	{"gemini-2-0-flash", ModelCost{0.1, 0.4}},
	{"gemini-2-5-flash", ModelCost{0.3, 2.5}},
	{"gemini-2-5-flash-lite", ModelCost{0.1, 0.4}},
	{"gemini-2-5-pro", ModelCost{1.25, 10}},
}
