package supervisor

// rate is the per-million-token USD price for one model, split input/
// output as spec.md §4.3's cost formula requires.
type rate struct {
	InPerMillion  float64
	OutPerMillion float64
}

// rateTable gives the per-model token rates used by computeCost. Unknown
// models fall back to the sonnet rate, the mid tier.
var rateTable = map[string]rate{
	"haiku":  {InPerMillion: 0.80, OutPerMillion: 4.00},
	"sonnet": {InPerMillion: 3.00, OutPerMillion: 15.00},
	"opus":   {InPerMillion: 15.00, OutPerMillion: 75.00},
}

// computeCost implements spec.md §4.3's `cost = (inputTokens * inRate +
// outputTokens * outRate) / 1,000,000`.
func computeCost(model string, inputTokens, outputTokens int64) float64 {
	r, ok := rateTable[model]
	if !ok {
		r = rateTable["sonnet"]
	}
	return (float64(inputTokens)*r.InPerMillion + float64(outputTokens)*r.OutPerMillion) / 1_000_000
}
