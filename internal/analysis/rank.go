package analysis

import "sort"

// RankByFinalEquity sorts summaries descending by final equity; ties keep
// strategy id order.
func RankByFinalEquity(summaries []TerminalSummary) []TerminalSummary {
	out := make([]TerminalSummary, len(summaries))
	copy(out, summaries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FinalEquity != out[j].FinalEquity {
			return out[i].FinalEquity > out[j].FinalEquity
		}
		return out[i].StrategyID < out[j].StrategyID
	})
	return out
}
