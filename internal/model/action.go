package model

// Side is the direction of a trade fill.
// Keep these values stable; they are written to trades.csv.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func SideFromShares(sharesDelta float64) Side {
	if sharesDelta > 0 {
		return SideBuy
	}
	return SideSell
}
