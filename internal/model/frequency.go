package model

import "strings"

// RebalanceFrequency controls how often a strategy trades back to its targets.
type RebalanceFrequency string

const (
	RebalanceDaily   RebalanceFrequency = "daily"
	RebalanceMonthly RebalanceFrequency = "monthly"
	RebalanceYearly  RebalanceFrequency = "yearly"
	RebalanceNever   RebalanceFrequency = "never"
)

// ContributionFrequency controls how often fresh cash is added to every strategy.
type ContributionFrequency string

const (
	ContributionNone    ContributionFrequency = "none"
	ContributionDaily   ContributionFrequency = "daily"
	ContributionMonthly ContributionFrequency = "monthly"
	ContributionYearly  ContributionFrequency = "yearly"
)

// ParseRebalanceFrequency accepts daily|monthly|yearly|never; empty means daily.
func ParseRebalanceFrequency(s string) (RebalanceFrequency, error) {
	switch f := RebalanceFrequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return RebalanceDaily, nil
	case RebalanceDaily, RebalanceMonthly, RebalanceYearly, RebalanceNever:
		return f, nil
	default:
		return "", ConfigErrorf("invalid rebalance frequency %q", s)
	}
}

// ParseContributionFrequency accepts none|daily|monthly|yearly; empty means none.
func ParseContributionFrequency(s string) (ContributionFrequency, error) {
	switch f := ContributionFrequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ContributionNone, nil
	case ContributionNone, ContributionDaily, ContributionMonthly, ContributionYearly:
		return f, nil
	default:
		return "", ConfigErrorf("invalid contribution frequency %q", s)
	}
}
