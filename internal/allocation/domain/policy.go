package domain

import (
	"sort"
)

// Policy is the removal strategy that orders candidate lots
type Policy int

const (
	// PolicyFirstCreatedFirst consumes the oldest lot first (FIFO)
	PolicyFirstCreatedFirst Policy = iota
	// PolicyEarliestExpiryFirst consumes the lot closest to expiry first (FEFO)
	PolicyEarliestExpiryFirst
)

// StrategyFEFO is the catalog method name selecting PolicyEarliestExpiryFirst
const StrategyFEFO = "fefo"

// PolicyFromStrategy maps a catalog removal method to a policy.
// Anything other than "fefo", including an unset method, means FIFO.
func PolicyFromStrategy(method string) Policy {
	if method == StrategyFEFO {
		return PolicyEarliestExpiryFirst
	}
	return PolicyFirstCreatedFirst
}

func (p Policy) String() string {
	if p == PolicyEarliestExpiryFirst {
		return "fefo"
	}
	return "fifo"
}

// SortLots orders lots in place.
// FEFO puts lots without an expiration date after all dated lots.
// Ties fall back to creation time and then lot ID so the order is deterministic.
func (p Policy) SortLots(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]

		if p == PolicyEarliestExpiryFirst {
			switch {
			case a.ExpirationDate == nil && b.ExpirationDate != nil:
				return false
			case a.ExpirationDate != nil && b.ExpirationDate == nil:
				return true
			case a.ExpirationDate != nil && !a.ExpirationDate.Equal(*b.ExpirationDate):
				return a.ExpirationDate.Before(*b.ExpirationDate)
			}
		}

		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
