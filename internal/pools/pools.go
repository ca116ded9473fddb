// Package pools builds the shared identifier sets that every synthesizer
// draws from. Reusing one Pools value across all datasets of a run is what
// makes session tokens and product codes join across the generated files.
package pools

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/nvandessel/logcourse/internal/catalog"
)

// DefaultSessionCount is the number of session tokens generated per run.
const DefaultSessionCount = 1000

// Pool is an ordered, immutable, non-empty set of interchangeable values.
type Pool struct {
	values []string
}

// NewPool copies values into a Pool. It panics on an empty list since every
// pool is required to offer at least one candidate.
func NewPool(values ...string) Pool {
	if len(values) == 0 {
		panic("pools: empty pool")
	}
	return Pool{values: slices.Clone(values)}
}

// Pick returns a uniformly chosen member.
func (p Pool) Pick(r *rand.Rand) string {
	return p.values[r.IntN(len(p.values))]
}

// Len returns the number of members.
func (p Pool) Len() int { return len(p.values) }

// Contains reports whether v is a member.
func (p Pool) Contains(v string) bool { return slices.Contains(p.values, v) }

// Values returns a copy of the members in order.
func (p Pool) Values() []string { return slices.Clone(p.values) }

// Concat returns a new pool holding the members of p followed by those of other.
func (p Pool) Concat(other Pool) Pool {
	return Pool{values: slices.Concat(p.values, other.values)}
}

// Pools holds every identifier set for one run.
type Pools struct {
	Sessions   Pool
	Products   Pool
	Categories Pool
	ClientIPs  Pool
	Referrers  Pool
	UserAgents Pool

	FirstNames   Pool
	LastNames    Pool
	EmailDomains Pool
	DBAccounts   Pool

	InvalidUsers    Pool
	ValidUsers      Pool
	SuspiciousIPs   Pool
	LegitimateIPs   Pool
	PrivilegedUsers Pool
}

// New builds the run's pools. Session tokens are drawn from r once here and
// never regenerated; product codes come from the catalog verbatim.
func New(r *rand.Rand, cat *catalog.Catalog) *Pools {
	return &Pools{
		Sessions:   NewPool(SessionTokens(r, DefaultSessionCount)...),
		Products:   NewPool(cat.IDs()...),
		Categories: NewPool(categories...),
		ClientIPs:  NewPool(clientIPs...),
		Referrers:  NewPool(referrers...),
		UserAgents: NewPool(userAgents...),

		FirstNames:   NewPool(firstNames...),
		LastNames:    NewPool(lastNames...),
		EmailDomains: NewPool(emailDomains...),
		DBAccounts:   NewPool(dbAccounts...),

		InvalidUsers:    NewPool(invalidUsers...),
		ValidUsers:      NewPool(validUsers...),
		SuspiciousIPs:   NewPool(suspiciousIPs...),
		LegitimateIPs:   NewPool(legitimateIPs...),
		PrivilegedUsers: NewPool(privilegedUsers...),
	}
}

// SessionTokens generates n tokens shaped like SD5SL42FF7ADFF1234.
func SessionTokens(r *rand.Rand, n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("SD%dSL%dFF%dADFF%d",
			between(r, 1, 9), between(r, 1, 99), between(r, 1, 99), between(r, 1000, 9999))
	}
	return tokens
}

func between(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
