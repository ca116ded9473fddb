package pools

import (
	"math/rand/v2"
	"regexp"
	"testing"

	"github.com/nvandessel/logcourse/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionPattern = regexp.MustCompile(`^SD[1-9]SL([1-9]|[1-9][0-9])FF([1-9]|[1-9][0-9])ADFF[1-9][0-9]{3}$`)

func TestSessionTokens_Format(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	tokens := SessionTokens(r, 500)
	require.Len(t, tokens, 500)
	for _, tok := range tokens {
		assert.Regexp(t, sessionPattern, tok)
	}
}

func TestNew_SizesAndCatalog(t *testing.T) {
	cat := catalog.Default()
	p := New(rand.New(rand.NewPCG(3, 4)), cat)

	assert.Equal(t, DefaultSessionCount, p.Sessions.Len())
	assert.Equal(t, cat.IDs(), p.Products.Values())
	assert.Equal(t, 12, p.ClientIPs.Len())
	assert.Equal(t, 6, p.Referrers.Len())
	assert.Equal(t, 5, p.UserAgents.Len())
	assert.Equal(t, 7, p.Categories.Len())
	assert.True(t, p.PrivilegedUsers.Contains("root"))
}

func TestNew_SameSeedSamePools(t *testing.T) {
	a := New(rand.New(rand.NewPCG(9, 9)), catalog.Default())
	b := New(rand.New(rand.NewPCG(9, 9)), catalog.Default())
	assert.Equal(t, a.Sessions.Values(), b.Sessions.Values())
}

func TestPool_Immutable(t *testing.T) {
	src := []string{"a", "b"}
	p := NewPool(src...)
	src[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, p.Values())

	vals := p.Values()
	vals[1] = "mutated"
	assert.Equal(t, []string{"a", "b"}, p.Values())
}

func TestPool_PickMembership(t *testing.T) {
	p := NewPool("x", "y", "z")
	r := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 1000; i++ {
		assert.True(t, p.Contains(p.Pick(r)))
	}
}

func TestPool_Concat(t *testing.T) {
	p := NewPool("a").Concat(NewPool("b", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, p.Values())
}

func TestNewPool_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { NewPool() })
}
