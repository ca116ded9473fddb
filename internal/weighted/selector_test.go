package weighted

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category[string]
		wantErr    error
	}{
		{"empty", nil, ErrNoCategories},
		{"all zero", []Category[string]{Of("a", 0), Of("b", 0)}, ErrZeroWeight},
		{"negative", []Category[string]{Of("a", 1), Of("b", -1)}, ErrNegativeWeight},
		{"valid", []Category[string]{Of("a", 1), Of("b", 3)}, nil},
		{"valid with zero member", []Category[string]{Of("a", 0), Of("b", 2)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.categories...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.categories), s.Len())
		})
	}
}

func TestMustNew_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { MustNew[string]() })
}

func TestPick_Convergence(t *testing.T) {
	s := MustNew(Of("A", 1), Of("B", 3))
	r := rand.New(rand.NewPCG(42, 7))

	const n = 100000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		counts[s.Pick(r)]++
	}

	assert.InDelta(t, 0.25, float64(counts["A"])/n, 0.01)
	assert.InDelta(t, 0.75, float64(counts["B"])/n, 0.01)
}

func TestPick_NeverReturnsZeroWeight(t *testing.T) {
	s := MustNew(Of("never", 0), Of("always", 5), Of("also-never", 0))
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 10000; i++ {
		require.Equal(t, "always", s.Pick(r))
	}
}

func TestPick_SingleCategory(t *testing.T) {
	s := MustNew(Of(404, 0.5))
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		assert.Equal(t, 404, s.Pick(r))
	}
}

func TestUniform(t *testing.T) {
	s, err := Uniform("x", "y", "z", "w")
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.Total())

	_, err = Uniform[string]()
	assert.ErrorIs(t, err, ErrNoCategories)
}

func TestPick_Deterministic(t *testing.T) {
	s := MustNew(Of("a", 1), Of("b", 1), Of("c", 1))
	r1 := rand.New(rand.NewPCG(99, 99))
	r2 := rand.New(rand.NewPCG(99, 99))
	for i := 0; i < 500; i++ {
		assert.Equal(t, s.Pick(r1), s.Pick(r2))
	}
}
