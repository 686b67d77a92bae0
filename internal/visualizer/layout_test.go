package visualizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFrequencies(t *testing.T) {
	freqs := DefaultFrequencies()

	require.Len(t, freqs, 79)
	assert.Equal(t, 100.0, freqs[0])
	assert.Equal(t, 7900.0, freqs[78])
	for i := 1; i < len(freqs); i++ {
		assert.Equal(t, 100.0, freqs[i]-freqs[i-1])
	}
}

func TestFrequencies_ExcludesStop(t *testing.T) {
	freqs, err := Frequencies(0.1, 0.5, 0.1)
	require.NoError(t, err)
	assert.Len(t, freqs, 4)

	freqs, err = Frequencies(50, 275, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 100, 150, 200, 250}, freqs)
}

func TestFrequencies_Invalid(t *testing.T) {
	_, err := Frequencies(100, 8000, 0)
	assert.Error(t, err)

	_, err = Frequencies(100, 100, 10)
	assert.Error(t, err)

	_, err = Frequencies(8000, 100, 10)
	assert.Error(t, err)
}

func TestBarX_EvenlySpaced(t *testing.T) {
	assert.Equal(t, 0.0, BarX(0, 79, 800))
	assert.InDelta(t, 800.0/79, BarX(1, 79, 800), 1e-12)
	assert.Less(t, BarX(78, 79, 800), 800.0)
	assert.InDelta(t, 800.0/79, BarWidth(79, 800), 1e-12)
}
