package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "Uber ride to the AIRPORT", want: []string{"uber", "ride", "to", "the", "airport"}},
		{input: "a b c", want: nil},
		{input: "café-latte x2", want: []string{"café", "latte", "x2"}},
		{input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestFitVectorizer_SmoothedIDF(t *testing.T) {
	v := FitVectorizer([]string{"coffee shop", "coffee beans", "bus fare"})

	assert.Equal(t, 5, v.Size())
	assert.Equal(t, 0, v.Vocabulary["beans"], "vocabulary is sorted")

	// coffee appears in 2 of 3 documents: ln(4/3) + 1
	assert.InDelta(t, math.Log(4.0/3.0)+1, v.IDF[v.Vocabulary["coffee"]], 1e-12)
	// bus appears in 1 of 3 documents: ln(4/2) + 1
	assert.InDelta(t, math.Log(2)+1, v.IDF[v.Vocabulary["bus"]], 1e-12)
}

func TestVectorizer_TransformIsNormalized(t *testing.T) {
	v := FitVectorizer([]string{"coffee shop", "coffee beans", "bus fare"})

	vec := v.Transform("coffee coffee shop unknown")
	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	assert.InDelta(t, 1.0, norm, 1e-12)
	assert.Len(t, vec, 2)
}

func TestVectorizer_TransformUnknownText(t *testing.T) {
	v := FitVectorizer([]string{"coffee shop"})
	assert.Empty(t, v.Transform("nothing familiar here"))
}
