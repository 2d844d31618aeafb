package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes speaker labels",
			input:    "Speaker 1: hello world",
			expected: "hello world",
		},
		{
			name:     "removes bracketed annotations",
			input:    "hello [MUSIC] world [LAUGHTER]",
			expected: "hello world",
		},
		{
			name:     "collapses whitespace",
			input:    "hello    world\n\nagain",
			expected: "hello world again",
		},
		{
			name:     "normalizes curly quotes and dashes",
			input:    "it’s a “test” – or — so",
			expected: `it's a "test" - or -- so`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	t.Run("english text has high confidence", func(t *testing.T) {
		lang, conf := DetectLanguage("the cat and the dog have a ball in that yard and it is fun to be there")
		assert.Equal(t, "en", lang)
		assert.Greater(t, conf, 0.5)
	})

	t.Run("empty text defaults to neutral confidence", func(t *testing.T) {
		lang, conf := DetectLanguage("")
		assert.Equal(t, "en", lang)
		assert.Equal(t, 0.5, conf)
	})

	t.Run("confidence never exceeds one", func(t *testing.T) {
		_, conf := DetectLanguage("the of and a in that have it to be")
		assert.LessOrEqual(t, conf, 1.0)
	})
}

func TestFleschKincaidGrade(t *testing.T) {
	t.Run("empty text yields neutral grade", func(t *testing.T) {
		assert.Equal(t, 10.0, FleschKincaidGrade(""))
	})

	t.Run("grade stays within bounds", func(t *testing.T) {
		simple := "The cat sat. The dog ran. It was fun."
		complex := "Notwithstanding the methodological heterogeneity characterizing contemporary epistemological investigations, interdisciplinary collaboration facilitates comprehensive understanding."

		simpleGrade := FleschKincaidGrade(simple)
		complexGrade := FleschKincaidGrade(complex)

		assert.GreaterOrEqual(t, simpleGrade, 0.0)
		assert.LessOrEqual(t, simpleGrade, 20.0)
		assert.GreaterOrEqual(t, complexGrade, 0.0)
		assert.LessOrEqual(t, complexGrade, 20.0)
		assert.Greater(t, complexGrade, simpleGrade)
	})
}

func TestTechnicalTerms(t *testing.T) {
	t.Run("groups capitalized phrases", func(t *testing.T) {
		terms := TechnicalTerms("We deployed Apache Kafka for streaming data.")
		assert.Contains(t, terms, "Apache Kafka")
	})

	t.Run("includes long lowercase words", func(t *testing.T) {
		terms := TechnicalTerms("the encryption protects messages")
		assert.Contains(t, terms, "encryption")
		assert.Contains(t, terms, "protects")
		assert.NotContains(t, terms, "the")
	})

	t.Run("deduplicates and caps at twenty", func(t *testing.T) {
		text := ""
		for i := 0; i < 30; i++ {
			text += "encryption decryption authentication authorization virtualization containerization orchestration replication serialization compression "
		}
		terms := TechnicalTerms(text)
		assert.LessOrEqual(t, len(terms), 20)

		seen := map[string]int{}
		for _, term := range terms {
			seen[term]++
			assert.Equal(t, 1, seen[term])
		}
	})

	t.Run("empty text yields no terms", func(t *testing.T) {
		assert.Empty(t, TechnicalTerms(""))
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"empty vector", []float32{}, []float32{1, 2}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestFallbackEmbedding(t *testing.T) {
	t.Run("deterministic for same input", func(t *testing.T) {
		a := FallbackEmbedding("quantum computing")
		b := FallbackEmbedding("quantum computing")
		assert.Equal(t, a, b)
	})

	t.Run("empty text yields single zero dimension", func(t *testing.T) {
		assert.Equal(t, []float32{0.0}, FallbackEmbedding(""))
	})

	t.Run("caps at 128 dimensions", func(t *testing.T) {
		long := make([]byte, 500)
		for i := range long {
			long[i] = 'a'
		}
		emb := FallbackEmbedding(string(long))
		assert.Len(t, emb, 128)
	})

	t.Run("values are character codes mod 31", func(t *testing.T) {
		emb := FallbackEmbedding("ab")
		require.Len(t, emb, 2)
		assert.Equal(t, float32(int('a')%31), emb[0])
		assert.Equal(t, float32(int('b')%31), emb[1])
	})
}

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("First sentence. Second one! Third? Fourth")
	require.Len(t, sentences, 4)
	assert.Equal(t, "First sentence", sentences[0])
	assert.Equal(t, "Fourth", sentences[3])
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", FormatTimestamp(0))
	assert.Equal(t, "00:05", FormatTimestamp(5000))
	assert.Equal(t, "01:30", FormatTimestamp(90000))
	assert.Equal(t, "120:00", FormatTimestamp(7200000))
}

func TestReadingMinutes(t *testing.T) {
	assert.Equal(t, 1, ReadingMinutes("short text", 200))

	words := make([]byte, 0)
	for i := 0; i < 600; i++ {
		words = append(words, []byte("word ")...)
	}
	assert.Equal(t, 3, ReadingMinutes(string(words), 200))
}
