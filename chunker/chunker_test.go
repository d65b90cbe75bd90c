package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunker(t *testing.T) *Chunker {
	t.Helper()
	c, err := New(NewWordTokenizer())
	require.NoError(t, err)
	return c
}

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ")
}

func texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestNew_RequiresTokenizer(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrTokenizerRequired)
}

func TestProse_ShortSegmentsVerbatim(t *testing.T) {
	c := newTestChunker(t)

	chunks, err := c.Prose("Alpha beta.  Gamma delta epsilon. . ", Params{Separator: ".", TargetTokens: 10, OverlapTokens: 2})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"Alpha beta", "Gamma delta epsilon"}, texts(chunks))
	assert.Equal(t, 2, chunks[0].TokenCount)
	assert.Equal(t, 3, chunks[1].TokenCount)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
}

func TestProse_SlidingWindow(t *testing.T) {
	c := newTestChunker(t)

	chunks, err := c.Prose(words("w", 10), Params{Separator: ".", TargetTokens: 4, OverlapTokens: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"w0 w1 w2 w3",
		"w3 w4 w5 w6",
		"w6 w7 w8 w9",
	}, texts(chunks))
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
		assert.Equal(t, 4, ch.TokenCount)
	}
}

func TestProse_ShortTailWindow(t *testing.T) {
	c := newTestChunker(t)

	chunks, err := c.Prose(words("w", 6), Params{TargetTokens: 4, OverlapTokens: 0})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "w4 w5", chunks[1].Text)
	assert.Equal(t, 2, chunks[1].TokenCount)
}

func TestProse_OverlapClamping(t *testing.T) {
	tests := []struct {
		name      string
		target    int
		overlap   int
		wantCount int
	}{
		{name: "overlap equal to target", target: 4, overlap: 4, wantCount: 3},
		{name: "overlap above target", target: 4, overlap: 40, wantCount: 3},
		{name: "negative overlap", target: 5, overlap: -3, wantCount: 2},
		{name: "target of one", target: 1, overlap: 5, wantCount: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChunker(t)
			chunks, err := c.Prose(words("w", 10), Params{TargetTokens: tt.target, OverlapTokens: tt.overlap})
			require.NoError(t, err)
			assert.Len(t, chunks, tt.wantCount)
			for _, ch := range chunks {
				assert.LessOrEqual(t, ch.TokenCount, tt.target)
			}
		})
	}
}

func TestProse_InvalidTarget(t *testing.T) {
	c := newTestChunker(t)

	for _, target := range []int{0, -1} {
		_, err := c.Prose("some text", Params{TargetTokens: target})
		assert.ErrorIs(t, err, ErrInvalidTarget)
	}
}

func TestProse_TokenBudgetAndOrdinals(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString(words(fmt.Sprintf("s%d_", i), (i*7)%23+1))
		sb.WriteString(". ")
	}
	text := sb.String()

	for _, p := range []Params{
		{TargetTokens: 3, OverlapTokens: 0},
		{TargetTokens: 5, OverlapTokens: 2},
		{TargetTokens: 8, OverlapTokens: 7},
		{TargetTokens: 50, OverlapTokens: 10},
	} {
		t.Run(fmt.Sprintf("target=%d overlap=%d", p.TargetTokens, p.OverlapTokens), func(t *testing.T) {
			c := newTestChunker(t)
			chunks, err := c.Prose(text, p)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for i, ch := range chunks {
				assert.Equal(t, i, ch.Ordinal)
				assert.LessOrEqual(t, ch.TokenCount, p.TargetTokens)
				assert.NotEmpty(t, ch.Text)
			}

			again, err := c.Prose(text, p)
			require.NoError(t, err)
			assert.Equal(t, chunks, again)
		})
	}
}

func TestRecords_GreedyPacking(t *testing.T) {
	c := newTestChunker(t)
	text := "a b c<SEP>d e<SEP>f g h i j k<SEP>l<SEP>"

	// unit costs including the separator token: 4, 3, 7, 2
	chunks, err := c.Records(text, Params{Separator: RecordSeparator, TargetTokens: 8})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, 7, chunks[0].TokenCount)
	assert.Contains(t, chunks[0].Text, "a b c")
	assert.Contains(t, chunks[0].Text, "d e")
	assert.Equal(t, 7, chunks[1].TokenCount)
	assert.Contains(t, chunks[1].Text, "f g h i j k")
	assert.Equal(t, 2, chunks[2].TokenCount)
	assert.Contains(t, chunks[2].Text, "l")
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
	}
}

func TestRecords_OversizedRecordEmittedAlone(t *testing.T) {
	c := newTestChunker(t)
	text := "a<SEP>" + words("big", 12) + "<SEP>z"

	chunks, err := c.Records(text, Params{TargetTokens: 5})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, 13, chunks[1].TokenCount)
	assert.Contains(t, chunks[1].Text, words("big", 12))
}

func TestRecords_NeverSplitsRecords(t *testing.T) {
	var records []string
	for i := 0; i < 30; i++ {
		records = append(records, fmt.Sprintf("%d: name=row%d, %s", i, i, words(fmt.Sprintf("r%d_", i), i%17+1)))
	}
	text := strings.Join(records, "\n"+RecordSeparator+"\n")

	c := newTestChunker(t)
	chunks, err := c.Chunk(text, DetectStrategy(text), Params{TargetTokens: 50, OverlapTokens: 10})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, record := range records {
		holders := 0
		for _, ch := range chunks {
			if strings.Contains(ch.Text, record) {
				holders++
			}
		}
		assert.Equal(t, 1, holders, "record %q must appear whole in exactly one chunk", record)
	}
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
	}
}

type failingTokenizer struct{}

func (failingTokenizer) Encode(string) ([]int, error)  { return nil, errors.New("vocabulary missing") }
func (failingTokenizer) Decode([]int) (string, error) { return "", errors.New("vocabulary missing") }

func TestChunk_TokenizationError(t *testing.T) {
	c, err := New(failingTokenizer{})
	require.NoError(t, err)

	for _, strategy := range []Strategy{StrategyProse, StrategyRecord} {
		_, err := c.Chunk("one. two<SEP>three", strategy, DefaultParams())
		var tokErr *TokenizationError
		require.ErrorAs(t, err, &tokErr)
		assert.Equal(t, "encode", tokErr.Op)
	}
}
