package chunker

import (
	"strings"
)

const (
	// DefaultTargetTokens is the default token budget per chunk.
	DefaultTargetTokens = 1000
	// DefaultOverlapTokens is the default shared context between windows.
	DefaultOverlapTokens = 200
)

// Chunk is one emitted piece of a document.
type Chunk struct {
	Ordinal    int
	Text       string
	TokenCount int
}

// Params controls a chunking call.
//
// TargetTokens must be positive. A negative OverlapTokens is treated as 0.
// An OverlapTokens greater than or equal to TargetTokens is clamped to
// TargetTokens/4 so the window always advances.
type Params struct {
	Separator     string
	TargetTokens  int
	OverlapTokens int
}

// DefaultParams returns prose parameters with the default budget.
func DefaultParams() Params {
	return Params{
		Separator:     DefaultSeparator,
		TargetTokens:  DefaultTargetTokens,
		OverlapTokens: DefaultOverlapTokens,
	}
}

// For returns a copy of p with the separator matching the strategy.
func (p Params) For(s Strategy) Params {
	if s == StrategyRecord {
		p.Separator = RecordSeparator
	} else if p.Separator == "" || p.Separator == RecordSeparator {
		p.Separator = DefaultSeparator
	}
	return p
}

func (p Params) normalize() (Params, error) {
	if p.TargetTokens <= 0 {
		return p, ErrInvalidTarget
	}
	if p.OverlapTokens < 0 {
		p.OverlapTokens = 0
	}
	if p.OverlapTokens >= p.TargetTokens {
		p.OverlapTokens = p.TargetTokens / 4
	}
	return p, nil
}

// step is the window advance; always >= 1 after normalize.
func (p Params) step() int {
	return p.TargetTokens - p.OverlapTokens
}

// Chunker cuts text into token-bounded chunks using a shared Tokenizer.
// It holds no mutable state and is safe for concurrent use.
type Chunker struct {
	tokenizer Tokenizer
}

// New creates a Chunker over the given tokenizer.
func New(tokenizer Tokenizer) (*Chunker, error) {
	if tokenizer == nil {
		return nil, ErrTokenizerRequired
	}
	return &Chunker{tokenizer: tokenizer}, nil
}

// Chunk dispatches to the strategy's implementation.
func (c *Chunker) Chunk(text string, strategy Strategy, p Params) ([]Chunk, error) {
	p = p.For(strategy)
	if strategy == StrategyRecord {
		return c.Records(text, p)
	}
	return c.Prose(text, p)
}

// Prose splits text on p.Separator. Segments within the budget are emitted
// verbatim; longer segments are windowed over their tokens.
func (c *Chunker) Prose(text string, p Params) ([]Chunk, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}
	if p.Separator == "" {
		p.Separator = DefaultSeparator
	}

	var out []Chunk
	for _, part := range strings.Split(text, p.Separator) {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}

		tokens, err := c.tokenizer.Encode(segment)
		if err != nil {
			return nil, &TokenizationError{Op: "encode", Err: err}
		}

		if len(tokens) <= p.TargetTokens {
			out = append(out, Chunk{Ordinal: len(out), Text: segment, TokenCount: len(tokens)})
			continue
		}

		for start := 0; ; start += p.step() {
			end := min(start+p.TargetTokens, len(tokens))
			window, count, err := c.fit(tokens[start:end], p.TargetTokens)
			if err != nil {
				return nil, err
			}
			if window != "" {
				out = append(out, Chunk{Ordinal: len(out), Text: window, TokenCount: count})
			}
			if end == len(tokens) {
				break
			}
		}
	}
	return out, nil
}

// fit decodes a window and re-encodes the trimmed text. A BPE tokenizer can
// encode decoded text into more tokens than it came from, so the text is cut
// back until its own encoding fits the budget.
func (c *Chunker) fit(window []int, budget int) (string, int, error) {
	for {
		text, err := c.tokenizer.Decode(window)
		if err != nil {
			return "", 0, &TokenizationError{Op: "decode", Err: err}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", 0, nil
		}
		window, err = c.tokenizer.Encode(text)
		if err != nil {
			return "", 0, &TokenizationError{Op: "encode", Err: err}
		}
		if len(window) <= budget {
			return text, len(window), nil
		}
		window = window[:budget]
	}
}

// Records splits text on p.Separator (RecordSeparator when empty) and packs
// whole records into chunks. Each record is counted together with its
// re-appended separator. A record larger than the budget is emitted alone.
func (c *Chunker) Records(text string, p Params) ([]Chunk, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}
	if p.Separator == "" {
		p.Separator = RecordSeparator
	}

	var (
		out    []Chunk
		buf    strings.Builder
		counts int
	)
	flush := func() {
		if chunk := strings.TrimSpace(buf.String()); chunk != "" {
			out = append(out, Chunk{Ordinal: len(out), Text: chunk, TokenCount: counts})
		}
		buf.Reset()
		counts = 0
	}

	for _, part := range strings.Split(text, p.Separator) {
		record := strings.TrimSpace(part)
		if record == "" {
			continue
		}
		unit := record + "\n" + p.Separator + "\n"

		tokens, err := c.tokenizer.Encode(unit)
		if err != nil {
			return nil, &TokenizationError{Op: "encode", Err: err}
		}

		if buf.Len() > 0 && counts+len(tokens) > p.TargetTokens {
			flush()
		}
		buf.WriteString(unit)
		counts += len(tokens)
	}
	flush()
	return out, nil
}
