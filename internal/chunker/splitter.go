package chunker

import (
	"errors"
	"strings"
	"sync"
)

// ErrInvalidOptions reports a bad size/overlap combination.
var ErrInvalidOptions = errors.New("chunker: overlap must be positive and smaller than size")

// DocumentMarker prefixes every ingested document so that chunk text keeps
// the document boundary visible to retrieval.
const DocumentMarker = "NEW BOOK: "

// defaultSeparators is the split priority: paragraph break, line break,
// space, sentence boundary, document boundary marker, then a hard cut.
var defaultSeparators = []string{"\n\n", "\n", " ", ".", DocumentMarker, ""}

// Splitter cuts raw document text into overlapping chunks of at most Size
// bytes, preferring the highest-priority separator that keeps pieces small
// enough.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// New creates a Splitter. Overlap must satisfy 0 < overlap < size.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 || overlap <= 0 || overlap >= size {
		return nil, ErrInvalidOptions
	}
	return &Splitter{size: size, overlap: overlap, separators: defaultSeparators}, nil
}

// Split returns the cleaned chunks of text. Whitespace-only input yields an
// empty result rather than an error, so ingesting an empty document is a
// no-op instead of failing a batch upload.
func (s *Splitter) Split(text string) []string {
	pieces := s.split(text, s.separators)
	chunks := s.merge(pieces)
	return cleanAll(chunks)
}

// split cuts text into pieces no longer than size, trying separators in
// priority order and recursing on oversized pieces with the remaining
// separators. This step is sequential: each boundary depends on the text
// before it.
func (s *Splitter) split(text string, seps []string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.size {
		return []string{text}
	}
	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return s.hardCut(text)
	}
	var pieces []string
	for _, p := range strings.SplitAfter(text, sep) {
		if p == "" {
			continue
		}
		if len(p) > s.size {
			pieces = append(pieces, s.split(p, rest)...)
		} else {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// pickSeparator returns the first separator occurring in text and the
// lower-priority separators after it. The empty string always matches.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// hardCut is the last resort for text with no separators at all: fixed
// non-overlapping windows of size-overlap bytes. merge seeds the overlap
// between the resulting chunks, so the windows themselves must not repeat
// any text.
func (s *Splitter) hardCut(text string) []string {
	step := s.size - s.overlap
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + step
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
	}
	return out
}

// merge greedily packs adjacent pieces into chunks of at most size bytes,
// seeding each new chunk with the tail of the previous one so consecutive
// chunks repeat overlap bytes.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var cur strings.Builder
	seeded := 0
	for _, p := range pieces {
		if cur.Len() > seeded && cur.Len()+len(p) > s.size {
			chunk := cur.String()
			chunks = append(chunks, chunk)
			tail := chunk
			if len(tail) > s.overlap {
				tail = tail[len(tail)-s.overlap:]
			}
			// shrink the seed if the next piece would not fit next to it
			if len(tail)+len(p) > s.size {
				tail = tail[len(tail)+len(p)-s.size:]
			}
			cur.Reset()
			cur.WriteString(tail)
			seeded = len(tail)
		}
		cur.WriteString(p)
	}
	if cur.Len() > seeded {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// cleanAll normalizes chunks concurrently and drops the ones that end up
// empty. Cleanup of independent chunks has no shared state, so each runs in
// its own goroutine; order is preserved by index.
func cleanAll(chunks []string) []string {
	cleaned := make([]string, len(chunks))
	var wg sync.WaitGroup
	for i, c := range chunks {
		wg.Add(1)
		go func(i int, c string) {
			defer wg.Done()
			cleaned[i] = clean(c)
		}(i, c)
	}
	wg.Wait()
	out := cleaned[:0]
	for _, c := range cleaned {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

// clean strips stray double newlines, newlines and double spaces inside a
// chunk. Cosmetic only.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\n\n", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "  ", "")
	return s
}
