// Package splitter chunks document text into bounded, overlapping windows.
// Splitting is layered: paragraph breaks first, then line breaks, sentence
// boundaries, spaces, and finally raw character positions, so that chunk
// boundaries land on the most natural break available.
package splitter

import (
	"strings"

	"assistant/internal/domain"
)

var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter produces deterministic chunk sequences. It is stateless and safe
// for concurrent use.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a splitter with the given chunk size and overlap, both in
// characters. Overlap must be smaller than the chunk size.
func New(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split chunks a document. Every chunk inherits the source document's
// metadata unmodified. A document no longer than the chunk size yields a
// single chunk identical to the input.
func (s *Splitter) Split(doc domain.Document) []domain.Document {
	pieces := s.splitText(doc.Content, separators)
	chunks := make([]domain.Document, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, domain.Document{
			Content:  p,
			Metadata: doc.CloneMetadata(),
		})
	}
	return chunks
}

func (s *Splitter) splitText(text string, seps []string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return s.hardCut(text)
	}

	// Pieces that fit are packed together; an oversized piece is split at
	// the next separator level and its chunks appended as-is, so merging
	// never regrows a chunk past the bound.
	var chunks []string
	var pending []string
	flushPending := func() {
		chunks = append(chunks, s.merge(pending)...)
		pending = nil
	}
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		if len(part) > s.chunkSize {
			flushPending()
			chunks = append(chunks, s.splitText(part, seps[1:])...)
		} else {
			pending = append(pending, part)
		}
	}
	flushPending()
	return chunks
}

// merge packs already-bounded pieces into chunks of at most chunkSize,
// seeding each chunk after the first with the overlap tail of its
// predecessor. Chunk length never exceeds chunkSize + chunkOverlap.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var buf strings.Builder
	seedLen := 0

	flush := func() {
		chunk := strings.TrimSpace(buf.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
		if s.chunkOverlap > 0 && chunk != "" {
			tail := overlapTail(chunk, s.chunkOverlap)
			buf.WriteString(tail)
			seedLen = len(tail)
		} else {
			seedLen = 0
		}
	}

	for _, p := range pieces {
		if buf.Len()-seedLen+len(p) > s.chunkSize && buf.Len() > seedLen {
			flush()
		}
		buf.WriteString(p)
	}
	if buf.Len() > seedLen {
		chunk := strings.TrimSpace(buf.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// hardCut slices text at raw character positions with overlapping windows.
// Last-resort strategy when no separator fits inside the chunk size.
// Positions are rune offsets, so multi-byte text is never cut mid-rune.
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.chunkOverlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// overlapTail returns the last overlap runes of a chunk.
func overlapTail(chunk string, overlap int) string {
	runes := []rune(chunk)
	if len(runes) <= overlap {
		return chunk
	}
	return string(runes[len(runes)-overlap:])
}
