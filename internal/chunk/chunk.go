// Package chunk splits extracted document text into overlapping windows, the
// unit of retrieval. Windows prefer paragraph, line, then word boundaries
// before falling back to a hard character cut.
package chunk

import (
	"errors"
	"strings"

	"github.com/docsage/docsage/tools/extract"
)

// Defaults for the splitter, in characters. Overridable via configuration.
const (
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// ErrEmptyDocument is returned when extraction yields no chunkable text,
// e.g. a scanned image-only PDF with no OCR layer. Callers must treat this
// as an error, not an empty-but-valid index.
var ErrEmptyDocument = errors.New("no extractable text found in the document")

// Chunk is a bounded window of document text plus page/source metadata.
// Immutable once created. Page keeps the extractor's 0-indexed numbering;
// user-facing page numbers are converted to 1-indexed at citation time.
type Chunk struct {
	Text       string
	SourceFile string
	Page       int // 0-indexed; -1 when the extractor reported no page
}

// SplitPages chunks every page of a document and tags each window with its
// originating page and source filename. Chunks never span page boundaries.
func SplitPages(pages []extract.Page, sourceFile string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
	}

	var chunks []Chunk
	for _, page := range pages {
		for _, part := range splitText(page.Text, size, overlap) {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Text:       part,
				SourceFile: sourceFile,
				Page:       page.Number,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	return chunks, nil
}

// splitText cuts text into windows no larger than size. Consecutive windows
// re-include the trailing overlap characters of the previous one.
func splitText(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}
	var parts []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			parts = append(parts, text[start:])
			break
		}
		cut := boundary(text, start, end)
		parts = append(parts, text[start:cut])
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return parts
}

// boundary picks the cut position for the window [start, end), preferring the
// last paragraph break, then line break, then space. Falls back to end when
// the window has no separator at all.
func boundary(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(window, sep); i > 0 {
			return start + i + len(sep)
		}
	}
	return end
}
