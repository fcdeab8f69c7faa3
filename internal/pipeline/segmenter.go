package pipeline

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/aruiz/feinscan/internal/domain/docModel"
)

// PageCount parses the document and returns its page count. Unparseable
// input is reported as a corrupt document.
func PageCount(content []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(content), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", docModel.ErrDocumentCorrupt, err)
	}
	return count, nil
}

// pageWindows partitions [1,totalPages] into sequential inclusive ranges of
// at most maxPages. Deterministic; the last window may be shorter.
func pageWindows(totalPages, maxPages int) [][2]int {
	var windows [][2]int
	for from := 1; from <= totalPages; from += maxPages {
		to := from + maxPages - 1
		if to > totalPages {
			to = totalPages
		}
		windows = append(windows, [2]int{from, to})
	}
	return windows
}

// chunkCountFor is the chunk count Segment would produce, without carving
// any PDF bytes. Used for job progress metadata.
func chunkCountFor(totalPages, maxPages int) int {
	return (totalPages + maxPages - 1) / maxPages
}

// Segment splits the document into ordered page-bounded chunks of at most
// maxPages pages. A document that already fits in one chunk is passed
// through untouched; larger ones are carved with pdfcpu page selections.
func Segment(doc docModel.Document, maxPages int) ([]docModel.Chunk, error) {
	if doc.PageCount < 1 {
		return nil, fmt.Errorf("%w: no pages", docModel.ErrDocumentCorrupt)
	}

	windows := pageWindows(doc.PageCount, maxPages)
	if len(windows) == 1 {
		return []docModel.Chunk{{Index: 0, FromPage: 1, ToPage: doc.PageCount, Content: doc.Content}}, nil
	}

	chunks := make([]docModel.Chunk, 0, len(windows))
	for i, w := range windows {
		var buf bytes.Buffer
		selection := []string{fmt.Sprintf("%d-%d", w[0], w[1])}
		if err := api.Trim(bytes.NewReader(doc.Content), &buf, selection, nil); err != nil {
			return nil, fmt.Errorf("%w: extracting pages %d-%d: %v", docModel.ErrDocumentCorrupt, w[0], w[1], err)
		}
		chunks = append(chunks, docModel.Chunk{
			Index:    i,
			FromPage: w[0],
			ToPage:   w[1],
			Content:  buf.Bytes(),
		})
	}
	return chunks, nil
}
