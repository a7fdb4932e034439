// Package docindex holds the per-session search index over one uploaded
// document's chunks. Lexical BM25 (bleve, memory-only) and cosine similarity
// over chunk embeddings are fused with reciprocal-rank fusion.
package docindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/blevesearch/bleve"

	"github.com/docsage/docsage/internal/chunk"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// Hit is one retrieval result in rank order.
type Hit struct {
	DocID string
	Chunk chunk.Chunk
	Score float64
	Rank  int
}

type vecEntry struct {
	docID string
	vec   []float32
}

// Index is an immutable chunk index for a single document. One upload builds
// one index; append is not supported. Reads are safe concurrently.
type Index struct {
	bleve   bleve.Index
	chunks  map[string]chunk.Chunk
	vectors []vecEntry
}

// Build indexes the given chunks with their embeddings. vecs[i] must be the
// embedding of chunks[i].
func Build(chunks []chunk.Chunk, vecs [][]float32) (*Index, error) {
	if len(chunks) != len(vecs) {
		return nil, fmt.Errorf("got %d embeddings for %d chunks", len(vecs), len(chunks))
	}
	bidx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	idx := &Index{
		bleve:  bidx,
		chunks: make(map[string]chunk.Chunk, len(chunks)),
	}
	for i, c := range chunks {
		docID := fmt.Sprintf("c%04d", i)
		idx.chunks[docID] = c
		idx.vectors = append(idx.vectors, vecEntry{docID: docID, vec: vecs[i]})
		if err := bidx.Index(docID, c); err != nil {
			return nil, fmt.Errorf("indexing chunk %s: %w", docID, err)
		}
	}
	return idx, nil
}

// Len reports the number of indexed chunks.
func (idx *Index) Len() int { return len(idx.chunks) }

// Search returns the top-k chunks for the query, fusing BM25 and vector
// rankings. qvec may be nil, in which case only BM25 contributes.
func (idx *Index) Search(q string, qvec []float32, k int) ([]Hit, error) {
	if k <= 0 || k > 50 {
		k = 10
	}
	bmHits, err := idx.bm25Search(q, k)
	if err != nil {
		return nil, err
	}
	var vecHits []Hit
	if qvec != nil {
		vecHits = idx.vectorSearch(qvec, k)
	}
	return idx.fuseRRF(bmHits, vecHits, k), nil
}

func (idx *Index) bm25Search(q string, k int) ([]Hit, error) {
	query := bleve.NewMatchQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	res, err := idx.bleve.Search(searchReq)
	if err != nil {
		return nil, err
	}
	var out []Hit
	for i, hit := range res.Hits {
		out = append(out, Hit{
			DocID: hit.ID,
			Chunk: idx.chunks[hit.ID],
			Score: hit.Score,
			Rank:  i + 1,
		})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func (idx *Index) vectorSearch(qvec []float32, k int) []Hit {
	type scored struct {
		id    string
		score float64
	}
	var scoreds []scored
	for _, v := range idx.vectors {
		scoreds = append(scoreds, scored{id: v.docID, score: cosine(qvec, v.vec)})
	}
	sort.Slice(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })
	var out []Hit
	for i, sc := range scoreds {
		out = append(out, Hit{
			DocID: sc.id,
			Chunk: idx.chunks[sc.id],
			Score: sc.score,
			Rank:  i + 1,
		})
		if len(out) >= k {
			break
		}
	}
	return out
}

func (idx *Index) fuseRRF(a, b []Hit, k int) []Hit {
	type agg struct {
		item  Hit
		score float64
	}
	m := map[string]*agg{}
	add := func(list []Hit) {
		for _, h := range list {
			x, ok := m[h.DocID]
			if !ok {
				m[h.DocID] = &agg{item: h}
				x = m[h.DocID]
			}
			x.score += 1.0 / float64(rrfK+h.Rank)
		}
	}
	add(a)
	add(b)

	items := make([]agg, 0, len(m))
	for _, v := range m {
		items = append(items, *v)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].item.DocID < items[j].item.DocID
	})
	if len(items) > k {
		items = items[:k]
	}
	out := make([]Hit, 0, len(items))
	for i, x := range items {
		h := x.item
		h.Score = x.score
		h.Rank = i + 1
		out = append(out, h)
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
