package retriever

import (
	"context"

	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/session"
	"github.com/docsage/docsage/tools/embedding"
)

// Per-session result counts for the two query shapes.
const (
	AskK       = 4
	SummarizeK = 6
)

// Item is one retrieved chunk with its source attribution. It carries enough
// information to build both context text and citations without re-querying
// the session store mid-request.
type Item struct {
	Chunk      chunk.Chunk
	SourceFile string
	SessionID  string
	Score      float64
}

type Retriever struct {
	Store     session.Store
	Embedding *embedding.Embedding
}

func NewRetriever(store session.Store, emb *embedding.Embedding) Retriever {
	return Retriever{Store: store, Embedding: emb}
}

// Retrieve pulls the top-k chunks per session for the query and concatenates
// them in session-list order. Unknown or expired session ids are skipped
// silently; the caller degrades to fewer sources. The query is embedded once,
// not per session.
func (r Retriever) Retrieve(ctx context.Context, sessionIDs []string, query string, k int) ([]Item, error) {
	var sessions []session.Session
	for _, id := range sessionIDs {
		if sess, ok := r.Store.Get(id); ok {
			sessions = append(sessions, sess)
		}
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	qvec, err := r.Embedding.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, sess := range sessions {
		hits, err := sess.Index.Search(query, qvec, k)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			items = append(items, Item{
				Chunk:      hit.Chunk,
				SourceFile: sess.SourceFile,
				SessionID:  sess.ID,
				Score:      hit.Score,
			})
		}
	}
	return items, nil
}
