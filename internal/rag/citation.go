package rag

import (
	"sort"

	"github.com/docsage/docsage/tools/retriever"
)

// Citation is a (source file, 1-indexed page) reference attached to an answer.
type Citation struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// AssembleCitations maps each retrieved item's 0-indexed page metadata to a
// 1-indexed citation, deduplicates by (source, page) keeping the first
// occurrence, and sorts by source then page. Items the extractor left
// unpaged produce no citation; an empty result is valid.
func AssembleCitations(items []retriever.Item) []Citation {
	type key struct {
		source string
		page   int
	}
	seen := make(map[key]struct{})
	citations := []Citation{}
	for _, item := range items {
		if item.Chunk.Page < 0 {
			continue
		}
		c := Citation{Source: item.SourceFile, Page: item.Chunk.Page + 1}
		k := key{c.Source, c.Page}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		citations = append(citations, c)
	}
	sort.Slice(citations, func(i, j int) bool {
		if citations[i].Source != citations[j].Source {
			return citations[i].Source < citations[j].Source
		}
		return citations[i].Page < citations[j].Page
	})
	return citations
}
