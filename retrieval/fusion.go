package retrieval

import (
	"slices"

	"github.com/poiesic/answerit/core"
)

// DefaultRRFSmoothing is the standard Reciprocal Rank Fusion constant.
const DefaultRRFSmoothing = 60

// Fuse merges ranked lists with Reciprocal Rank Fusion. Each document
// accumulates 1/(rank+k) for every list it appears in, with rank the
// 0-based position. Output is ordered by fused score descending; ties
// keep first-appearance order, so fusion is deterministic.
func Fuse(k int, lists ...[]core.IndexMatch) []core.IndexMatch {
	type fused struct {
		doc   *core.IndexedDocument
		score float32
	}

	order := make([]core.ID, 0)
	byID := make(map[core.ID]*fused)

	for _, list := range lists {
		for rank, match := range list {
			entry, ok := byID[match.Doc.Id]
			if !ok {
				entry = &fused{doc: match.Doc}
				byID[match.Doc.Id] = entry
				order = append(order, match.Doc.Id)
			}
			entry.score += 1 / float32(rank+k)
		}
	}

	results := make([]core.IndexMatch, 0, len(order))
	for _, id := range order {
		results = append(results, core.IndexMatch{
			Doc:   byID[id].doc,
			Score: byID[id].score,
		})
	}

	slices.SortStableFunc(results, func(a, b core.IndexMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	return results
}
