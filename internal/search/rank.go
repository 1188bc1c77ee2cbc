// file: internal/search/rank.go
// version: 1.0.0
// guid: 2d8f4b6a-7c1e-4a39-b5d0-9e3a6f2c8b14

package search

import (
	"errors"
	"runtime"
	"sort"

	"github.com/jdfalk/voter-search/internal/models"
	"golang.org/x/sync/errgroup"
)

// MatchResult pairs a candidate voter with its confidence.
type MatchResult struct {
	Voter      models.Voter `json:"voter"`
	Confidence float64      `json:"confidence"`
}

// minParallelBatch is the candidate count below which scoring stays on the
// calling goroutine.
const minParallelBatch = 64

// Rank scores every voter against terms and returns them ordered by confidence,
// highest first. Voters with equal confidence keep their input order. A
// degenerate term list scores every voter 0 rather than failing.
//
// workers bounds concurrent scoring; 0 means runtime.NumCPU and 1 scores
// sequentially. The result is identical either way.
func Rank(voters []models.Voter, terms []Term, workers int) ([]MatchResult, error) {
	results := make([]MatchResult, len(voters))
	score := func(i int) error {
		c, err := Confidence(&voters[i], terms)
		if err != nil && !errors.Is(err, ErrDegenerateScore) {
			return err
		}
		results[i] = MatchResult{Voter: voters[i], Confidence: c}
		return nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 || len(voters) < minParallelBatch {
		for i := range voters {
			if err := score(i); err != nil {
				return nil, err
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i := range voters {
			g.Go(func() error { return score(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Confidence > results[b].Confidence
	})
	return results, nil
}
