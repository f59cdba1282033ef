// Package feed ranks posts for the hot feed.
package feed

import (
	"math"
	"sort"
	"time"
)

const (
	WeightLike     = 1.0
	WeightBookmark = 5.0 / 3.0
	WeightComment  = 4.0 / 3.0

	// AgeOffsetHours keeps brand-new posts from dividing by ~0.
	AgeOffsetHours = 2.0
	// Gravity is the decay exponent applied to age.
	Gravity = 1.8
)

// Candidate carries the engagement counters a hot score is computed from.
type Candidate struct {
	ID            uint
	CreatedAt     time.Time
	LikeCount     int64
	BookmarkCount int64
	CommentCount  int64
}

// Scored is a candidate with its score at ranking time.
type Scored struct {
	Candidate
	Score float64
}

// Score computes the hot score of c at now. Posts dated in the future count as age zero.
// A younger post only outscores an older one with the same counters when those
// counters are non-zero; without engagement both score 0 and RankHot falls
// back to recency.
func Score(c Candidate, now time.Time) float64 {
	age := now.Sub(c.CreatedAt).Hours()
	if age < 0 {
		age = 0
	}
	engagement := WeightLike*float64(c.LikeCount) +
		WeightBookmark*float64(c.BookmarkCount) +
		WeightComment*float64(c.CommentCount)
	return engagement / math.Pow(age+AgeOffsetHours, Gravity)
}

// RankHot orders candidates by descending score. Ties go to the newer post,
// then to the larger id. The input slice is not modified.
//
// The pool is expected to be a bounded recent window, so the order is an
// approximation over recent content and may shift between requests as
// counters change.
func RankHot(candidates []Candidate, now time.Time) []Scored {
	ranked := make([]Scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = Scored{Candidate: c, Score: Score(c, now)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return ranked
}
