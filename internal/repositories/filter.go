package repositories

import (
	"fmt"

	"gorm.io/gorm"
)

// PredicateKind names one eligibility rule for post queries
type PredicateKind int

const (
	PredPublished PredicateKind = iota + 1
	PredNotDeleted
	PredReportsBelow
	PredTag
	PredAuthor
)

// Predicate is a single named filter with its argument
type Predicate struct {
	Kind PredicateKind
	N    int64
	Name string
}

func Published() Predicate { return Predicate{Kind: PredPublished} }
func NotDeleted() Predicate { return Predicate{Kind: PredNotDeleted} }
func ReportsBelow(n int64) Predicate { return Predicate{Kind: PredReportsBelow, N: n} }
func Tagged(name string) Predicate { return Predicate{Kind: PredTag, Name: name} }
func ByAuthor(id uint) Predicate { return Predicate{Kind: PredAuthor, N: int64(id)} }

// PostFilter is the explicit list of predicates a post query must satisfy.
// Soft-deleted rows are only excluded when PredNotDeleted is present.
type PostFilter []Predicate

// FeedEligible is the filter every public feed starts from
func FeedEligible(reportThreshold int64) PostFilter {
	return PostFilter{Published(), NotDeleted(), ReportsBelow(reportThreshold)}
}

// With returns a copy of f extended by p
func (f PostFilter) With(p ...Predicate) PostFilter {
	out := make(PostFilter, 0, len(f)+len(p))
	out = append(out, f...)
	return append(out, p...)
}

// Apply adds the predicates to a query on the posts table
func (f PostFilter) Apply(db *gorm.DB) (*gorm.DB, error) {
	q := db.Unscoped()
	for _, p := range f {
		switch p.Kind {
		case PredPublished:
			q = q.Where("posts.published = ?", true)
		case PredNotDeleted:
			q = q.Where("posts.deleted_at IS NULL")
		case PredReportsBelow:
			q = q.Where("posts.report_count < ?", p.N)
		case PredTag:
			q = q.Where("posts.id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Table("post_tags").
				Select("post_tags.post_id").
				Joins("JOIN tags ON tags.id = post_tags.tag_id").
				Where("tags.name = ?", p.Name))
		case PredAuthor:
			q = q.Where("posts.author_id = ?", p.N)
		default:
			return nil, fmt.Errorf("unknown post predicate %d", p.Kind)
		}
	}
	return q, nil
}
