package cursor

import "fmt"

// Sort is a supported feed ordering.
type Sort string

const (
	SortNew    Sort = "new"
	SortOldest Sort = "oldest"
	SortTop    Sort = "top"
	SortHot    Sort = "hot"
)

// ParseSort validates a sort name. Empty means SortNew.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "":
		return SortNew, nil
	case SortNew, SortOldest, SortTop, SortHot:
		return Sort(s), nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

// Shape is the cursor layout used by the sort. All feed orderings key on a
// non-unique primary value and therefore use composite cursors.
func (s Sort) Shape() Shape {
	return ShapeComposite
}

// Direction is the keyset direction of the sort.
func (s Sort) Direction() Direction {
	if s == SortOldest {
		return Asc
	}
	return Desc
}

// ClampLimit bounds a requested page size to [1, max].
func ClampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}

// Page is one window of an ordered result set.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// Window applies the page contract to rows fetched with limit+1: the first
// limit rows are returned, and when the extra row exists the cursor of the
// last returned row is emitted so the next request resumes right after it.
func Window[T any](rows []T, limit int, key func(T) Cursor) Page[T] {
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	items := rows[:limit]
	next := key(items[len(items)-1]).Encode()
	return Page[T]{Items: items, NextCursor: &next}
}
