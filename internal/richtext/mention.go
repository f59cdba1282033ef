package richtext

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ExtractMentions walks the document depth-first and returns the unique,
// ascending ids of every mention node whose attrs.id is a positive integer.
// Malformed mention nodes are skipped. The input is never modified.
func ExtractMentions(doc Node) []uint {
	seen := make(map[uint]struct{})

	// explicit stack so arbitrarily deep documents cannot exhaust the goroutine stack
	stack := []*Node{&doc}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type == MentionType {
			if id, ok := mentionID(n.Attrs); ok {
				seen[id] = struct{}{}
			}
		}

		for i := len(n.Content) - 1; i >= 0; i-- {
			stack = append(stack, &n.Content[i])
		}
	}

	ids := make([]uint, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func mentionID(attrs map[string]any) (uint, bool) {
	raw, ok := attrs["id"]
	if !ok || raw == nil {
		return 0, false
	}

	switch v := raw.(type) {
	case string:
		return parsePositive(strings.TrimSpace(v))
	case json.Number:
		return parsePositive(v.String())
	case float64:
		if v != math.Trunc(v) || v < 1 || v > math.MaxUint32 {
			return 0, false
		}
		return uint(v), true
	case float32:
		return mentionID(map[string]any{"id": float64(v)})
	case int:
		return positive(int64(v))
	case int32:
		return positive(int64(v))
	case int64:
		return positive(v)
	case uint:
		return v, v > 0
	case uint32:
		return uint(v), v > 0
	case uint64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}

func parsePositive(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func positive(n int64) (uint, bool) {
	if n < 1 || n > math.MaxUint32 {
		return 0, false
	}
	return uint(n), true
}
