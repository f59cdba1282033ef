// Package cursor encodes and decodes keyset pagination cursors.
//
// Two shapes exist. A simple cursor is the last row's surrogate id ("42").
// A composite cursor is a primary sort key plus a tie-breaking secondary key
// joined by an underscore ("1718000000000000_42"), used when the primary key
// is not unique (timestamps, counters, ranking offsets).
package cursor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCursor is returned for any cursor that does not match its expected shape.
var ErrInvalidCursor = errors.New("invalid cursor")

const separator = "_"

// Shape is the layout of an encoded cursor.
type Shape int

const (
	ShapeSimple Shape = iota
	ShapeComposite
)

// Direction is the ordering a cursor continues.
type Direction int

const (
	Desc Direction = iota
	Asc
)

// Cursor is a decoded position in an ordered result set.
// For simple cursors only Secondary (the row id) is meaningful.
type Cursor struct {
	Shape     Shape
	Primary   int64
	Secondary uint
}

// Simple builds a cursor from a row id.
func Simple(id uint) Cursor {
	return Cursor{Shape: ShapeSimple, Secondary: id}
}

// Composite builds a cursor from a primary key and a tie-breaking row id.
func Composite(primary int64, id uint) Cursor {
	return Cursor{Shape: ShapeComposite, Primary: primary, Secondary: id}
}

// ID is the row id carried by the cursor.
func (c Cursor) ID() uint {
	return c.Secondary
}

// Encode renders the cursor in its wire form.
func (c Cursor) Encode() string {
	if c.Shape == ShapeSimple {
		return strconv.FormatUint(uint64(c.Secondary), 10)
	}
	return strconv.FormatInt(c.Primary, 10) + separator + strconv.FormatUint(uint64(c.Secondary), 10)
}

// String implements fmt.Stringer.
func (c Cursor) String() string {
	return c.Encode()
}

// Decode parses raw as a cursor of the given shape. It never falls back to
// "start of feed": every malformed input is an ErrInvalidCursor.
func Decode(raw string, shape Shape) (Cursor, error) {
	if raw == "" {
		return Cursor{}, fmt.Errorf("%w: empty", ErrInvalidCursor)
	}

	switch shape {
	case ShapeSimple:
		id, err := parseID(raw)
		if err != nil {
			return Cursor{}, err
		}
		return Simple(id), nil
	case ShapeComposite:
		parts := strings.Split(raw, separator)
		if len(parts) != 2 {
			return Cursor{}, fmt.Errorf("%w: %q is not primary%ssecondary", ErrInvalidCursor, raw, separator)
		}
		primary, err := parseInt(parts[0])
		if err != nil {
			return Cursor{}, err
		}
		id, err := parseID(parts[1])
		if err != nil {
			return Cursor{}, err
		}
		return Composite(primary, id), nil
	default:
		return Cursor{}, fmt.Errorf("%w: unknown shape %d", ErrInvalidCursor, shape)
	}
}

// Optional decodes raw when present. An empty string means "first page".
func Optional(raw string, shape Shape) (*Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	c, err := Decode(raw, shape)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// After reports whether a row keyed (primary, id) comes strictly after the
// cursor in the given direction. Composite cursors compare lexicographically.
func (c Cursor) After(primary int64, id uint, dir Direction) bool {
	if c.Shape == ShapeSimple {
		if dir == Desc {
			return id < c.Secondary
		}
		return id > c.Secondary
	}
	if primary != c.Primary {
		if dir == Desc {
			return primary < c.Primary
		}
		return primary > c.Primary
	}
	if dir == Desc {
		return id < c.Secondary
	}
	return id > c.Secondary
}

func parseInt(s string) (int64, error) {
	if !digitsOnly(strings.TrimPrefix(s, "-")) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidCursor, s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidCursor, s, err)
	}
	return n, nil
}

func parseID(s string) (uint, error) {
	if !digitsOnly(s) {
		return 0, fmt.Errorf("%w: %q is not a row id", ErrInvalidCursor, s)
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q is not a row id", ErrInvalidCursor, s)
	}
	return uint(n), nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
