// Package docpath models paths into a JSON document: sequences of object
// keys and array indices rooted at the document itself.
package docpath

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind distinguishes object-key segments from array-index segments.
type SegmentKind uint8

const (
	KeySegment SegmentKind = iota
	IndexSegment
)

// Segment is one step into a document: a key into an object or an index
// into an array.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// Key returns an object-key segment.
func Key(k string) Segment {
	return Segment{Kind: KeySegment, Key: k}
}

// Index returns an array-index segment.
func Index(i int) Segment {
	return Segment{Kind: IndexSegment, Index: i}
}

// Path addresses one location in a document. The empty path is the root.
type Path []Segment

// IsRoot reports whether p addresses the document root.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Child returns a new path extended by seg. The receiver is not modified
// and shares no backing storage with the result.
func (p Path) Child(seg Segment) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// Parent returns the path with the last segment removed. The root's parent
// is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Equal reports element-wise structural equality.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the display form: "$" for the root, then one bracketed
// accessor per segment, keys quoted and indices bare.
// Example: $["customer"][2]["name"]
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range p {
		b.WriteByte('[')
		if seg.Kind == KeySegment {
			b.WriteString(strconv.Quote(seg.Key))
		} else {
			b.WriteString(strconv.Itoa(seg.Index))
		}
		b.WriteByte(']')
	}
	return b.String()
}

// Parse is the inverse of String. It also accepts dot shorthand for bare
// identifier keys, so $.customer.name and $["customer"]["name"] are the
// same path.
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}
	if s[0] != '$' {
		return nil, fmt.Errorf("path must start with $, got %q", s)
	}
	rest := s[1:]
	p := Path{}
	for len(rest) > 0 {
		switch rest[0] {
		case '[':
			seg, remaining, err := parseBracket(rest)
			if err != nil {
				return nil, err
			}
			p = append(p, seg)
			rest = remaining
		case '.':
			name, remaining := parseIdent(rest[1:])
			if name == "" {
				return nil, fmt.Errorf("empty segment after '.' in %q", s)
			}
			p = append(p, Key(name))
			rest = remaining
		default:
			return nil, fmt.Errorf("unexpected %q in path %q", rest[0], s)
		}
	}
	return p, nil
}

// parseBracket consumes one [...] accessor from the front of s.
func parseBracket(s string) (Segment, string, error) {
	if len(s) < 2 {
		return Segment{}, "", fmt.Errorf("unterminated accessor %q", s)
	}
	body := s[1:]
	if body[0] == '"' {
		// Quoted key: scan to the closing quote, honoring escapes.
		i := 1
		for i < len(body) {
			if body[i] == '\\' {
				i += 2
				continue
			}
			if body[i] == '"' {
				break
			}
			i++
		}
		if i >= len(body) {
			return Segment{}, "", fmt.Errorf("unterminated string in accessor %q", s)
		}
		key, err := strconv.Unquote(body[:i+1])
		if err != nil {
			return Segment{}, "", fmt.Errorf("invalid key %q: %w", body[:i+1], err)
		}
		if i+1 >= len(body) || body[i+1] != ']' {
			return Segment{}, "", fmt.Errorf("missing ']' in accessor %q", s)
		}
		return Key(key), body[i+2:], nil
	}
	end := strings.IndexByte(body, ']')
	if end < 0 {
		return Segment{}, "", fmt.Errorf("missing ']' in accessor %q", s)
	}
	idx, err := strconv.Atoi(body[:end])
	if err != nil || idx < 0 {
		return Segment{}, "", fmt.Errorf("invalid index %q in accessor", body[:end])
	}
	return Index(idx), body[end+1:], nil
}

// parseIdent consumes a bare identifier for the dot shorthand.
func parseIdent(s string) (name, rest string) {
	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '[' {
		i++
	}
	return s[:i], s[i:]
}

// MarshalJSON renders the wire form: a mixed array of strings and
// non-negative integers, e.g. ["customer", 2, "name"].
func (p Path) MarshalJSON() ([]byte, error) {
	parts := make([]any, len(p))
	for i, seg := range p {
		if seg.Kind == KeySegment {
			parts[i] = seg.Key
		} else {
			parts[i] = seg.Index
		}
	}
	return json.Marshal(parts)
}

// UnmarshalJSON parses the mixed-array wire form.
func (p *Path) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Path, 0, len(raw))
	for _, el := range raw {
		switch v := el.(type) {
		case string:
			out = append(out, Key(v))
		case json.Number:
			idx, err := strconv.Atoi(v.String())
			if err != nil || idx < 0 {
				return fmt.Errorf("path index must be a non-negative integer, got %s", v)
			}
			out = append(out, Index(idx))
		default:
			return fmt.Errorf("path element must be a string or integer, got %T", el)
		}
	}
	*p = out
	return nil
}
