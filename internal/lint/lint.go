// Package lint flags document hygiene problems that the strict parser
// accepts: duplicate object keys, extreme nesting, oversized arrays.
package lint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
)

const (
	// MaxDepth is the deepest container nesting before lint complains.
	MaxDepth = 64
	// MaxArrayLen is the largest array lint accepts quietly.
	MaxArrayLen = 10000
)

type Diagnostic struct {
	Path    docpath.Path
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// Check lints the document text. A text that fails the strict parse
// returns that parse error; diagnostics only cover well-formed documents.
func Check(text []byte) ([]Diagnostic, error) {
	doc, err := document.Parse(text)
	if err != nil {
		return nil, err
	}
	diags, err := scanDuplicates(text)
	if err != nil {
		return nil, err
	}
	var depthReported bool
	walkLimits(doc, docpath.Path{}, 0, &diags, &depthReported)
	return diags, nil
}

// scanDuplicates re-reads the raw text because the parsed document has
// already collapsed duplicates to their last value.
func scanDuplicates(text []byte) ([]Diagnostic, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	type frame struct {
		object  bool
		seen    map[string]struct{}
		nextKey string
		hasKey  bool
		index   int
	}

	var diags []Diagnostic
	var stack []*frame
	var path docpath.Path

	// enterValue pushes the segment leading to the value now starting.
	// The root value has no segment.
	enterValue := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.object {
			path = append(path, docpath.Key(top.nextKey))
			top.hasKey = false
		} else {
			path = append(path, docpath.Index(top.index))
			top.index++
		}
	}
	leaveValue := func() {
		if len(stack) > 0 {
			path = path[:len(path)-1]
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return diags, nil
		}
		if err != nil {
			return diags, err
		}

		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if key, isKey := tok.(string); isKey && top.object && !top.hasKey {
				if _, dup := top.seen[key]; dup {
					diags = append(diags, Diagnostic{
						Path:    path.Child(docpath.Key(key)),
						Message: fmt.Sprintf("duplicate key %q, later value wins", key),
					})
				}
				top.seen[key] = struct{}{}
				top.nextKey = key
				top.hasKey = true
				continue
			}
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				enterValue()
				stack = append(stack, &frame{object: true, seen: make(map[string]struct{})})
			case '[':
				enterValue()
				stack = append(stack, &frame{})
			default: // '}' or ']'
				stack = stack[:len(stack)-1]
				leaveValue()
			}
		default:
			enterValue()
			leaveValue()
		}
	}
}

func walkLimits(v any, p docpath.Path, depth int, diags *[]Diagnostic, depthReported *bool) {
	if depth > MaxDepth {
		if !*depthReported {
			*diags = append(*diags, Diagnostic{
				Path:    p,
				Message: fmt.Sprintf("nesting depth %d exceeds %d", depth, MaxDepth),
			})
			*depthReported = true
		}
		return
	}
	switch t := v.(type) {
	case *document.Object:
		for _, m := range t.Members() {
			walkLimits(m.Value, p.Child(docpath.Key(m.Key)), depth+1, diags, depthReported)
		}
	case []any:
		if len(t) > MaxArrayLen {
			*diags = append(*diags, Diagnostic{
				Path:    p,
				Message: fmt.Sprintf("array has %d elements, more than %d", len(t), MaxArrayLen),
			})
		}
		for i, el := range t {
			walkLimits(el, p.Child(docpath.Index(i)), depth+1, diags, depthReported)
		}
	}
}
