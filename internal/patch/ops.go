package patch

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyOps applies an RFC 6902 patch document to serialized text and
// returns the patched text. Member order in untouched objects is
// preserved. The result is not canonical; callers re-parse and
// re-serialize it.
func ApplyOps(text, ops []byte) ([]byte, error) {
	decoded, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	out, err := decoded.Apply(text)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}

// MergeText applies an RFC 7386 merge patch to serialized text.
func MergeText(text, mergeDoc []byte) ([]byte, error) {
	out, err := jsonpatch.MergePatch(text, mergeDoc)
	if err != nil {
		return nil, fmt.Errorf("merge patch: %w", err)
	}
	return out, nil
}
