package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/oj"
)

// ParseError describes a syntax error in document text. Offset is the byte
// position the decoder had reached, 0 when the validator rejected the text
// before decoding (its message carries line and column instead).
type ParseError struct {
	Offset int64
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("parse error at byte %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("parse error: %s", e.Msg)
}

// Parse decodes strict JSON into the document model. The text is first
// gated through ojg's validator, which rejects bare words, trailing
// garbage, and other lenient-parser leniencies with positional messages.
// Objects keep their member order; duplicate keys keep the first key's
// position and the last key's value; numbers keep their source literal.
func Parse(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Msg: "empty input"}
	}
	if err := oj.Validate(data); err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, &ParseError{Offset: dec.InputOffset(), Msg: err.Error()}
	}
	if dec.More() {
		return nil, &ParseError{Offset: dec.InputOffset(), Msg: "trailing data after document"}
	}
	return v, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (any, error) {
	return Parse([]byte(s))
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				el, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, el)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return t, nil
	case json.Number:
		return t, nil
	case bool:
		return t, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
