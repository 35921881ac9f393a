package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// FromYAML builds a document value from YAML text. Mapping order is
// preserved via goccy's ordered decoding and numbers are normalized to
// json.Number so the result serializes like any parsed document.
func FromYAML(data []byte) (any, error) {
	var root any
	if err := yaml.UnmarshalWithOptions(data, &root, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return fromYAMLValue(root)
}

func fromYAMLValue(v any) (any, error) {
	switch t := v.(type) {
	case yaml.MapSlice:
		obj := NewObject()
		for _, item := range t {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}
			val, err := fromYAMLValue(item.Value)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		return obj, nil
	case []any:
		arr := make([]any, len(t))
		for i, el := range t {
			val, err := fromYAMLValue(el)
			if err != nil {
				return nil, err
			}
			arr[i] = val
		}
		return arr, nil
	case string:
		return t, nil
	case bool:
		return t, nil
	case nil:
		return nil, nil
	case int:
		return json.Number(strconv.Itoa(t)), nil
	case int64:
		return json.Number(strconv.FormatInt(t, 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(t, 10)), nil
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	default:
		return nil, fmt.Errorf("unsupported yaml value of type %T", v)
	}
}
