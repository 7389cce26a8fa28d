package models

import (
	"encoding/json"
	"reflect"
	"strings"
)

// jsonNames lists the JSON keys of t's tagged fields.
func jsonNames(t reflect.Type) map[string]bool {
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name != "" && name != "-" {
			names[name] = true
		}
	}
	return names
}

// decodeWithExtra decodes the known keys of an object into dst and returns
// the rest. A known key in serverOwned that fails to decode is skipped, since
// the server overwrites it anyway.
func decodeWithExtra(data []byte, dst interface{}, known, serverOwned map[string]bool) (map[string]interface{}, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var extra map[string]interface{}
	for key, val := range raw {
		if !known[key] {
			var v interface{}
			if err := json.Unmarshal(val, &v); err != nil {
				return nil, err
			}
			if extra == nil {
				extra = make(map[string]interface{})
			}
			extra[key] = v
			continue
		}
		single, err := json.Marshal(map[string]json.RawMessage{key: val})
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(single, dst); err != nil && !serverOwned[key] {
			return nil, err
		}
	}
	return CleanExtra(extra), nil
}

// encodeWithExtra marshals base and adds every extra key base does not set.
func encodeWithExtra(base interface{}, extra map[string]interface{}) ([]byte, error) {
	b, err := json.Marshal(base)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for key, v := range extra {
		if _, taken := fields[key]; taken {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}

// ValidExtraKey rejects names Mongo would read as operators or paths.
func ValidExtraKey(key string) bool {
	return key != "" && !strings.HasPrefix(key, "$") && !strings.Contains(key, ".")
}

// CleanExtra drops keys that cannot be stored as top-level fields.
func CleanExtra(extra map[string]interface{}) map[string]interface{} {
	for key := range extra {
		if !ValidExtraKey(key) {
			delete(extra, key)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
