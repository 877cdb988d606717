package core

import (
	"encoding/json"
	"sort"
)

// Identity is the caller's data as returned by the identity endpoint,
// kept as top-level fields with their raw values.
type Identity map[string]json.RawMessage

// DecodeIdentity decodes an identity payload. Empty and null payloads
// decode to an empty Identity.
func DecodeIdentity(raw json.RawMessage) (Identity, error) {
	id := Identity{}
	if isEmpty(raw) {
		return id, nil
	}
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	return id, nil
}

// Keys returns the field names in sorted order.
func (id Identity) Keys() []string {
	keys := make([]string, 0, len(id))
	for k := range id {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a string field, or "" if it is missing or not a string.
func (id Identity) String(key string) string {
	var s string
	if err := json.Unmarshal(id[key], &s); err != nil {
		return ""
	}
	return s
}
