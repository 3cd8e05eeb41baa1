package maps

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Get returns the value for the given dotted key, or nil when any part of the path is missing.
func Get(m interface{}, key string) interface{} {
	var obj interface{} = m
	var val interface{} = nil

	parts := strings.Split(key, ".")
	for _, p := range parts {
		if v, ok := obj.(map[string]interface{}); ok {
			obj = v[p]
			val = obj
		} else {
			return nil
		}
	}
	return val
}

// Decode takes an input structure and uses reflection to translate it to the output structure. output must be a pointer to a map or struct.
// Field names are matched against the `json` tag, strings are weakly converted (e.g. "true" to bool) and
// durations may be given as strings.
func Decode(in, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// Bool returns the boolean value stored under key.
// Strings such as "true" or "1" are accepted, a missing key returns false.
func Bool(m map[string]interface{}, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}
	var b bool
	if err := mapstructure.WeakDecode(v, &b); err != nil {
		return false, err
	}
	return b, nil
}
