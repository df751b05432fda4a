package testutils

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mcuadros/go-defaults"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// PresencePlaceholder in expected JSON matches any actual value for that key.
const PresencePlaceholder = "<<PRESENCE>>"

// MustJSON marshals v or panics.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

type JSONAssertOptions struct {
	IgnoreExtraKeys          bool `default:"false"`
	NilToEmptyArray          bool `default:"true"`
	AllowPresencePlaceholder bool `default:"true"`
	IgnoreArrayOrder         bool `default:"false"`
}

// Option configures a JSONAsserter
type Option func(*JSONAssertOptions)

// JSONAsserter compares JSON documents structurally and reports a readable diff.
type JSONAsserter struct {
	t       TestingT
	options JSONAssertOptions
}

func NewJSONAsserter(t TestingT) *JSONAsserter {
	opts := JSONAssertOptions{}
	defaults.SetDefaults(&opts)
	return &JSONAsserter{t: t, options: opts}
}

func (ja *JSONAsserter) WithOptions(opts ...Option) *JSONAsserter {
	for _, opt := range opts {
		opt(&ja.options)
	}
	return ja
}

// Assert fails the test when actualJSON differs from expectedJSON.
func (ja *JSONAsserter) Assert(actualJSON, expectedJSON string) {
	if diff := ja.diff(actualJSON, expectedJSON); diff != "" {
		ja.t.Errorf("JSON assertion failed:\n%s", diff)
	}
}

// AssertValue marshals v and compares it against expectedJSON.
func (ja *JSONAsserter) AssertValue(v any, expectedJSON string) {
	ja.Assert(MustJSON(v), expectedJSON)
}

func (ja *JSONAsserter) diff(actualJSON, expectedJSON string) string {
	var expected, actual any
	if err := json.Unmarshal([]byte(expectedJSON), &expected); err != nil {
		return fmt.Sprintf("invalid expected JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(actualJSON), &actual); err != nil {
		return fmt.Sprintf("invalid actual JSON: %v", err)
	}

	// gojsondiff compares objects only
	expected = map[string]any{"root": expected}
	actual = map[string]any{"root": actual}

	if ja.options.AllowPresencePlaceholder {
		fillPlaceholders(expected, actual)
	}
	if ja.options.NilToEmptyArray {
		emptyNilArrays(expected, actual)
	}
	if ja.options.IgnoreArrayOrder {
		sortArrays(expected)
		sortArrays(actual)
	}
	if ja.options.IgnoreExtraKeys {
		dropExtraKeys(actual, expected)
	}

	expectedBytes, _ := json.Marshal(expected)
	actualBytes, _ := json.Marshal(actual)

	d, err := gojsondiff.New().Compare(expectedBytes, actualBytes)
	if err != nil {
		return fmt.Sprintf("JSON comparison failed: %v", err)
	}
	if !d.Modified() {
		return ""
	}

	f := formatter.NewAsciiFormatter(expected, formatter.AsciiFormatterConfig{ShowArrayIndex: true})
	out, _ := f.Format(d)
	return out
}

// walkPairs calls fn for every expected/actual value pair at the same path.
func walkPairs(expected, actual any, fn func(exp map[string]any, act map[string]any, key string)) {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return
		}
		for k := range exp {
			fn(exp, act, k)
			walkPairs(exp[k], act[k], fn)
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return
		}
		for i := range exp {
			if i < len(act) {
				walkPairs(exp[i], act[i], fn)
			}
		}
	}
}

func fillPlaceholders(expected, actual any) {
	walkPairs(expected, actual, func(exp, act map[string]any, k string) {
		if s, ok := exp[k].(string); ok && s == PresencePlaceholder {
			if v, present := act[k]; present {
				exp[k] = v
			}
		}
	})
}

// emptyNilArrays treats null and [] as equal.
func emptyNilArrays(expected, actual any) {
	isEmpty := func(v any) bool {
		arr, ok := v.([]any)
		return ok && len(arr) == 0
	}
	walkPairs(expected, actual, func(exp, act map[string]any, k string) {
		e, a := exp[k], act[k]
		if (e == nil && isEmpty(a)) || (a == nil && isEmpty(e)) {
			exp[k] = []any{}
			act[k] = []any{}
		}
	})
}

func dropExtraKeys(actual, expected any) {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return
		}
		for k := range act {
			if _, ok := exp[k]; !ok {
				delete(act, k)
			}
		}
		for k := range exp {
			dropExtraKeys(act[k], exp[k])
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return
		}
		for i := range exp {
			if i < len(act) {
				dropExtraKeys(act[i], exp[i])
			}
		}
	}
}

func sortArrays(data any) {
	switch v := data.(type) {
	case map[string]any:
		for k := range v {
			sortArrays(v[k])
		}
	case []any:
		for _, elem := range v {
			sortArrays(elem)
		}
		sort.SliceStable(v, func(i, j int) bool {
			a, _ := json.Marshal(v[i])
			b, _ := json.Marshal(v[j])
			return string(a) < string(b)
		})
	}
}

func WithIgnoreExtraKeys(ignore bool) Option {
	return func(opts *JSONAssertOptions) { opts.IgnoreExtraKeys = ignore }
}

func WithNilToEmptyArray(normalize bool) Option {
	return func(opts *JSONAssertOptions) { opts.NilToEmptyArray = normalize }
}

func WithAllowPresencePlaceholder(allow bool) Option {
	return func(opts *JSONAssertOptions) { opts.AllowPresencePlaceholder = allow }
}

func WithIgnoreArrayOrder(ignore bool) Option {
	return func(opts *JSONAssertOptions) { opts.IgnoreArrayOrder = ignore }
}
