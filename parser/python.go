package parser

import (
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// PythonCapability bundles general-purpose value helpers addressed by
// param:
//
//	getitem  index, key or [start:stop:step] slice (value, e.g. "[1:3]")
//	index    same as getitem without the bracket form
//	split    split string input around value, whitespace runs when empty
//	join     join list elements with value
//	chain    flatten nested lists by one level
//	const    replace the input with value when value is non-empty
//	template substitute $key placeholders in value from map input;
//	         $input_object is the whole input
//	sort     sort a list of strings or numbers, value "desc" reverses
//	strip    trim value's characters from both ends, whitespace when empty
//	default  replace nil, empty-string or empty-collection input with value
//	base64   encode string input, or decode when value is "decode"
//
// The parser name stays "python" so rule files written against earlier
// releases keep working.
type PythonCapability struct{}

// NewPythonCapability returns the python helper capability.
func NewPythonCapability() *PythonCapability {
	return &PythonCapability{}
}

func (p *PythonCapability) Name() string { return "python" }

// AcceptsList is true: the helpers operate on whole lists.
func (p *PythonCapability) AcceptsList() bool { return true }

func (p *PythonCapability) Evaluate(input any, param string, value any) (any, error) {
	switch param {
	case "getitem", "index":
		vs, err := stringValue("python", value)
		if err != nil {
			return nil, err
		}
		return pyGetItem(input, vs)
	case "split":
		s, err := inputText("python", input)
		if err != nil {
			return nil, err
		}
		vs, err := stringValue("python", value)
		if err != nil {
			return nil, err
		}
		return pySplit(s, vs), nil
	case "join":
		vs, err := stringValue("python", value)
		if err != nil {
			return nil, err
		}
		if !IsList(input) {
			return nil, fmt.Errorf("python: join expects list input, got %T", input)
		}
		items := ToList(input)
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = pyString(it)
		}
		return strings.Join(parts, vs), nil
	case "chain":
		if !IsList(input) {
			return nil, fmt.Errorf("python: chain expects list input, got %T", input)
		}
		out := make([]any, 0, len(ToList(input)))
		for _, el := range ToList(input) {
			if IsList(el) {
				out = append(out, ToList(el)...)
			} else {
				out = append(out, el)
			}
		}
		return out, nil
	case "const":
		if value != nil && value != "" {
			return value, nil
		}
		return input, nil
	case "template":
		vs, err := stringValue("python", value)
		if err != nil {
			return nil, err
		}
		return pyTemplate(input, vs), nil
	case "sort":
		if !IsList(input) {
			return nil, fmt.Errorf("python: sort expects list input, got %T", input)
		}
		vs, _ := value.(string)
		desc := strings.EqualFold(vs, "desc") || strings.EqualFold(vs, "true")
		return pySort(ToList(input), desc)
	case "strip":
		s, err := inputText("python", input)
		if err != nil {
			return nil, err
		}
		vs, err := stringValue("python", value)
		if err != nil {
			return nil, err
		}
		if vs == "" {
			return strings.TrimSpace(s), nil
		}
		return strings.Trim(s, vs), nil
	case "default":
		return pyDefault(input, value), nil
	case "base64":
		s, err := inputText("python", input)
		if err != nil {
			return nil, err
		}
		if vs, _ := value.(string); vs == "decode" {
			decoded, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("python: base64 decode: %w", err)
			}
			return string(decoded), nil
		}
		return base64.StdEncoding.EncodeToString([]byte(s)), nil
	}
	return nil, fmt.Errorf("python: unknown helper %q", param)
}

func pySplit(s, sep string) []any {
	var parts []string
	if sep == "" {
		parts = strings.Fields(s)
	} else {
		parts = strings.Split(s, sep)
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

// pyGetItem indexes, keys or slices the input. Accepts "2", "-1", "[1:3]",
// "[::2]", "key". Negative indices count from the end.
func pyGetItem(input any, spec string) (any, error) {
	spec = strings.TrimSpace(spec)
	spec = strings.TrimPrefix(spec, "[")
	spec = strings.TrimSuffix(spec, "]")

	if strings.Contains(spec, ":") {
		return pySliceSpec(input, spec)
	}

	if idx, err := strconv.Atoi(spec); err == nil {
		switch {
		case IsList(input):
			list := ToList(input)
			i, err := normalizeIndex(idx, len(list))
			if err != nil {
				return nil, err
			}
			return list[i], nil
		default:
			s, err := inputText("python", input)
			if err != nil {
				return nil, fmt.Errorf("python: getitem with index %d needs list or string input, got %T", idx, input)
			}
			runes := []rune(s)
			i, err := normalizeIndex(idx, len(runes))
			if err != nil {
				return nil, err
			}
			return string(runes[i]), nil
		}
	}

	if m, ok := input.(map[string]any); ok {
		v, ok := m[spec]
		if !ok {
			return nil, fmt.Errorf("python: getitem key %q not found", spec)
		}
		return v, nil
	}
	return nil, fmt.Errorf("python: getitem key %q needs map input, got %T", spec, input)
}

func normalizeIndex(idx, n int) (int, error) {
	i := idx
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("python: index %d out of range for length %d", idx, n)
	}
	return i, nil
}

// pySliceSpec applies a start:stop:step slice to list or string input.
func pySliceSpec(input any, spec string) (any, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return nil, fmt.Errorf("python: invalid slice %q", spec)
	}
	bounds := make([]*int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("python: invalid slice bound %q", p)
		}
		bounds[i] = &n
	}

	if IsList(input) {
		return pySlice(ToList(input), bounds[0], bounds[1], bounds[2])
	}
	s, err := inputText("python", input)
	if err != nil {
		return nil, fmt.Errorf("python: slice needs list or string input, got %T", input)
	}
	runes := []rune(s)
	items := make([]any, len(runes))
	for i, r := range runes {
		items[i] = string(r)
	}
	sliced, err := pySlice(items, bounds[0], bounds[1], bounds[2])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, it := range sliced {
		b.WriteString(it.(string))
	}
	return b.String(), nil
}

// pySlice follows extended-slice rules: negative bounds count from the end,
// out-of-range bounds clamp, a negative step walks backwards.
func pySlice(list []any, startP, stopP, stepP *int) ([]any, error) {
	n := len(list)
	step := 1
	if stepP != nil {
		step = *stepP
	}
	if step == 0 {
		return nil, fmt.Errorf("python: slice step cannot be zero")
	}

	if step > 0 {
		start, stop := 0, n
		if startP != nil {
			start = clampSliceBound(*startP, n, false)
		}
		if stopP != nil {
			stop = clampSliceBound(*stopP, n, false)
		}
		out := make([]any, 0)
		for i := start; i < stop; i += step {
			out = append(out, list[i])
		}
		return out, nil
	}

	start, stop := n-1, -1
	if startP != nil {
		start = clampSliceBound(*startP, n, true)
	}
	if stopP != nil {
		stop = clampSliceBound(*stopP, n, true)
	}
	out := make([]any, 0)
	for i := start; i > stop; i += step {
		out = append(out, list[i])
	}
	return out, nil
}

func clampSliceBound(i, n int, backwards bool) int {
	if i < 0 {
		i += n
	}
	if backwards {
		if i < -1 {
			i = -1
		}
		if i > n-1 {
			i = n - 1
		}
		return i
	}
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

// pyTemplate substitutes $key / ${key} placeholders in tmpl. Map input
// supplies the keys; $input_object is the whole input; unknown placeholders
// stay in place; $$ is a literal dollar.
func pyTemplate(input any, tmpl string) string {
	return os.Expand(tmpl, func(k string) string {
		switch {
		case k == "$":
			return "$"
		case k == "input_object":
			return pyString(input)
		}
		if m, ok := input.(map[string]any); ok {
			if v, ok := m[k]; ok {
				return pyString(v)
			}
		}
		return "$" + k
	})
}

func pySort(list []any, desc bool) ([]any, error) {
	out := make([]any, len(list))
	copy(out, list)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		c, err := compareValues(out[i], out[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func compareValues(a, b any) (int, error) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("python: cannot compare string with %T", b)
		}
		return strings.Compare(as, bs), nil
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if !aok || !bok {
		return 0, fmt.Errorf("python: cannot compare %T with %T", a, b)
	}
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	}
	return 0, nil
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func pyDefault(input any, value any) any {
	switch v := input.(type) {
	case nil:
		return value
	case string:
		if v == "" {
			return value
		}
	default:
		if IsList(input) && len(ToList(input)) == 0 {
			return value
		}
		if m, ok := input.(map[string]any); ok && len(m) == 0 {
			return value
		}
	}
	return input
}

// pyString renders any value the way the helpers join and template expect:
// strings as-is, everything else via Sprint.
func pyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
