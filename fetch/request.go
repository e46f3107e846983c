// Package fetch turns request descriptions into HTTP calls. It covers the
// downloader side of rule evaluation: coercing URLs, curl commands, JSON
// objects or maps into RequestArguments, fetching them with charset-aware
// decoding, and exposing the Downloader seam custom transports plug into.
package fetch

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// RequestArguments carries the HTTP call parameters of a crawler rule. The
// rule engine treats it as opaque and hands it to a Downloader verbatim.
// Known fields cover the common parameters; Extra round-trips any key this
// library does not interpret, so rules written for other downloaders keep
// their settings.
type RequestArguments struct {
	// URL is the absolute request URL.
	URL string

	// Method is the lowercase HTTP method; empty means "get".
	Method string

	// Headers are sent after the downloader's defaults.
	Headers map[string]string

	// Data is the raw request body.
	Data string

	// Auth is "user:password" for basic auth.
	Auth string

	// Proxy is a proxy URL applied to this request only.
	Proxy string

	// Timeout is the per-request deadline in seconds; 0 uses the
	// downloader default.
	Timeout float64

	// Retry is carried for external downloaders. The bundled downloader
	// does not retry.
	Retry int

	// Encoding overrides response charset detection.
	Encoding string

	// Extra holds unrecognized keys from deserialized rules.
	Extra map[string]any
}

// Clone returns a copy sharing no mutable state with r.
func (r *RequestArguments) Clone() *RequestArguments {
	cp := *r
	if r.Headers != nil {
		cp.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			cp.Headers[k] = v
		}
	}
	if r.Extra != nil {
		cp.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}

// Merge overlays override onto base and returns the result. Override's
// non-zero fields win; headers and extras merge key-wise. Either argument
// may be nil.
func Merge(base, override *RequestArguments) *RequestArguments {
	switch {
	case base == nil && override == nil:
		return &RequestArguments{}
	case base == nil:
		return override.Clone()
	case override == nil:
		return base.Clone()
	}
	out := base.Clone()
	if override.URL != "" {
		out.URL = override.URL
	}
	if override.Method != "" {
		out.Method = override.Method
	}
	for k, v := range override.Headers {
		if out.Headers == nil {
			out.Headers = make(map[string]string)
		}
		out.Headers[k] = v
	}
	if override.Data != "" {
		out.Data = override.Data
	}
	if override.Auth != "" {
		out.Auth = override.Auth
	}
	if override.Proxy != "" {
		out.Proxy = override.Proxy
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	if override.Retry != 0 {
		out.Retry = override.Retry
	}
	if override.Encoding != "" {
		out.Encoding = override.Encoding
	}
	for k, v := range override.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[k] = v
	}
	return out
}

// MarshalJSON emits known fields in a fixed order, empty fields omitted,
// followed by extra keys sorted, so serialized rules are byte-stable.
func (r RequestArguments) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	first := true
	put := func(key string, v any) error {
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		keyEnc, err := json.Marshal(key)
		if err != nil {
			return err
		}
		b.Write(keyEnc)
		b.WriteByte(':')
		b.Write(enc)
		return nil
	}

	if r.URL != "" {
		if err := put("url", r.URL); err != nil {
			return nil, err
		}
	}
	if r.Method != "" {
		if err := put("method", r.Method); err != nil {
			return nil, err
		}
	}
	if len(r.Headers) > 0 {
		if err := put("headers", r.Headers); err != nil {
			return nil, err
		}
	}
	if r.Data != "" {
		if err := put("data", r.Data); err != nil {
			return nil, err
		}
	}
	if r.Auth != "" {
		if err := put("auth", r.Auth); err != nil {
			return nil, err
		}
	}
	if r.Proxy != "" {
		if err := put("proxy", r.Proxy); err != nil {
			return nil, err
		}
	}
	if r.Timeout != 0 {
		if err := put("timeout", r.Timeout); err != nil {
			return nil, err
		}
	}
	if r.Retry != 0 {
		if err := put("retry", r.Retry); err != nil {
			return nil, err
		}
	}
	if r.Encoding != "" {
		if err := put("encoding", r.Encoding); err != nil {
			return nil, err
		}
	}
	if len(r.Extra) > 0 {
		keys := make([]string, 0, len(r.Extra))
		for k := range r.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := put(k, r.Extra[k]); err != nil {
				return nil, err
			}
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON accepts any JSON object, keeping unknown keys in Extra.
func (r *RequestArguments) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = RequestArguments{}
	for k, v := range m {
		switch k {
		case "url":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("fetch: url must be a string, got %T", v)
			}
			r.URL = s
		case "method":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("fetch: method must be a string, got %T", v)
			}
			r.Method = s
		case "headers":
			hm, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("fetch: headers must be an object, got %T", v)
			}
			r.Headers = make(map[string]string, len(hm))
			for hk, hv := range hm {
				hs, ok := hv.(string)
				if !ok {
					return fmt.Errorf("fetch: header %q must be a string, got %T", hk, hv)
				}
				r.Headers[hk] = hs
			}
		case "data":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("fetch: data must be a string, got %T", v)
			}
			r.Data = s
		case "auth":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("fetch: auth must be a string, got %T", v)
			}
			r.Auth = s
		case "proxy":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("fetch: proxy must be a string, got %T", v)
			}
			r.Proxy = s
		case "timeout":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("fetch: timeout must be a number, got %T", v)
			}
			r.Timeout = f
		case "retry":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("fetch: retry must be a number, got %T", v)
			}
			r.Retry = int(f)
		case "encoding":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("fetch: encoding must be a string, got %T", v)
			}
			r.Encoding = s
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]any)
			}
			r.Extra[k] = v
		}
	}
	return nil
}
