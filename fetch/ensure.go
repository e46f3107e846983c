package fetch

import (
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// EnsureRequest coerces any supported request description into
// RequestArguments:
//
//	*RequestArguments / RequestArguments  copied, method normalized
//	map[string]any                        decoded like a JSON object
//	"https://..."                         a bare URL, method "get"
//	"curl ..."                            a copied-as-curl command line
//	"{...}"                               a JSON-encoded request object
//
// The returned value never aliases the caller's mutable state.
func EnsureRequest(req any) (*RequestArguments, error) {
	switch v := req.(type) {
	case *RequestArguments:
		if v == nil {
			return nil, fmt.Errorf("fetch: nil request")
		}
		return normalize(v.Clone()), nil
	case RequestArguments:
		return normalize(v.Clone()), nil
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("fetch: encode request map: %w", err)
		}
		var args RequestArguments
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("fetch: decode request map: %w", err)
		}
		return normalize(&args), nil
	case []byte:
		return ensureString(string(v))
	case string:
		return ensureString(v)
	}
	return nil, fmt.Errorf("fetch: unsupported request type %T", req)
}

func ensureString(s string) (*RequestArguments, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("fetch: empty request")
	case strings.HasPrefix(s, "curl "):
		return ParseCurl(s)
	case strings.HasPrefix(s, "{"):
		var args RequestArguments
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return nil, fmt.Errorf("fetch: decode request json: %w", err)
		}
		return normalize(&args), nil
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return &RequestArguments{URL: s, Method: "get"}, nil
	}
	return nil, fmt.Errorf("fetch: request %q is neither a url, a curl command nor json", s)
}

func normalize(args *RequestArguments) *RequestArguments {
	if args.Method == "" {
		args.Method = "get"
	} else {
		args.Method = strings.ToLower(args.Method)
	}
	return args
}

// HostOf returns the host part of an absolute http(s) URL, or "" for
// anything else.
func HostOf(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
