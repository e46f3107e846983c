package fetch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// ParseCurl converts a browser "copy as cURL" command line into
// RequestArguments. Understood flags:
//
//	-X/--request, -H/--header, -d/--data/--data-raw/--data-binary,
//	-u/--user, -A/--user-agent, -e/--referer, -b/--cookie, -x/--proxy,
//	--connect-timeout, -I/--head, --compressed
//
// Unknown flags are skipped. The first bare token is the URL.
func ParseCurl(cmd string) (*RequestArguments, error) {
	tokens, err := shlex.Split(cmd)
	if err != nil {
		return nil, fmt.Errorf("fetch: tokenize curl command: %w", err)
	}
	if len(tokens) == 0 || tokens[0] != "curl" {
		return nil, fmt.Errorf("fetch: not a curl command")
	}

	args := &RequestArguments{Method: "get"}
	setHeader := func(key, val string) {
		if args.Headers == nil {
			args.Headers = make(map[string]string)
		}
		args.Headers[key] = val
	}
	next := func(i int, flag string) (string, error) {
		if i+1 >= len(tokens) {
			return "", fmt.Errorf("fetch: curl flag %s missing its argument", flag)
		}
		return tokens[i+1], nil
	}

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "-X", "--request":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			args.Method = strings.ToLower(v)
			i++
		case "-H", "--header":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			key, val, found := strings.Cut(v, ":")
			if !found {
				return nil, fmt.Errorf("fetch: malformed curl header %q", v)
			}
			setHeader(strings.TrimSpace(key), strings.TrimSpace(val))
			i++
		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			args.Data = v
			if args.Method == "get" {
				args.Method = "post"
			}
			i++
		case "-u", "--user":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			args.Auth = v
			i++
		case "-A", "--user-agent":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			setHeader("User-Agent", v)
			i++
		case "-e", "--referer":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			setHeader("Referer", v)
			i++
		case "-b", "--cookie":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			setHeader("Cookie", v)
			i++
		case "-x", "--proxy":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			args.Proxy = v
			i++
		case "--connect-timeout":
			v, err := next(i, tok)
			if err != nil {
				return nil, err
			}
			secs, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("fetch: curl timeout %q: %w", v, err)
			}
			args.Timeout = secs
			i++
		case "-I", "--head":
			args.Method = "head"
		case "--compressed", "-s", "--silent", "-L", "--location", "-k", "--insecure", "-G", "--get":
			// Transport-level flags the bundled downloader covers itself.
		default:
			if strings.HasPrefix(tok, "-") {
				continue
			}
			if args.URL == "" {
				args.URL = tok
			}
		}
	}

	if args.URL == "" {
		return nil, fmt.Errorf("fetch: curl command has no url")
	}
	return args, nil
}
