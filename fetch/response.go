package fetch

import "net/http"

// Response is the downloader result handed to rule evaluation.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status.
	StatusCode int

	// Headers are the response headers.
	Headers http.Header

	// Body is the raw response body.
	Body []byte

	// Text is the body decoded to UTF-8 using Encoding.
	Text string

	// Encoding is the charset the body was decoded with.
	Encoding string
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
