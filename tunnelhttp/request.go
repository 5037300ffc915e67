// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultRequestTimeout bounds a single request when [Request.Timeout] is zero.
const DefaultRequestTimeout = 60 * time.Second

// Request describes one HTTP call. It is immutable once built and may be
// issued any number of times.
type Request struct {
	Method  string
	URL     *url.URL
	Header  http.Header
	Body    []byte
	Timeout time.Duration
}

// NewRequest builds a request descriptor. Only http and https URLs are
// accepted.
func NewRequest(method, rawURL string, header http.Header, body []byte) (Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Request{}, fmt.Errorf("tunnelhttp: parse url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return Request{}, fmt.Errorf("tunnelhttp: unsupported url scheme %q", u.Scheme)
	}
	if method == "" {
		method = http.MethodGet
	}
	return Request{
		Method:  method,
		URL:     u,
		Header:  header.Clone(),
		Body:    append([]byte(nil), body...),
		Timeout: DefaultRequestTimeout,
	}, nil
}

// NewJSONRequest builds a request carrying a JSON body. metadata, when not
// empty, is sent in the X-Verifier-Metadata header.
func NewJSONRequest(method, rawURL string, body []byte, metadata string) (Request, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if metadata != "" {
		header.Set("X-Verifier-Metadata", metadata)
	}
	return NewRequest(method, rawURL, header, body)
}

func (r Request) String() string {
	return r.Method + " " + r.URL.Redacted()
}
