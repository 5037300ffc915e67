// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"code.hybscloud.com/store/tunnelhttp"
)

func TestNewRequestRejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{"ftp://example.com/x", "file:///etc/passwd", "example.com"} {
		_, err := tunnelhttp.NewRequest(http.MethodGet, raw, nil, nil)
		assert.Error(t, err, raw)
	}
	req, err := tunnelhttp.NewRequest("", "https://example.com/verify", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, tunnelhttp.DefaultRequestTimeout, req.Timeout)
}

func TestNewJSONRequest(t *testing.T) {
	req, err := tunnelhttp.NewJSONRequest(http.MethodPost, "https://example.com/verify", []byte(`{"a":1}`), "meta")
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "meta", req.Header.Get("X-Verifier-Metadata"))
	assert.Equal(t, "POST https://example.com/verify", req.String())
}

func TestExecuteSuccess(t *testing.T) {
	var gotID, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(tunnelhttp.RequestIDHeader)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	client := tunnelhttp.NewClient(srv.Client(), tunnelhttp.WithClientClock(clocktesting.NewFakePassiveClock(now)))
	req, err := tunnelhttp.NewJSONRequest(http.MethodPost, srv.URL+"/items", []byte(`{"n":1}`), "")
	require.NoError(t, err)

	sr := client.Execute(context.Background(), req)
	assert.Equal(t, now, sr.Date)
	data, ok := sr.Result.GetRight()
	require.True(t, ok, "want success, got %v", sr.Result)
	assert.Equal(t, http.StatusCreated, data.Metadata.StatusCode)
	assert.Equal(t, "yes", data.Metadata.Header.Get("X-Test"))
	assert.Equal(t, srv.URL+"/items", data.Metadata.URL)
	assert.Equal(t, "created", string(data.Data))
	assert.Equal(t, `{"n":1}`, gotBody)
	_, err = uuid.Parse(gotID)
	assert.NoError(t, err, "request id %q", gotID)
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (failingBody) Close() error             { return nil }

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestExecutePreservesPartialMetadata(t *testing.T) {
	client := tunnelhttp.NewClient(doerFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Date": []string{"today"}},
			Body:       failingBody{},
			Request:    r,
		}, nil
	}))
	req, err := tunnelhttp.NewRequest(http.MethodGet, "https://example.com/a", nil, nil)
	require.NoError(t, err)

	sr := client.Execute(context.Background(), req)
	reqErr, ok := sr.Result.GetLeft()
	require.True(t, ok)
	require.NotNil(t, reqErr.PartialResponseMetadata)
	want := tunnelhttp.ResponseMetadata{
		URL:        "https://example.com/a",
		Header:     http.Header{"Date": []string{"today"}},
		StatusCode: http.StatusOK,
	}
	if diff := cmp.Diff(want, *reqErr.PartialResponseMetadata); diff != "" {
		t.Fatalf("partial metadata mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, reqErr.Error(), "connection reset")
}

func TestExecuteTransportFailure(t *testing.T) {
	client := tunnelhttp.NewClient(doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, &url.Error{Op: "Get", URL: "https://example.com", Err: errors.New("no route")}
	}))
	req, err := tunnelhttp.NewRequest(http.MethodGet, "https://example.com", nil, nil)
	require.NoError(t, err)

	sr := client.Execute(context.Background(), req)
	reqErr, ok := sr.Result.GetLeft()
	require.True(t, ok)
	assert.Nil(t, reqErr.PartialResponseMetadata)
	var ue *url.Error
	assert.True(t, errors.As(reqErr, &ue))
}

func TestStatusHandlerClassification(t *testing.T) {
	handler := tunnelhttp.JSON[payload]()
	ok := func(code int, body string) tunnelhttp.SessionResult {
		return tunnelhttp.SessionResult{Result: rightData(code, body)}
	}

	cases := []struct {
		name  string
		in    tunnelhttp.SessionResult
		kind  tunnelhttp.ResponseErrorKind
		fails bool
		retry bool
	}{
		{name: "ok", in: ok(200, `{"ok":true}`)},
		{name: "malformed", in: ok(200, `{`), kind: tunnelhttp.MalformedBody, fails: true, retry: true},
		{name: "bad request", in: ok(400, ``), kind: tunnelhttp.OtherErrorStatusCode, fails: true},
		{name: "not found", in: ok(404, ``), kind: tunnelhttp.OtherErrorStatusCode, fails: true},
		{name: "internal", in: ok(500, ``), kind: tunnelhttp.OtherErrorStatusCode, fails: true, retry: true},
		{name: "unavailable", in: ok(503, ``), kind: tunnelhttp.OtherErrorStatusCode, fails: true, retry: true},
		{name: "transport", in: tunnelhttp.SessionResult{Result: leftError("reset")}, kind: tunnelhttp.FailedRequest, fails: true, retry: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := handler.Decode(tc.in)
			assert.Equal(t, tc.fails, res.IsLeft())
			if e, isErr := res.GetLeft(); isErr {
				assert.Equal(t, tc.kind, e.Err.Kind)
			}
			_, retry := handler.NeedsRetry(res)
			assert.Equal(t, tc.retry, retry)
		})
	}
}

func TestRawHandler(t *testing.T) {
	res := tunnelhttp.Raw().Decode(tunnelhttp.SessionResult{Result: rightData(200, "plain")})
	v, ok := res.GetRight()
	require.True(t, ok)
	assert.Equal(t, "plain", string(v))
}

func TestResponseErrorMessages(t *testing.T) {
	assert.True(t, strings.Contains(
		tunnelhttp.ResponseError{Kind: tunnelhttp.OtherErrorStatusCode, StatusCode: 500}.Error(),
		"Internal Server Error"))
	assert.Equal(t, "tunnelNotConnected", tunnelhttp.TunnelNotConnected.Error())
}
