package client

import (
	"net/http"

	"github.com/philcifone/blog/internal/client/session"
	"github.com/philcifone/blog/internal/common"
)

// authTransport is the only place that knows about the bearer token: it
// attaches it on the way out and drops it when the server rejects it.
type authTransport struct {
	base           http.RoundTripper
	session        *session.Session
	onUnauthorized func()
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.session.Token(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = t.session.Clear()
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
	}
	return resp, nil
}
