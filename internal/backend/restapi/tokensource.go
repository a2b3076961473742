package restapi

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"taskctl/internal/service"
	"taskctl/internal/storage"
)

// sessionTransport authorizes each request with the stored bearer token.
// A fresh oauth2.Transport per request binds the token read to the request's
// context, so cancelling a call also abandons a blocked store read.
type sessionTransport struct {
	store storage.Store
	base  http.RoundTripper
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := &oauth2.Transport{
		Source: &storeTokenSource{ctx: req.Context(), store: t.store},
		Base:   t.base,
	}
	return rt.RoundTrip(req)
}

// storeTokenSource reads the bearer token from durable storage on every call.
// There is no ReuseTokenSource in front of it, so a login or logout takes
// effect on the very next request.
type storeTokenSource struct {
	ctx   context.Context
	store storage.Store
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	token, ok, err := s.store.Get(s.ctx, storage.KeyToken)
	if err != nil {
		return nil, &tokenReadError{err: err}
	}
	if !ok || token == "" {
		return nil, service.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

type tokenReadError struct {
	err error
}

func (e *tokenReadError) Error() string {
	return fmt.Sprintf("read session token: %v", e.err)
}

func (e *tokenReadError) Unwrap() error { return e.err }
