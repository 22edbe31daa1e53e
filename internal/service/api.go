// Package service groups the backend operations by domain area. Every call is
// a pass-through: build the path, query and body, delegate to the API client
// and hand back its result or error unchanged.
package service

import (
	"context"
	"net/url"
	"strconv"

	"ledgerdesk/internal/apiclient"
)

// API is the part of the HTTP client the services depend on.
type API interface {
	Do(ctx context.Context, r *apiclient.Request) (*apiclient.Response, error)
	Get(ctx context.Context, path string, query url.Values, dst any) error
	Post(ctx context.Context, path string, body, dst any) error
	Put(ctx context.Context, path string, body, dst any) error
	Delete(ctx context.Context, path string) error
}

var _ API = (*apiclient.Client)(nil)

// Params is a free-form filter bag (search, type, date range, limit...) sent
// verbatim as query parameters.
type Params map[string]string

// Values converts p to url.Values; empty values are kept.
func (p Params) Values() url.Values {
	if len(p) == 0 {
		return nil
	}
	v := make(url.Values, len(p))
	for key, value := range p {
		v.Set(key, value)
	}
	return v
}

func itemPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10)
}
