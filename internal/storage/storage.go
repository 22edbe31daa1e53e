package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// ErrNoBucket is returned when an archive is built without a bucket.
var ErrNoBucket = errors.New("storage bucket is required")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Archive keeps report snapshots in remote object storage.
type Archive interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ReportKey names a report snapshot as
// <prefix>/<report>/<k=v,...>/<UTC timestamp>.json with params sorted by key.
func ReportKey(prefix, report string, params map[string]string, now time.Time) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(params[k]); v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	scope := strings.Join(parts, ",")
	if scope == "" {
		scope = "all"
	}

	name := fmt.Sprintf("%s.json", now.UTC().Format("20060102T150405Z"))
	return path.Join(strings.Trim(prefix, "/"), report, scope, name)
}
