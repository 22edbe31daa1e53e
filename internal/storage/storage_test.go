package storage

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKey(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 30, 5, 0, time.FixedZone("CET", 3600))

	key := ReportKey("/reports/", "income-statement", map[string]string{
		"start_date": "2024-01-01",
		"end_date":   "2024-01-31",
	}, now)
	assert.Equal(t, "reports/income-statement/end_date=2024-01-31,start_date=2024-01-01/20240201T083005Z.json", key)

	key = ReportKey("", "trial-balance", map[string]string{"as_of_date": " "}, now)
	assert.Equal(t, "trial-balance/all/20240201T083005Z.json", key)
}

func TestNewS3ArchiveRequiresBucket(t *testing.T) {
	_, err := NewS3Archive(s3.New(s3.Options{Region: "us-east-1"}), " ")
	assert.ErrorIs(t, err, ErrNoBucket)
}

// fakeS3 answers path-style PutObject and ListObjectsV2 for one bucket.
type fakeS3 struct {
	bucket string

	mu      sync.Mutex
	objects map[string][]byte
}

type listResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string   `xml:"Name"`
	KeyCount    int      `xml:"KeyCount"`
	IsTruncated bool     `xml:"IsTruncated"`
	Contents    []struct {
		Key          string `xml:"Key"`
		LastModified string `xml:"LastModified"`
		Size         int    `xml:"Size"`
	} `xml:"Contents"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/"), f.bucket)
	key := strings.TrimPrefix(rest, "/")

	switch {
	case r.Method == http.MethodPut && key != "":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.objects[key] = body
		f.mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		f.mu.Lock()
		out := listResult{Name: f.bucket}
		keys := make([]string, 0, len(f.objects))
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.Contents = append(out.Contents, struct {
				Key          string `xml:"Key"`
				LastModified string `xml:"LastModified"`
				Size         int    `xml:"Size"`
			}{Key: k, LastModified: "2024-02-01T08:30:05.000Z", Size: len(f.objects[k])})
		}
		out.KeyCount = len(out.Contents)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(xml.Header))
		_ = xml.NewEncoder(w).Encode(out)

	default:
		http.Error(w, "unsupported", http.StatusNotImplemented)
	}
}

func TestS3ArchivePutAndList(t *testing.T) {
	fake := &fakeS3{bucket: "ledger-reports", objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	archive, err := NewS3Archive(client, "ledger-reports")
	require.NoError(t, err)
	ctx := context.Background()

	location, err := archive.Put(ctx, "/reports/trial-balance/all/a.json", []byte(`{"is_balanced":true}`))
	require.NoError(t, err)
	assert.Equal(t, "s3://ledger-reports/reports/trial-balance/all/a.json", location)

	_, err = archive.Put(ctx, "other/b.json", []byte(`{}`))
	require.NoError(t, err)

	_, err = archive.Put(ctx, "", nil)
	assert.Error(t, err)

	objects, err := archive.List(ctx, "reports/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "reports/trial-balance/all/a.json", objects[0].Key)
	require.NotNil(t, objects[0].LastModified)

	fake.mu.Lock()
	stored := string(fake.objects["reports/trial-balance/all/a.json"])
	fake.mu.Unlock()
	assert.Contains(t, stored, `{"is_balanced":true}`)
}
