package meta

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolver(timeout time.Duration) *HTTPResolver {
	return NewHTTPResolver(timeout, zap.NewNop().Sugar())
}

func TestResolveHTMLPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
			<title>Example Domain</title>
			<meta name="description" content="An example page.">
		</head><body><h1>hi</h1></body></html>`)
	}))
	defer srv.Close()

	got, err := newResolver(5 * time.Second).Resolve(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Example Domain", got.Title)
	assert.Equal(t, "An example page.", got.Description)
	assert.Equal(t, "text/html", got.ContentType())
}

func TestResolveOgDescriptionFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<title>OG Page</title>
			<meta property="og:description" content="From open graph.">
		</head></html>`)
	}))
	defer srv.Close()

	got, err := newResolver(5 * time.Second).Resolve(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "OG Page", got.Title)
	assert.Equal(t, "From open graph.", got.Description)
}

func TestResolveNonHTMLSkipsParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 not really a pdf")
	}))
	defer srv.Close()

	got, err := newResolver(5 * time.Second).Resolve(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "", got.Title)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, "application/pdf", got.ContentType())
}

// The resolver does exactly one fetch with a bounded timeout: a host
// that never answers in time surfaces an error instead of hanging the
// request.
func TestResolveTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	got, err := newResolver(50 * time.Millisecond).Resolve(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, "", got.Title)
	assert.Equal(t, "", got.Description)
}

func TestResolveUnreachableHost(t *testing.T) {
	_, err := newResolver(time.Second).Resolve(context.Background(), "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestExtractTitleAndDescription(t *testing.T) {
	title, description := extractTitleAndDescription([]byte(`
		<html><head>
			<title>  Spaced Title  </title>
			<meta name="description" content="named">
			<meta property="og:description" content="og">
		</head></html>`))
	assert.Equal(t, "Spaced Title", title)
	assert.Equal(t, "named", description)

	title, description = extractTitleAndDescription([]byte(`<p>no head at all</p>`))
	assert.Equal(t, "", title)
	assert.Equal(t, "", description)
}
