package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseOpenGraphWins(t *testing.T) {
	page := `<html><head>
		<title>Doc Title</title>
		<meta property="og:title" content="OG Title">
		<meta name="twitter:title" content="Twitter Title">
		<meta property="og:description" content="OG description.">
		<meta name="description" content="Meta description.">
		<meta property="og:image" content="https://cdn.example.com/img.png">
	</head><body><h1>Heading</h1></body></html>`

	p, err := Parse(page, mustParseURL(t, "https://example.com/article"))
	require.NoError(t, err)
	require.NotNil(t, p.Title)
	assert.Equal(t, "OG Title", *p.Title)
	require.NotNil(t, p.Description)
	assert.Equal(t, "OG description.", *p.Description)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "https://cdn.example.com/img.png", *p.ImageURL)
}

func TestParseTitleFallbackChain(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "twitter title when no og",
			html:     `<html><head><title>Doc</title><meta name="twitter:title" content="Tw Title"></head><body><h1>H1</h1></body></html>`,
			expected: "Tw Title",
		},
		{
			name:     "h1 when no meta titles",
			html:     `<html><head><title>Doc</title></head><body><h1>First <em>Heading</em></h1><h1>Second</h1></body></html>`,
			expected: "First Heading",
		},
		{
			name:     "document title as last resort",
			html:     `<html><head><title>Doc Title</title></head><body><p>hello</p></body></html>`,
			expected: "Doc Title",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.html, nil)
			require.NoError(t, err)
			require.NotNil(t, p.Title)
			assert.Equal(t, tc.expected, *p.Title)
		})
	}
}

func TestParseSnippetFallback(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
		<nav>Navigation junk that must not appear.</nav>
		<p>Go makes it easy to build simple software.</p>
		<p>It compiles quickly to machine code.</p>
		<script>var hidden = "script text";</script>
	</body></html>`

	p, err := Parse(page, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Description)
	assert.Contains(t, *p.Description, "Go makes it easy")
	assert.NotContains(t, *p.Description, "Navigation junk")
	assert.NotContains(t, *p.Description, "script text")
	assert.LessOrEqual(t, len(*p.Description), maxSnippetLen+3)
}

func TestParseResolvesRelativeImage(t *testing.T) {
	page := `<html><head><meta property="og:image" content="/static/cover.jpg"></head><body></body></html>`

	p, err := Parse(page, mustParseURL(t, "https://blog.example.com/posts/1"))
	require.NoError(t, err)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "https://blog.example.com/static/cover.jpg", *p.ImageURL)
}

func TestParseNoMetadata(t *testing.T) {
	p, err := Parse(`<html><body></body></html>`, nil)
	require.NoError(t, err)
	assert.Nil(t, p.Title)
	assert.Nil(t, p.Description)
	assert.Nil(t, p.ImageURL)
}

func TestHTTPFetcherHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><meta property="og:title" content="Served Page"></head><body></body></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	p, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Served Page", *p.Title)
}

func TestHTTPFetcherStatusErrors(t *testing.T) {
	testCases := []struct {
		name      string
		status    int
		permanent bool
	}{
		{name: "not found is permanent", status: http.StatusNotFound, permanent: true},
		{name: "gone is permanent", status: http.StatusGone, permanent: true},
		{name: "server error is retryable", status: http.StatusInternalServerError, permanent: false},
		{name: "rate limit is retryable", status: http.StatusTooManyRequests, permanent: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			f := NewHTTPFetcher(5 * time.Second)
			_, err := f.Fetch(context.Background(), srv.URL)
			require.Error(t, err)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.status, statusErr.StatusCode)
			assert.Equal(t, tc.permanent, IsPermanent(err))
		})
	}
}

func TestHTTPFetcherRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not": "html"}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrNotHTML)
	assert.True(t, IsPermanent(err))
}

func TestHTTPFetcherRejectsBadScheme(t *testing.T) {
	f := NewHTTPFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}

func TestSnippet(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", Snippet(""))
	})

	t.Run("short text passes through", func(t *testing.T) {
		text := "A short description of the page."
		assert.Equal(t, text, Snippet(text))
	})

	t.Run("stops at sentence boundary within budget", func(t *testing.T) {
		sentence := "This sentence talks about building link management tools in a compiled language with good tooling."
		text := strings.TrimSpace(strings.Repeat(sentence+" ", 5))

		got := Snippet(text)
		require.NotEmpty(t, got)
		assert.True(t, strings.HasPrefix(text, strings.TrimSuffix(got, "...")),
			"snippet should come from the start of the source text")
		assert.LessOrEqual(t, len(got), maxSnippetLen+3)
		assert.Less(t, len(got), len(text))
	})

	t.Run("truncates an oversized first sentence", func(t *testing.T) {
		text := strings.TrimSpace(strings.Repeat("word ", 80)) + "."
		got := Snippet(text)
		assert.LessOrEqual(t, len(got), maxSnippetLen+3)
		assert.True(t, strings.HasSuffix(got, "..."))
	})
}
