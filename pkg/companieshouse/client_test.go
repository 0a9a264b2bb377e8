package companieshouse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search/companies", r.URL.Path)
		assert.Equal(t, "BBC STUDIOS", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("items_per_page"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "test-key", user)
		assert.Equal(t, "", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"title": "BBC STUDIOS LIMITED", "company_number": "01420028", "company_status": "active", "company_type": "ltd", "address_snippet": "1 Television Centre, London", "date_of_creation": "1979-02-20"},
				{"title": "BBC STUDIOWORKS LIMITED", "company_number": "02961365"}
			],
			"total_results": 2
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "BBC STUDIOS", 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BBC STUDIOS LIMITED", got[0].Title)
	assert.Equal(t, "01420028", got[0].CompanyNumber)
	assert.Equal(t, "active", got[0].CompanyStatus)
	assert.Equal(t, "ltd", got[0].CompanyType)
	assert.Equal(t, "1 Television Centre, London", got[0].AddressSnippet)
	assert.Equal(t, "1979-02-20", got[0].DateOfCreation)
	// Missing fields default to empty strings.
	assert.Equal(t, "", got[1].CompanyStatus)
	assert.Equal(t, "", got[1].DateOfCreation)
}

func TestSearch_NoItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_results": 0}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "NO SUCH COMPANY", 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_Unauthorized(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient("bad-key", WithBaseURL(srv.URL))
		_, err := client.Search(context.Background(), "BBC", 10)

		require.Error(t, err, "status %d", status)
		assert.True(t, errors.Is(err, ErrUnauthorized), "status %d should map to ErrUnauthorized", status)
		srv.Close()
	}
}

func TestSearch_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "BBC", 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestSearch_RemoteError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "BBC", 10)

	require.Error(t, err)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.Equal(t, "upstream exploded", remote.Body)
}

func TestSearch_RemoteErrorBodyExcerpt(t *testing.T) {
	t.Parallel()

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write(long)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "BBC", 10)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Len(t, remote.Body, bodyExcerptLen)
}

func TestSearch_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "BBC", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestSearch_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the dial fails

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "BBC", 10)

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestSearch_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(ctx, "BBC", 10)

	require.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BBC", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("items_per_page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{"title": "BBC"}], "total_results": 1}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	assert.NoError(t, client.ValidateKey(context.Background()))
}

func TestValidateKey_BadKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	err := client.ValidateKey(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
}
