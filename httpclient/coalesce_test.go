package httpclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/beacon-go/httpclient"
)

func TestCoalesceKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		method1  string
		url1     string
		body1    []byte
		method2  string
		url2     string
		body2    []byte
		wantSame bool
	}{
		{
			name:    "given identical requests, then the same key",
			method1: "GET", url1: "https://example.com/users/123",
			method2: "GET", url2: "https://example.com/users/123",
			wantSame: true,
		},
		{
			name:    "given different methods, then different keys",
			method1: "GET", url1: "https://example.com/users/123",
			method2: "POST", url2: "https://example.com/users/123",
			wantSame: false,
		},
		{
			name:    "given different paths, then different keys",
			method1: "GET", url1: "https://example.com/users/123",
			method2: "GET", url2: "https://example.com/users/456",
			wantSame: false,
		},
		{
			name:    "given different query values, then different keys",
			method1: "GET", url1: "https://example.com/users?active=true",
			method2: "GET", url2: "https://example.com/users?active=false",
			wantSame: false,
		},
		{
			name:    "given the same params in a different order, then the same key",
			method1: "GET", url1: "https://example.com/users?a=1&b=2",
			method2: "GET", url2: "https://example.com/users?b=2&a=1",
			wantSame: true,
		},
		{
			name:    "given different bodies, then different keys",
			method1: "POST", url1: "https://example.com/users", body1: []byte(`{"name":"ada"}`),
			method2: "POST", url2: "https://example.com/users", body2: []byte(`{"name":"eva"}`),
			wantSame: false,
		},
		{
			name:    "given the same body, then the same key",
			method1: "POST", url1: "https://example.com/users", body1: []byte(`{"name":"ada"}`),
			method2: "POST", url2: "https://example.com/users", body2: []byte(`{"name":"ada"}`),
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key1 := httpclient.CoalesceKey(tt.method1, tt.url1, tt.body1)
			key2 := httpclient.CoalesceKey(tt.method2, tt.url2, tt.body2)

			if tt.wantSame {
				assert.Equal(t, key1, key2)
			} else {
				assert.NotEqual(t, key1, key2)
			}
		})
	}
}

func TestCoalesceDeduplicatesConcurrentGets(t *testing.T) {
	t.Parallel()

	var upstream atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream.Add(1)
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	client := httpclient.New(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithCoalescing(),
	)

	const callers = 10
	var wg sync.WaitGroup
	responses := make([]*httpclient.Response, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			responses[idx], errs[idx] = client.Get(context.Background(), "/data")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		require.NotNil(t, responses[i], "caller %d", i)
		assert.Equal(t, http.StatusOK, responses[i].StatusCode)
		// Shared callers hold independent readers over one buffer.
		assert.JSONEq(t, `{"result":"ok"}`, responses[i].String())
	}

	assert.Equal(t, int32(1), upstream.Load())
}

func TestCoalesceSequentialGetsAreNotCached(t *testing.T) {
	t.Parallel()

	var upstream atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream.Add(1)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.New(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithCoalescing(),
	)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), "/data")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, int32(2), upstream.Load())
}

func TestCoalesceDistinguishesEndpoints(t *testing.T) {
	t.Parallel()

	var upstream atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream.Add(1)
		time.Sleep(50 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.New(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithCoalescing(),
	)

	var wg sync.WaitGroup
	for _, path := range []string{"/orders", "/users"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, _ = client.Get(context.Background(), p)
		}(path)
	}
	wg.Wait()

	assert.Equal(t, int32(2), upstream.Load())
}

func TestCoalesceSkipsWrites(t *testing.T) {
	t.Parallel()

	var upstream atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream.Add(1)
		time.Sleep(50 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.New(
		httpclient.WithBaseURL(srv.URL),
		httpclient.WithCoalescing(),
	)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Post(context.Background(), "/orders", map[string]string{"sku": "A-1"})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), upstream.Load())
}

func TestCoalesceDisabledByDefault(t *testing.T) {
	t.Parallel()

	var upstream atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream.Add(1)
		time.Sleep(50 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.New(httpclient.WithBaseURL(srv.URL))

	const callers = 4
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Get(context.Background(), "/data")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(callers), upstream.Load())
}
