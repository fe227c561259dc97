package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportInjectsBearer(t *testing.T) {
	var seen string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
	}))
	defer ts.Close()

	token := "first-token"
	client := &http.Client{
		Transport: NewTransport(func() string { return token }, nil),
	}

	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer first-token", seen)

	// The source is read at round-trip time, so a swap is visible on the
	// very next request
	token = "second-token"
	resp, err = client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer second-token", seen)

	token = ""
	resp, err = client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, seen)
}

func TestTransportDoesNotMutateRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	client := &http.Client{
		Transport: NewTransport(func() string { return "tok" }, nil),
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
