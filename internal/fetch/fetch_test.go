package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Ethereum","tvl":123.45}`))
	}))
	defer server.Close()

	var out struct {
		Name string  `json:"name"`
		TVL  float64 `json:"tvl"`
	}
	err := GetJSON(context.Background(), server.Client(), server.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, "Ethereum", out.Name)
	assert.Equal(t, 123.45, out.TVL)
}

func TestGetStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Get(context.Background(), server.Client(), server.URL)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestGetJSONMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": truncated`))
	}))
	defer server.Close()

	var out map[string]interface{}
	err := GetJSON(context.Background(), server.Client(), server.URL, &out)
	assert.Error(t, err)
}
