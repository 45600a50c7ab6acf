package entropy

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatal("nil client must not be enabled")
	}
	if NewClient("") != nil {
		t.Fatal("empty API key must yield a nil client")
	}
	a, b := NewRand(nil).Uint64(), NewRand(nil).Uint64()
	if a == b {
		t.Fatal("two ambient generators produced the same first value")
	}
}

func TestClientRefillFromPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","result":{"random":{"data":[1,2,3,4,5,6,7,8,9,10]}},"id":1}`)
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL

	if got, want := c.Uint64(), uint64(1)<<32|2; got != want {
		t.Fatalf("first pooled value = %d, want %d", got, want)
	}
	if got, want := c.Uint64(), uint64(3)<<32|4; got != want {
		t.Fatalf("second pooled value = %d, want %d", got, want)
	}
}

func TestClientAPIErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","error":{"message":"quota"},"id":1}`)
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	c.Uint64() // must not panic or block
	if len(c.pool) != 0 {
		t.Fatalf("pool should stay empty after an API error, has %d", len(c.pool))
	}
}
