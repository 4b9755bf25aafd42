package api

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingHTTPClient layers an HTTP cache over the given round tripper
// (normally the pipeline, so cached misses still carry credentials).
// Reference-data endpoints such as the organizational unit lists send
// Cache-Control headers and tolerate a cached response.
func NewCachingHTTPClient(base http.RoundTripper, cacheDir string, timeout time.Duration) *http.Client {
	var cache httpcache.Cache
	if cacheDir == "" {
		cache = httpcache.NewMemoryCache()
	} else {
		cache = diskcache.New(cacheDir)
	}

	cachingTransport := httpcache.NewTransport(cache)
	cachingTransport.Transport = base

	return &http.Client{
		Transport: cachingTransport,
		Timeout:   timeout,
	}
}
