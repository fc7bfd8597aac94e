// Command healthcheck probes the server's liveness endpoint and exits
// non-zero on failure. Container images use it for HEALTHCHECK since the
// runtime image carries no curl.
package main

import (
	"context"
	"net/http"
	"os"
	"time"
)

const probeTimeout = 8 * time.Second

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost:"+port+"/healthz", nil)
	if err != nil {
		os.Exit(1)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
