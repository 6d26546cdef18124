package sync

import (
	"context"
	"net/http"
	"time"
)

const probeTimeout = 3 * time.Second

// Ping reports whether a sync server answers on baseURL. It is the
// connection-screen probe and the liveness check behind the client's
// online flag.
func Ping(ctx context.Context, client *http.Client, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
