package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/trivago/gokafka"
)

// RegisterClusterHealth adds a "/kafka" probe that reports a client's
// cluster reachability: it tries a metadata refresh for topic (empty
// refreshes the whole cluster) and reports the buffered non-fatal error
// count alongside the outcome, so a flapping broker shows up before the
// next fatal request does.
func RegisterClusterHealth(client *gokafka.Client, topic string, timeout time.Duration) {
	AddEndpoint("/kafka", func() (int, string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		nonfatal := len(client.NonfatalErrors())
		if err := client.RefreshMetadata(ctx, topic); err != nil {
			return http.StatusServiceUnavailable, fmt.Sprintf("metadata refresh failed: %s (nonfatal=%d)", err.Error(), nonfatal)
		}
		return http.StatusOK, fmt.Sprintf("ok (nonfatal=%d)", nonfatal)
	})
}
