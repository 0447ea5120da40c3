package readiness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HealthPath is the readiness endpoint of the auth server.
const HealthPath = "/q/health"

// requestTimeout bounds a single health request so a hung connection does
// not eat the whole startup budget.
const requestTimeout = 2 * time.Second

// HTTPCheck returns a Check that succeeds once GET url answers 200.
// Connection errors and other statuses mean "not ready yet". The returned
// close function releases the check's transport.
func HTTPCheck(url string, log *slog.Logger) (Check, func()) {
	if log == nil {
		log = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			// Polling opens a fresh connection each time; the server is
			// usually not listening for the first attempts.
			DisableKeepAlives: true,
		},
		Timeout: requestTimeout,
	}

	check := func(ctx context.Context, attempt int) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return false, fmt.Errorf("create health request: %w", err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			if log.Enabled(ctx, slog.LevelDebug) {
				log.Debug("health check attempt", "url", url, "attempt", attempt, "error", err)
			}
			return false, nil
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode == http.StatusOK {
			return true, nil
		}
		if log.Enabled(ctx, slog.LevelDebug) {
			log.Debug("health check attempt", "url", url, "attempt", attempt, "status", resp.StatusCode)
		}
		return false, nil
	}

	return check, httpClient.CloseIdleConnections
}
