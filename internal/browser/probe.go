package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"qte/internal/domain"
)

// Probe reports whether url answers an HTTP request
func Probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetworkUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

// WaitReachable polls url every interval until it answers or ctx ends
func WaitReachable(ctx context.Context, url string, interval time.Duration) error {
	client := &http.Client{Timeout: interval}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := Probe(ctx, client, url)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", err, ctx.Err())
		case <-ticker.C:
		}
	}
}
