package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fxhub/internal/domain"
	"fxhub/internal/metrics"
)

// responseInfo is the provenance attached to every rate of one fetch.
type responseInfo struct {
	StatusCode int
	ETag       string
	Took       time.Duration
}

func (ri responseInfo) meta(rawID string) map[string]any {
	return map[string]any{
		"raw_id":      rawID,
		"request_ms":  ri.Took.Milliseconds(),
		"status_code": ri.StatusCode,
		"etag":        ri.ETag,
	}
}

// getJSON performs a GET and decodes a 2xx body into out, classifying every
// failure as a SourceError of the given source.
func getJSON(ctx context.Context, client *http.Client, source, rawURL string, header http.Header, out any) (responseInfo, error) {
	var info responseInfo
	start := time.Now()
	err := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return domain.NewSourceError(source, domain.SourceErrNetwork, fmt.Errorf("failed to create request: %w", redactURL(err)))
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return domain.NewSourceError(source, domain.SourceErrNetwork, fmt.Errorf("failed to execute request: %w", redactURL(err)))
		}
		defer resp.Body.Close()

		info.StatusCode = resp.StatusCode
		info.ETag = resp.Header.Get("ETag")
		info.Took = time.Since(start)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
			if resp.StatusCode == http.StatusTooManyRequests {
				return domain.NewSourceError(source, domain.SourceErrStatus, errors.New("rate limited (429)"))
			}
			return domain.NewSourceError(source, domain.SourceErrStatus, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, body))
		}

		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.NewSourceError(source, domain.SourceErrPayload, fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}()
	metrics.RecordSourceFetch(source, err, time.Since(start))
	return info, err
}

// redactURL drops the request URL from a *url.Error. Some providers carry
// the api key in the path, and these errors reach logs and API responses.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	host := "request"
	if u, parseErr := url.Parse(ue.URL); parseErr == nil && u.Host != "" {
		host = u.Scheme + "://" + u.Host
	}
	return fmt.Errorf("%s %s: %w", ue.Op, host, ue.Err)
}
