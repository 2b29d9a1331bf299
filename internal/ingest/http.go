package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AngelCh415/recho/internal/utils"
)

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

var defaultBackoff = utils.NewBackoff(100*time.Millisecond, 2)

// DoJSONWithRetry retries transport errors, 429 and 5xx. Other statuses and
// decode failures are returned at once. A nil dst discards the body.
func DoJSONWithRetry(ctx context.Context, c HTTPClient, b utils.Backoff, build RequestFunc, dst any) error {
	return b.Do(ctx, func(int) error {
		req, err := build(ctx)
		if err != nil {
			return fmt.Errorf("%w: build request: %v", utils.ErrPermanent, err)
		}
		resp, err := c.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", utils.ErrPermanent, err)
			}
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			se := &StatusError{Code: resp.StatusCode, Body: string(body)}
			if !se.Retryable() {
				return fmt.Errorf("%w: %w", utils.ErrPermanent, se)
			}
			return se
		}
		if dst == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: decode: %v", utils.ErrPermanent, err)
		}
		return nil
	})
}
