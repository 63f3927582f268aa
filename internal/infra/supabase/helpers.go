package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for POST / upsert
// ============================================================

func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	return c.post(ctx, table, data, "return=representation")
}

// doUpsert posts with merge-duplicates on the given conflict column.
func (c *Client) doUpsert(ctx context.Context, table, onConflict string, data any) error {
	path := fmt.Sprintf("%s?on_conflict=%s", table, onConflict)
	_, err := c.post(ctx, path, data, "resolution=merge-duplicates,return=minimal")
	return err
}

func (c *Client) post(ctx context.Context, path string, data any, prefer string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, prefer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: POST request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: POST non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, statusError(resp.StatusCode, body)
	}

	c.logger.Debug("supabase: POST OK", zap.String("path", path), zap.Int("status", resp.StatusCode))
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
