// Package fetchx turns remote URLs into binary items.
package fetchx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/dmitrijs2005/picdrop/internal/item"
)

// maxBodySize caps a fetched payload at 50 MiB. A body over the cap is an
// error, never a silent truncation. Variable so tests can lower the cap.
var maxBodySize = int64(50 << 20)

// IsFetchable reports whether raw is a well-formed absolute http(s) URL.
func IsFetchable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch downloads rawURL and wraps the body as a binary item named after the
// last path segment. Non-2xx responses are errors.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (*item.Binary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", rawURL, err)
	}
	if int64(len(data)) > maxBodySize {
		return nil, fmt.Errorf("fetching %s: body exceeds %d bytes", rawURL, maxBodySize)
	}

	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
		if name == "." || name == "/" {
			name = ""
		}
	}

	return item.NewBinary(name, data), nil
}
