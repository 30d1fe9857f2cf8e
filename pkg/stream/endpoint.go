package stream

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// streamPath is the root stream path; a named source appends its
// escaped identifier.
const streamPath = "/api/stream"

// Endpoint builds the WebSocket URL for a source. The base address may
// use http, https, ws, or wss; http(s) maps to ws(s). An empty sourceID
// selects the default/primary source at the root stream path. The
// interval and bearer token ride as query parameters.
func Endpoint(base, sourceID string, interval time.Duration, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base address %q: %w", base, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in base address %q", u.Scheme, base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base address %q has no host", base)
	}

	path := strings.TrimSuffix(u.Path, "/") + streamPath
	if sourceID != "" {
		path += "/" + url.PathEscape(sourceID)
	}
	u.Path = path

	q := url.Values{}
	q.Set("interval", strconv.FormatInt(interval.Milliseconds(), 10))
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
