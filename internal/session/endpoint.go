// internal/session/endpoint.go
package session

import (
	"fmt"
	"net/url"
	"strings"
)

// EndpointURL addresses the channel for one (lobby, player) pair:
// {serverURL}/ws/{lobbyID}/{playerName}, each segment path-escaped.
// http and https base URLs are mapped to ws and wss.
func EndpointURL(serverURL, lobbyID, playerName string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url %q: unsupported scheme %q", serverURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", serverURL)
	}
	u.RawQuery = ""
	u.Fragment = ""

	base := strings.TrimRight(u.String(), "/")
	return base + "/ws/" + url.PathEscape(lobbyID) + "/" + url.PathEscape(playerName), nil
}
