package apiclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fasthttp/websocket"
)

// ConsoleURL returns the WebSocket URL of an instance console.
func (c *Client) ConsoleURL(id string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + instancePath(id) + "/console"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}

// DialConsole opens a console session for an instance.
func (c *Client) DialConsole(id string) (*websocket.Conn, error) {
	target, err := c.ConsoleURL(id)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("console handshake failed: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("console dial failed: %w", err)
	}
	return conn, nil
}
