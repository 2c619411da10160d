package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Change is a config change pushed by the watch feed.
type Change struct {
	Type string `json:"type"`
	Event
}

// Watch streams config changes of keys, or of every key when none are given,
// until ctx is done or the connection fails. It returns nil when ctx ends
// the stream.
func (c *Client) Watch(ctx context.Context, keys []string, fn func(Change)) error {
	u, err := url.Parse(c.server + "/monitor/watch")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if len(keys) > 0 {
		u.RawQuery = url.Values{"configKey": {strings.Join(keys, ",")}}.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &ConnectionError{Err: err}
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return &ConnectionError{Err: err}
		}

		var change Change
		if err := json.Unmarshal(data, &change); err != nil {
			return err
		}
		switch change.Type {
		case "change":
			fn(change)
		case "error":
			var msg struct {
				Message string `json:"message"`
			}
			json.Unmarshal(data, &msg)
			return errors.New("watch: " + msg.Message)
		}
	}
}
