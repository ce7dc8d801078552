package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fasthttp/websocket"
	"golang.org/x/term"
)

// runConsole pipes a console session to the local terminal until the server
// closes it. When in is a terminal it is switched to raw mode for the session.
func runConsole(conn *websocket.Conn, in io.Reader, out io.Writer) error {
	defer conn.Close()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), state) }()
	}

	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				if werr := conn.WriteMessage(websocket.TextMessage, buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
		}
	}()

	return copyConsole(conn, out)
}

// copyConsole writes every server message to out. A normal close ends the
// session without error.
func copyConsole(conn *websocket.Conn, out io.Writer) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return fmt.Errorf("console closed: %d %s", ce.Code, ce.Text)
			}
			return err
		}
		if _, err := out.Write(msg); err != nil {
			return err
		}
	}
}
