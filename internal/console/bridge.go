// Package console bridges a WebSocket session to an interactive shell inside
// a running compute instance.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cloudemu/engine/internal/metrics"
	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/internal/runtime"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/cloudemu/engine/pkg/logger"
	"github.com/fasthttp/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	readChunk   = 4096
	idleBackoff = 10 * time.Millisecond
	closeWait   = time.Second
)

// Session results reported to metrics.
const (
	resultRejected     = "rejected"
	resultUnavailable  = "unavailable"
	resultAttachFailed = "attach_failed"
	resultRelayed      = "relayed"
)

// Authenticator validates a bearer credential and returns the caller's email.
type Authenticator interface {
	Verify(ctx context.Context, token string) (string, error)
}

// InstanceLookup resolves a compute instance by runtime id.
type InstanceLookup interface {
	Get(ctx context.Context, id string) (*models.ComputeInstance, error)
}

type Options struct {
	// PollInterval bounds each read from the runtime stream.
	PollInterval time.Duration
	Shells       ShellTable
	Metrics      *metrics.Metrics
}

// Bridge serves console sessions.
type Bridge struct {
	rt        runtime.Adapter
	instances InstanceLookup
	auth      Authenticator
	opts      Options
	upgrader  websocket.Upgrader
}

func NewBridge(rt runtime.Adapter, instances InstanceLookup, auth Authenticator, opts Options) *Bridge {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Shells == nil {
		opts.Shells = DefaultShells()
	}
	return &Bridge{
		rt:        rt,
		instances: instances,
		auth:      auth,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readChunk,
			WriteBufferSize: readChunk,
			// Sessions are authorized by the token, not by origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve runs one console session for instanceID until either side closes.
// The credential is read from the token query parameter.
func (b *Bridge) Serve(w http.ResponseWriter, r *http.Request, instanceID string) {
	ctx := r.Context()
	email, authErr := b.auth.Verify(ctx, r.URL.Query().Get("token"))

	// A rejected credential still completes the upgrade: WebSocket clients can
	// read a 1008 close code but not the status of a refused handshake.
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warn("console upgrade failed", zap.String("instance_id", instanceID), zap.Error(err))
		return
	}

	if authErr != nil {
		logger.L().Info("console unauthorized", zap.String("instance_id", instanceID), zap.Error(authErr))
		b.opts.Metrics.ConsoleResult(resultRejected)
		closeWith(conn, websocket.ClosePolicyViolation, "Unauthorized")
		return
	}

	log := logger.L().With(zap.String("instance_id", instanceID), zap.String("user", email))
	log.Info("console connected")

	stream, err := b.attach(ctx, instanceID)
	if err != nil {
		log.Info("console attach failed", zap.Error(err))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(diagnostic(err)))
		closeWith(conn, websocket.CloseNormalClosure, "")
		return
	}

	greeting := fmt.Sprintf("Connected to %s console. Type 'exit' to disconnect.\r\n", instanceID)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(greeting)); err != nil {
		_ = stream.Close()
		_ = conn.Close()
		b.opts.Metrics.ConsoleResult(resultAttachFailed)
		return
	}

	b.opts.Metrics.ConsoleOpened()
	defer b.opts.Metrics.ConsoleClosed()
	s := &session{conn: conn, stream: stream, poll: b.opts.PollInterval, metrics: b.opts.Metrics}
	s.relay()
	b.opts.Metrics.ConsoleResult(resultRelayed)
	log.Info("console closed")
}

// attachError is shown to the caller verbatim.
type attachError struct {
	msg string
	err error
}

func (e *attachError) Error() string { return e.msg }
func (e *attachError) Unwrap() error { return e.err }

func (b *Bridge) attach(ctx context.Context, instanceID string) (runtime.Stream, error) {
	inst, err := b.instances.Get(ctx, instanceID)
	if err != nil {
		b.opts.Metrics.ConsoleResult(resultUnavailable)
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, &attachError{msg: "Instance not found", err: err}
		}
		return nil, err
	}

	info, err := b.rt.Inspect(ctx, inst.ID)
	if err != nil {
		b.opts.Metrics.ConsoleResult(resultUnavailable)
		if runtime.IsNotFound(err) {
			return nil, &attachError{msg: "Container not found", err: err}
		}
		return nil, err
	}
	if !info.Running {
		b.opts.Metrics.ConsoleResult(resultUnavailable)
		return nil, &attachError{msg: "Container is not running. Please start the instance first."}
	}

	shell := b.opts.Shells.For(append(info.ImageTags, inst.ImageRef)...)
	stream, err := b.rt.AttachExec(ctx, inst.ID, shell)
	if err != nil {
		b.opts.Metrics.ConsoleResult(resultAttachFailed)
		return nil, err
	}
	return stream, nil
}

func diagnostic(err error) string {
	var ae *attachError
	if errors.As(err, &ae) {
		return "Error: " + ae.msg + "\r\n"
	}
	return "Error: " + err.Error() + "\r\n"
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(closeWait))
	_ = conn.Close()
}

type session struct {
	conn    *websocket.Conn
	stream  runtime.Stream
	poll    time.Duration
	metrics *metrics.Metrics

	once sync.Once
}

// relay runs both directions until either one ends, then closes both ends.
func (s *session) relay() {
	var g errgroup.Group
	g.Go(func() error {
		defer s.teardown()
		return s.outbound()
	})
	g.Go(func() error {
		defer s.teardown()
		return s.inbound()
	})
	if err := g.Wait(); err != nil {
		logger.L().Debug("console relay ended", zap.Error(err))
	}
}

// teardown errors are irrelevant once the session is ending.
func (s *session) teardown() {
	s.once.Do(func() {
		_ = s.stream.Close()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeWait))
		_ = s.conn.Close()
	})
}

// outbound copies runtime output to the caller as text frames.
func (s *session) outbound() error {
	buf := make([]byte, readChunk)
	var dec textDecoder
	for {
		_ = s.stream.SetReadDeadline(time.Now().Add(s.poll))
		n, err := s.stream.Read(buf)
		if n > 0 {
			if text := dec.decode(buf[:n]); text != "" {
				if werr := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); werr != nil {
					return werr
				}
				s.metrics.ConsoleBytes("out", len(text))
			}
		}
		if err != nil {
			if isTimeout(err) {
				time.Sleep(idleBackoff)
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// inbound copies caller frames into the runtime stream.
func (s *session) inbound() error {
	for {
		mt, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		if _, err := s.stream.Write(msg); err != nil {
			return err
		}
		s.metrics.ConsoleBytes("in", len(msg))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
