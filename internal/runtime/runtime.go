// Package runtime is the only component that talks to the container runtime.
// Compute and database instances are realized as containers; every call returns
// either a payload or a *Fault.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Adapter wraps the container control plane.
type Adapter interface {
	// CreateAndStart creates a container from spec and starts it, returning the runtime id.
	CreateAndStart(ctx context.Context, spec CreateSpec) (string, error)
	Start(ctx context.Context, ref string) error
	Stop(ctx context.Context, ref string) error
	Remove(ctx context.Context, ref string, force bool) error
	Inspect(ctx context.Context, ref string) (Info, error)
	// AttachExec runs cmd inside the container with a TTY and returns the duplex stream.
	AttachExec(ctx context.Context, ref string, cmd []string) (Stream, error)
	Ping(ctx context.Context) error
}

// CreateSpec describes a container to create. Ports are published to
// ephemeral host ports chosen by the runtime.
type CreateSpec struct {
	Image   string
	Name    string
	Cmd     []string
	Env     []string
	Labels  map[string]string
	Publish []PortSpec
}

// PortSpec is a container-internal port.
type PortSpec struct {
	ContainerPort int
	Protocol      string
}

func (p PortSpec) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return strconv.Itoa(p.ContainerPort) + "/" + proto
}

// Info is read-only introspection of a runtime object.
type Info struct {
	ID      string
	Name    string
	Status  string
	Running bool
	// PublishedPorts maps "port/proto" to the host port bound to it.
	PublishedPorts map[string]int
	// ImageTags holds the repo tags of the container image plus the reference it was created from.
	ImageTags []string
}

// HostPort returns the host port published for a container port.
func (i Info) HostPort(p PortSpec) (int, bool) {
	port, ok := i.PublishedPorts[p.String()]
	return port, ok && port > 0
}

// Stream is an interactive duplex byte channel into a container process.
// Reads honour the deadline so callers can poll without blocking forever.
type Stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Kind classifies runtime faults.
type Kind string

const (
	KindNotFound    Kind = "NotFound"
	KindConflict    Kind = "Conflict"
	KindUnavailable Kind = "RuntimeUnavailable"
	KindOther       Kind = "Other"
)

// Fault is the uniform error type returned by adapters.
type Fault struct {
	Kind Kind
	Op   string
	Ref  string
	Err  error
}

func (f *Fault) Error() string {
	if f.Ref == "" {
		return fmt.Sprintf("runtime %s: %s: %v", f.Op, f.Kind, f.Err)
	}
	return fmt.Sprintf("runtime %s %q: %s: %v", f.Op, f.Ref, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// KindOf returns the fault kind of err, or "" when err carries no Fault.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsNotFound reports whether err is a runtime NotFound fault.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a runtime Conflict fault.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsUnavailable reports whether the runtime could not be reached.
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }
