// Package launchers provides concrete Launcher implementations. ExecLauncher
// is the reference adapter: it forks real OS processes with os/exec and
// carries the master<->child Envelope traffic over newline-delimited JSON on
// stdin/stdout. It is a collaborator, not part of the core (spec.md §1 keeps
// the raw duplex channel and its serialization out of scope) — the core only
// ever depends on the Launcher/ChildProcess/MasterChannel interfaces the root
// package exposes.
package launchers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/zeebo/xxh3"

	"github.com/arloliu/flock"
)

// wireFrame is the single shape exchanged over a child's stdin/stdout pipe.
// A child signals readiness by writing a frame with Online set, then
// exchanges Envelope frames for everything else.
type wireFrame struct {
	Online   bool            `json:"online,omitempty"`
	Envelope *flock.Envelope `json:"envelope,omitempty"`
}

// statBuckets is the number of debug counters ExecLauncher keeps, sharded by
// a hash of the worker ID rather than by ID directly so the bucket count
// stays fixed regardless of fleet size.
const statBuckets = 16

// ExecLauncher forks worker processes with os/exec, passing each child's
// stable WorkerID via an environment variable so the child's own main()
// knows which identity to claim when it constructs its Self.
//
// Compile-time assertion that ExecLauncher implements flock.Launcher.
var _ flock.Launcher = (*ExecLauncher)(nil)

type ExecLauncher struct {
	path   string
	args   []string
	envVar string
	sent   [statBuckets]atomic.Int64
	recv   [statBuckets]atomic.Int64
}

// NewExecLauncher creates a Launcher that runs path with args for every
// forked worker. The child's WorkerID is exported as the envVar environment
// variable; if envVar is empty, "FLOCK_WORKER_ID" is used.
//
// Parameters:
//   - path: Executable to run for each worker
//   - envVar: Environment variable name carrying the worker ID (optional)
//   - args: Extra arguments passed to every invocation
//
// Returns:
//   - *ExecLauncher: A Launcher forking real OS processes
//
// Example:
//
//	launcher := launchers.NewExecLauncher("./worker", "", "--mode=worker")
//	sup := flock.NewSupervisor(launcher)
func NewExecLauncher(path, envVar string, args ...string) *ExecLauncher {
	if envVar == "" {
		envVar = "FLOCK_WORKER_ID"
	}

	return &ExecLauncher{path: path, args: args, envVar: envVar}
}

// bucket maps a WorkerID to a debug-counter shard.
func bucket(id flock.WorkerID) int {
	return int(xxh3.HashString(string(id)) % statBuckets)
}

// Stats returns a snapshot of per-shard sent/received message counts, keyed
// by the xxh3 bucket index rather than by worker ID, for low-cardinality
// debug telemetry without an unbounded per-ID label set.
func (l *ExecLauncher) Stats() (sent, recv [statBuckets]int64) {
	for i := range l.sent {
		sent[i] = l.sent[i].Load()
		recv[i] = l.recv[i].Load()
	}

	return sent, recv
}

// execChild is the flock.ChildProcess returned by Fork.
type execChild struct {
	cmd *exec.Cmd

	mu  sync.Mutex
	enc *json.Encoder

	pid  int
	sent *atomic.Int64
}

var _ flock.ChildProcess = (*execChild)(nil)

func (c *execChild) PID() int { return c.pid }

func (c *execChild) Send(v any) error {
	env, ok := v.(flock.Envelope)
	if !ok {
		return fmt.Errorf("launchers: unsupported message type %T", v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enc.Encode(wireFrame{Envelope: &env}); err != nil {
		return err
	}
	c.sent.Add(1)

	return nil
}

func (c *execChild) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}

	return c.cmd.Process.Kill()
}

// Fork starts path as a child process for id, wiring its stdin/stdout as a
// newline-delimited JSON Envelope channel and its stderr to the parent's.
func (l *ExecLauncher) Fork(id flock.WorkerID, events flock.ChildProcessEvents) (flock.ChildProcess, error) {
	cmd := exec.Command(l.path, l.args...) //nolint:gosec // path/args are caller-controlled config, not external input
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", l.envVar, id))
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("launchers: stdin pipe for %q: %w", id, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("launchers: stdout pipe for %q: %w", id, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launchers: start %q: %w", id, err)
	}

	child := &execChild{cmd: cmd, enc: json.NewEncoder(stdin), pid: cmd.Process.Pid, sent: &l.sent[bucket(id)]}

	go l.readLoop(id, stdout, events)
	go l.waitLoop(cmd, events)

	return child, nil
}

func (l *ExecLauncher) readLoop(id flock.WorkerID, r io.Reader, events flock.ChildProcessEvents) {
	b := bucket(id)
	dec := json.NewDecoder(bufio.NewReader(r))

	for {
		var frame wireFrame
		if err := dec.Decode(&frame); err != nil {
			if err != io.EOF && events.Error != nil {
				events.Error(fmt.Errorf("launchers: decode from %q: %w", id, err))
			}

			return
		}

		l.recv[b].Add(1)

		switch {
		case frame.Online:
			if events.Online != nil {
				events.Online()
			}
		case frame.Envelope != nil:
			if events.Message != nil {
				events.Message(*frame.Envelope)
			}
		}
	}
}

func (l *ExecLauncher) waitLoop(cmd *exec.Cmd, events flock.ChildProcessEvents) {
	err := cmd.Wait()
	if events.Exit == nil {
		return
	}

	code, hasCode, signal := classifyWaitErr(cmd, err)
	events.Exit(code, hasCode, signal)
}

func classifyWaitErr(cmd *exec.Cmd, err error) (code int, hasCode bool, signal string) {
	if err == nil {
		return cmd.ProcessState.ExitCode(), true, ""
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 0, false, ws.Signal().String()
		}

		return exitErr.ExitCode(), true, ""
	}

	return 0, false, ""
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}

	return ok
}

// ChildChannel adapts stdin/stdout for the worker side of an ExecLauncher
// -forked child: it implements flock.MasterChannel by JSON-encoding
// Envelopes onto stdout, mirroring the read side ExecLauncher.readLoop
// expects from the parent.
type ChildChannel struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ flock.MasterChannel = (*ChildChannel)(nil)

// NewChildChannel wraps w (typically os.Stdout) as a MasterChannel for the
// worker side of the ExecLauncher wire protocol.
func NewChildChannel(w io.Writer) *ChildChannel {
	return &ChildChannel{enc: json.NewEncoder(w)}
}

// SignalOnline writes the readiness frame ExecLauncher.readLoop maps to
// ChildProcessEvents.Online. Call once, before any Send.
func (c *ChildChannel) SignalOnline() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enc.Encode(wireFrame{Online: true})
}

// Send delivers v, which must be a flock.Envelope, to the master.
func (c *ChildChannel) Send(v any) error {
	env, ok := v.(flock.Envelope)
	if !ok {
		return fmt.Errorf("launchers: unsupported message type %T", v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enc.Encode(wireFrame{Envelope: &env})
}

// ReadLoop decodes Envelope frames from r (typically os.Stdin) and invokes
// onEnvelope for each, until r is exhausted or decoding fails. Intended to
// run on its own goroutine, feeding a Self's HandleInbound.
func ReadLoop(r io.Reader, onEnvelope func(flock.Envelope)) error {
	dec := json.NewDecoder(bufio.NewReader(r))

	for {
		var frame wireFrame
		if err := dec.Decode(&frame); err != nil {
			if err == io.EOF {
				return nil
			}

			return fmt.Errorf("launchers: decode from master: %w", err)
		}

		if frame.Envelope != nil {
			onEnvelope(*frame.Envelope)
		}
	}
}
