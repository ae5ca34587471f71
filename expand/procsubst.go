package expand

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// fifoNamePrefix marks the named pipes process substitution creates, so
// they are recognizable (and cleanable) in a temp directory listing.
const fifoNamePrefix = "den-procsubst-"

var procSubstSeq uint64

// ProcDir is where process-substitution FIFOs are created. It defaults
// to os.TempDir and may be overridden (e.g. by tests, or a caller that
// wants a per-session scratch directory).
var ProcDir = os.TempDir

// runProcessSubst implements ProcessSubstitutor. There is no real fork in
// this pure-Go core, so — grounded on mvdan.cc/sh/v3/interp/runner.go's
// ProcSubst handler — it creates a named FIFO, starts a goroutine that
// runs body against the appropriate end of the FIFO via the ExecFunc
// hook, and returns the FIFO's path immediately. isInput selects <(cmd)
// (the FIFO carries cmd's stdout) versus >(cmd) (the FIFO carries cmd's
// stdin).
//
// This deliberately diverges from the traditional "/dev/fd/N" path a
// forking shell reports: that form only resolves for a descriptor
// already open in the consuming process's own fd table, which requires
// passing it through at exec time (cmd.ExtraFiles and a matching dup2,
// or a real fork). ExecFunc's contract is a plain (command, output
// buffer) callback with no fd-inheritance channel, so there is nothing
// for a "/dev/fd/N"-shaped path to resolve against here. A named FIFO
// is openable by any process that receives the path, which is what
// actually matters for <(cmd)/>(cmd) to work end to end.
//
// The caller is responsible for closing/consuming the path. The
// background goroutine runs in an errgroup local to this call, which a
// detached goroutine waits on; nothing awaits its completion or reports
// its error.
func (c *Context) runProcessSubst(src string, isInput bool) (path string, consumed int, err error) {
	body, used, ok := scanBalanced(src, '(', ')', 1)
	if !ok {
		return "", 0, nil
	}
	if c.cfg.Exec == nil {
		return "", 0, &Error{Kind: ErrProcessSubstitution, Word: body}
	}

	n := atomic.AddUint64(&procSubstSeq, 1)
	fifoPath := filepath.Join(ProcDir(), fmt.Sprintf("%s%d-%d", fifoNamePrefix, os.Getpid(), n))
	if err := unix.Mkfifo(fifoPath, 0o600); err != nil {
		return "", 0, &Error{Kind: ErrProcessSubstitution, Word: body, Err: err}
	}

	var g errgroup.Group
	g.Go(func() error {
		if !isInput {
			// >(cmd): cmd reads from the FIFO as its stdin. ExecFunc only
			// captures stdout, so the command body is framed to read the
			// FIFO itself via a redirection the executor understands.
			_, rerr := c.cfg.Exec(body+" < "+fifoPath, &strings.Builder{})
			return rerr
		}
		// <(cmd): this side writes cmd's stdout into the FIFO.
		f, oerr := os.OpenFile(fifoPath, os.O_WRONLY, 0)
		if oerr != nil {
			return oerr
		}
		defer f.Close()
		var sink strings.Builder
		_, rerr := c.cfg.Exec(body, &sink)
		if rerr == nil {
			_, rerr = f.WriteString(sink.String())
		}
		return rerr
	})
	// Detached: errors surface only via the FIFO becoming unreadable or
	// empty, per the spec's "reaped opportunistically" resource model.
	go func() { _ = g.Wait() }()

	return fifoPath, used + 1, nil
}
