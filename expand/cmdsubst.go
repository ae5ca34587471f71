package expand

import "strings"

// maxCmdSubstOutput bounds how much of a command substitution's stdout
// is retained, per the "bounded buffer (<= 1 MiB)" contract.
const maxCmdSubstOutput = 1 << 20

// runCommandSubst implements CommandSubstitutor: it runs body through the
// configured ExecFunc, capturing stdout and stripping trailing newlines.
// Command substitution is never cached — the same command can observe
// different results (date, $RANDOM) on successive calls.
//
// Grounded on mvdan.cc/sh/v3/interp/runner.go's CmdSubst. Here there is
// no goroutine or pipe: the caller-supplied ExecFunc is called
// synchronously and its stdout is collected in a strings.Builder, since
// den's expansion core does not own command execution.
func (c *Context) runCommandSubst(body string) (string, int, error) {
	if c.cfg.Exec == nil {
		return "", 0, &Error{Kind: ErrCommandFailed, Word: body}
	}
	var out strings.Builder
	code, err := c.cfg.Exec(body, &out)
	if err != nil {
		// Per the propagation policy, an IO failure degrades to an
		// empty expansion with a nonzero exit sentinel rather than a
		// fatal expansion error.
		return "", 127, nil
	}
	s := out.String()
	if len(s) > maxCmdSubstOutput {
		s = s[:maxCmdSubstOutput]
	}
	s = strings.TrimRight(s, "\n")
	return s, code, nil
}

func (c *Context) setExitCode(code int) {
	if setter, ok := c.cfg.Env.(ExitStatusEnviron); ok {
		setter.SetLastExitCode(code)
	}
}

// ExitStatusEnviron is an optional capability a WriteEnviron
// implementation can satisfy so that command substitution can update $?
// as it runs, per the VariableStore contract's last_exit_code /
// set_last_exit_code operations.
type ExitStatusEnviron interface {
	LastExitCode() int
	SetLastExitCode(code int)
}
