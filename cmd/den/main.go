// den is a small demo CLI exercising the expand/store packages: it takes
// one or more whitespace-separated words (from -c, a file, or stdin) and
// prints the argv fields they expand to, one per line, against a fresh
// store.Store seeded from the process environment.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"den.sh/den/expand"
	"den.sh/den/store"
)

var (
	command = flag.String("c", "", "words to expand, instead of reading a file or stdin")
	unbound = flag.Bool("u", false, "treat unset parameters as an error, like set -u")
)

func main() { os.Exit(main1()) }

// main1 is the real entry point, factored out so testscript.RunMain can
// invoke it as a subprocess command without forking a real "den" binary.
func main1() int {
	flag.Parse()
	if err := run(); err != nil {
		var xerr exitError
		if errors.As(err, &xerr) {
			return int(xerr)
		}
		fmt.Fprintln(os.Stderr, "den:", err)
		return 1
	}
	return 0
}

type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func run() error {
	s := store.New(scriptName())

	if *command != "" {
		return expandLines(s, strings.NewReader(*command))
	}
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		return expandLines(s, f)
	}
	return expandLines(s, os.Stdin)
}

func scriptName() string {
	if flag.NArg() > 0 {
		return flag.Arg(0)
	}
	return "den"
}

// expandLines treats each line of r as one simple command: a sequence of
// whitespace-separated words, each either a "name=value" assignment (stored
// directly, not printed) or an ordinary word (expanded and printed).
func expandLines(s *store.Store, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := expandAndPrint(s, strings.Fields(line)); err != nil {
			return err
		}
	}
	return sc.Err()
}

func expandAndPrint(s *store.Store, words []string) error {
	cfg := expand.Config{Env: s, Exec: execCallback, Unbound: *unbound}
	for _, w := range words {
		if name, value, ok := splitAssignment(w); ok {
			if err := assign(s, cfg, name, value); err != nil {
				return err
			}
			continue
		}
		fields, err := expand.ExpandWord(cfg, w, false)
		if err != nil {
			return asDenError(err)
		}
		for _, f := range fields {
			fmt.Println(f.Value)
		}
	}
	return nil
}

// splitAssignment reports whether w has the shell assignment shape
// "name=value", where name is a valid identifier.
func splitAssignment(w string) (name, value string, ok bool) {
	i := strings.IndexByte(w, '=')
	if i <= 0 {
		return "", "", false
	}
	if !isIdentStart(w[0]) {
		return "", "", false
	}
	for j := 1; j < i; j++ {
		if !isIdentCont(w[j]) {
			return "", "", false
		}
	}
	return w[:i], w[i+1:], true
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func assign(s *store.Store, cfg expand.Config, name, value string) error {
	fields, err := expand.ExpandWord(cfg, value, false)
	if err != nil {
		return asDenError(err)
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Value
	}
	return s.Set(name, expand.Variable{Set: true, Kind: expand.String, Str: strings.Join(parts, " ")})
}

func asDenError(err error) error {
	var eerr *expand.Error
	if errors.As(err, &eerr) {
		return fmt.Errorf("%s: %s", eerr.Kind, eerr.Word)
	}
	return err
}

// execCallback runs cmd through the host shell for command and process
// substitution. This is the one place the demo CLI actually forks a
// process; the expand package itself never does.
func execCallback(cmd string, out *strings.Builder) (int, error) {
	c := exec.Command("sh", "-c", cmd)
	c.Stdout = out
	c.Stderr = os.Stderr
	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
