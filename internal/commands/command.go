// Package commands provides the command interface and implementations.
package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"taskctl/internal/board"
	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsSession returns true if the command reads or writes the session
	// store. help and version return false and run without a store.
	NeedsSession() bool

	// NeedsAuth returns true if the command requires a logged-in session.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string) int
}

// Env is what a command runs against.
// Service and Session are nil when NeedsSession() returns false.
type Env struct {
	Config  *config.Config
	Service service.Service
	Session *session.Manager
	Logger  *log.Logger

	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Board creates a task board over env.Service whose failures are forwarded
// to the session manager.
func (e *Env) Board(opts ...board.Option) *board.Controller {
	opts = append(opts, board.WithAuthFailureHandler(func(err error) {
		if e.Session != nil {
			e.Session.HandleAuthFailure(context.Background(), err)
		}
	}))
	return board.New(e.Service, e.Logger, opts...)
}

// ok prints "ok" unless quiet.
func (e *Env) ok() int {
	if !e.Config.Quiet {
		fmt.Fprintln(e.Out, "ok")
	}
	return exitcode.Success
}

// fail prints err and returns its exit code.
func (e *Env) fail(err error) int {
	fmt.Fprintf(e.ErrOut, "error: %s\n", errorMessage(err))
	return exitcode.ForError(err)
}

// failf prints a user error.
func (e *Env) failf(format string, args ...any) int {
	fmt.Fprintf(e.ErrOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return "not logged in (run: taskctl login)"
	case service.IsAuthFailure(err):
		return fmt.Sprintf("auth error: %v (run: taskctl login)", err)
	}
	var ne *service.NetworkError
	if errors.As(err, &ne) {
		return fmt.Sprintf("backend error: %v", err)
	}
	if code := service.StatusCode(err); code >= 500 {
		return fmt.Sprintf("backend error: %v", err)
	}
	return err.Error()
}

// readLine prints label to ErrOut and reads one line from In.
func (e *Env) readLine(label string) (string, error) {
	if e.In == nil {
		return "", io.EOF
	}
	fmt.Fprint(e.ErrOut, label)
	line, err := bufio.NewReader(e.In).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// stdinConfirmer asks for confirmation on the command's input.
type stdinConfirmer struct {
	env *Env
}

func (c stdinConfirmer) Confirm(prompt string) bool {
	answer, err := c.env.readLine(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
