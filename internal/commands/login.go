package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	username string
	password string
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Log in and store the session" }
func (c *LoginCmd) Usage() string      { return "taskctl login -u <username> [-p <password>]" }
func (c *LoginCmd) NeedsSession() bool { return true }
func (c *LoginCmd) NeedsAuth() bool    { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	registerCredentialFlags(fs, &c.username, &c.password)
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return env.failf("unexpected argument: %s", args[0])
	}
	if _, ok := env.Session.Current(); ok {
		if !env.Config.Quiet {
			fmt.Fprintln(env.Out, "already logged in")
		}
		return exitcode.Success
	}

	creds, code := readCredentials(env, c.username, c.password)
	if code != exitcode.Success {
		return code
	}

	sess, err := env.Session.Login(ctx, creds)
	if err != nil {
		if errors.Is(err, session.ErrAlreadyAuthenticated) {
			return env.failf("%v", err)
		}
		if service.IsAuthFailure(err) {
			fmt.Fprintf(env.ErrOut, "error: login failed: %s\n", authMessage(err))
			return exitcode.AuthError
		}
		return env.fail(err)
	}

	if !env.Config.Quiet {
		fmt.Fprintf(env.Out, "logged in as %s\n", sess.Username)
	}
	return exitcode.Success
}

func registerCredentialFlags(fs *flag.FlagSet, username, password *string) {
	fs.StringVar(username, "username", "", "")
	fs.StringVar(username, "u", "", "")
	fs.StringVar(password, "password", "", "")
	fs.StringVar(password, "p", "", "")
}

// readCredentials validates the username and reads a missing password from input.
func readCredentials(env *Env, username, password string) (service.Credentials, int) {
	username = strings.TrimSpace(username)
	if username == "" {
		return service.Credentials{}, env.failf("username required (-u)")
	}
	if password == "" {
		line, err := env.readLine("Password: ")
		if err != nil || line == "" {
			return service.Credentials{}, env.failf("password required (-p or stdin)")
		}
		password = line
	}
	return service.Credentials{Username: username, Password: password}, exitcode.Success
}

// authMessage returns the server's message for a rejected login.
func authMessage(err error) string {
	var se *service.HTTPStatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "invalid username or password"
}
