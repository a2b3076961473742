package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"taskctl/internal/exitcode"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
// It creates the account only; the user logs in afterwards.
type RegisterCmd struct {
	username string
	password string
	email    string
}

func (c *RegisterCmd) Name() string       { return "register" }
func (c *RegisterCmd) Aliases() []string  { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string   { return "Create an account" }
func (c *RegisterCmd) NeedsSession() bool { return true }
func (c *RegisterCmd) NeedsAuth() bool    { return false }

func (c *RegisterCmd) Usage() string {
	return "taskctl register -u <username> [-p <password>] [--email <email>]"
}

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	registerCredentialFlags(fs, &c.username, &c.password)
	fs.StringVar(&c.email, "email", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return env.failf("unexpected argument: %s", args[0])
	}
	creds, code := readCredentials(env, c.username, c.password)
	if code != exitcode.Success {
		return code
	}
	creds.Email = strings.TrimSpace(c.email)

	info, err := env.Session.Register(ctx, creds)
	if err != nil {
		return env.fail(err)
	}

	if !env.Config.Quiet {
		fmt.Fprintf(env.Out, "registered %s (run: taskctl login -u %s)\n", info.Username, info.Username)
	}
	return exitcode.Success
}
