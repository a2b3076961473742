package commands

import (
	"context"
	"flag"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskctl/internal/exitcode"
	"taskctl/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return nil }
func (c *WhoamiCmd) Synopsis() string   { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string      { return "taskctl whoami" }
func (c *WhoamiCmd) NeedsSession() bool { return true }
func (c *WhoamiCmd) NeedsAuth() bool    { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, env *Env, args []string) int {
	sess, _ := env.Session.Current()
	output.FormatSession(env.Out, sess.Username, sess.UserID, tokenExpiry(sess.Token), time.Now())
	return exitcode.Success
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
// Tokens that are not JWTs, or carry no exp, yield the zero time.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0)
	case int64:
		return time.Unix(exp, 0)
	}
	return time.Time{}
}
