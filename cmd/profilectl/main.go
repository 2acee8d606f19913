// Command profilectl manages a profile portal account from the terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

const (
	exitAPI   = 2
	exitInput = 3
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	baseURL   string
	lang      string
	tokenFile string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "profilectl",
		Short:         "Manage your profile portal account",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.baseURL, "url", envOr("PROFILECTL_URL", "http://localhost:8080"), "API base URL")
	pf.StringVar(&g.lang, "lang", envOr("PROFILECTL_LANG", "zh-TW"), "Language for messages (zh-TW or en)")
	pf.StringVar(&g.tokenFile, "token-file", defaultTokenFile(), "Where the access token is stored")

	root.AddCommand(
		newLoginCmd(&g),
		newProfileCmd(&g),
		newPasswordCmd(&g),
		newPhoneCmd(&g),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
