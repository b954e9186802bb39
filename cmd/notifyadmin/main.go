package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/output"
)

// errReported marks failures the operator has already seen as a toast.
var errReported = errors.New("reported")

func main() {
	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	if err := c.run(os.Args[1:]); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// cli carries the streams and credential hooks shared by every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	tokens      credential.TokenSource
	setToken    func(key, value string) error
	deleteToken func(key string) error

	cfg        *model.AppConfig
	configPath string
	format     string
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		tokens:      credential.NewStoredToken(),
		setToken:    credential.Set,
		deleteToken: credential.Delete,
	}
}

const usageText = `usage: notifyadmin [global flags] <command> [flags]

commands:
  tui                      interactive admin console (default)
  list [--cached]          list sent notifications
  send --title --message   send a notification
  delete <id> [--yes]      delete a notification
  login                    store the admin token in the keyring
  logout                   remove stored tokens
  whoami                   show the API and token in use
  activity [--limit n]     show the local activity log
  mock-server [--addr]     run a local fake of the admin API

global flags:
`

func (c *cli) run(args []string) error {
	fs := pflag.NewFlagSet("notifyadmin", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprint(c.stderr, usageText)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", model.DefaultConfigPath(), "config file")
	fs.String("base-url", "", "API root, e.g. https://example.com/api")
	fs.String("db", "", "SQLite cache path")
	fs.String("format", "", "output format: table or json (default: table on a terminal)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := model.LoadConfig(*configPath, fs)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.configPath = *configPath

	format, err := output.Resolve(cfg.Output.Format, c.stdout)
	if err != nil {
		return err
	}
	c.format = format

	rest := fs.Args()
	if len(rest) == 0 {
		return c.cmdTUI(nil)
	}

	switch strings.ToLower(rest[0]) {
	case "tui":
		return c.cmdTUI(rest[1:])
	case "list", "ls":
		return c.cmdList(rest[1:])
	case "send":
		return c.cmdSend(rest[1:])
	case "delete", "rm":
		return c.cmdDelete(rest[1:])
	case "login":
		return c.cmdLogin(rest[1:])
	case "logout":
		return c.cmdLogout(rest[1:])
	case "whoami":
		return c.cmdWhoAmI(rest[1:])
	case "activity":
		return c.cmdActivity(rest[1:])
	case "mock-server":
		return c.cmdMockServer(rest[1:])
	case "help":
		fs.Usage()
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", rest[0])
	}
}
