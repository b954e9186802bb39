package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/nhle/notifyadmin/internal/admin"
	"github.com/nhle/notifyadmin/internal/app"
	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/mockapi"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/notifier"
	"github.com/nhle/notifyadmin/internal/output"
	"github.com/nhle/notifyadmin/internal/store"
)

// session is what a one-shot command needs: a manager whose snapshot and
// activity go to the local store.
type session struct {
	manager *notifier.Manager
	store   *store.SQLiteStore
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		log.Printf("Error closing store: %v", err)
	}
}

func (c *cli) openSession() (*session, error) {
	st, err := store.NewSQLiteStore(c.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	client := admin.NewClient(
		c.cfg.API.BaseURL,
		c.tokens,
		admin.WithTimeout(time.Duration(c.cfg.API.TimeoutSec)*time.Second),
	)
	mgr := notifier.NewManager(client, notifier.WriterToaster{W: c.stderr}, notifier.WithSnapshot(st))
	return &session{manager: mgr, store: st}, nil
}

func (c *cli) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (c *cli) cmdTUI(args []string) error {
	if err := c.flagSet("tui").Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(model.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	logFile, err := tea.LogToFile(model.DefaultLogPath(), "notifyadmin")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	st, err := store.NewSQLiteStore(c.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	m := app.New(app.Options{
		Config:     c.cfg,
		ConfigPath: c.configPath,
		Store:      st,
		Tokens:     c.tokens,
		SaveToken: func(tok string) error {
			return c.setToken(credential.AdminTokenKey, tok)
		},
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func (c *cli) cmdList(args []string) error {
	fs := c.flagSet("list")
	cached := fs.Bool("cached", false, "print the last fetched list without contacting the server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if *cached {
		if err := s.manager.Restore(ctx); err != nil {
			return err
		}
	} else if err := s.manager.List(ctx); err != nil {
		return errReported
	}

	return output.Notifications(c.stdout, c.format, s.manager.Notifications())
}

func (c *cli) cmdSend(args []string) error {
	fs := c.flagSet("send")
	d := model.NewDraft()
	fs.StringVarP(&d.Title, "title", "t", "", "notification title")
	fs.StringVarP(&d.Message, "message", "m", "", "notification body")
	typ := fs.String("type", string(d.Type), "info, success, warning or error")
	prio := fs.String("priority", string(d.Priority), "low, normal or high")
	target := fs.String("target", string(d.Target), "all, verified_users or specific_users")
	fs.StringVar(&d.TargetUsers, "target-users", "", "comma-separated emails for specific_users")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var ok bool
	if d.Type, ok = model.ParseNotificationType(*typ); !ok {
		return fmt.Errorf("invalid --type %q", *typ)
	}
	if d.Priority, ok = model.ParsePriority(*prio); !ok {
		return fmt.Errorf("invalid --priority %q", *prio)
	}
	if d.Target, ok = model.ParseTarget(*target); !ok {
		return fmt.Errorf("invalid --target %q", *target)
	}

	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.manager.Create(context.Background(), d)
	if err != nil {
		return errReported
	}
	return output.Notifications(c.stdout, c.format, []model.Notification{*n})
}

func (c *cli) cmdDelete(args []string) error {
	fs := c.flagSet("delete")
	yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: notifyadmin delete <id> [--yes]")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid notification id %q", fs.Arg(0))
	}

	confirmer := notifier.Confirmed
	if !*yes {
		confirmer = c.confirmer()
	}

	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	err = s.manager.Delete(context.Background(), id, confirmer)
	switch {
	case errors.Is(err, notifier.ErrDeleteDeclined):
		fmt.Fprintln(c.stderr, "Cancelled")
		return nil
	case err != nil:
		return errReported
	}
	return nil
}

// confirmer asks with a huh dialog on a terminal and reads a y/N line
// otherwise.
func (c *cli) confirmer() notifier.Confirmer {
	if c.isTerminal(c.stdin) {
		return notifier.ConfirmFunc(func(prompt string) (bool, error) {
			var ok bool
			err := huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&ok).
				Run()
			return ok, err
		})
	}

	return notifier.ConfirmFunc(func(prompt string) (bool, error) {
		fmt.Fprintf(c.stderr, "%s [y/N] ", prompt)
		line, err := bufio.NewReader(c.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func (c *cli) cmdLogin(args []string) error {
	fs := c.flagSet("login")
	verify := fs.Bool("verify", true, "check the token against the API before saving")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := c.readToken()
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("no token given")
	}

	if *verify {
		client := admin.NewClient(c.cfg.API.BaseURL, credential.StaticToken(token),
			admin.WithTimeout(time.Duration(c.cfg.API.TimeoutSec)*time.Second))
		if _, err := client.ListNotifications(context.Background()); err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}
	}

	if err := c.setToken(credential.AdminTokenKey, token); err != nil {
		return err
	}
	fmt.Fprintf(c.stderr, "Saved admin token (%s)\n", credential.Inspect(token))
	return nil
}

// readToken prompts on a terminal and reads the first line of stdin
// otherwise.
func (c *cli) readToken() (string, error) {
	if c.isTerminal(c.stdin) {
		var token string
		err := huh.NewInput().
			Title("Admin token").
			Description("Bearer token for the notifications admin API").
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Run()
		return strings.TrimSpace(token), err
	}

	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) cmdLogout(args []string) error {
	if err := c.flagSet("logout").Parse(args); err != nil {
		return err
	}
	for _, key := range []string{credential.AdminTokenKey, credential.TokenKey} {
		if err := c.deleteToken(key); err != nil {
			return err
		}
	}
	if os.Getenv(credential.TokenEnvVar) != "" {
		fmt.Fprintf(c.stderr, "Note: %s is still set in the environment\n", credential.TokenEnvVar)
	}
	fmt.Fprintln(c.stderr, "Removed stored tokens")
	return nil
}

func (c *cli) cmdWhoAmI(args []string) error {
	if err := c.flagSet("whoami").Parse(args); err != nil {
		return err
	}

	values := map[string]string{
		"api":   c.cfg.API.BaseURL,
		"token": "not set",
	}
	token, err := c.tokens.Token()
	switch {
	case err != nil && !errors.Is(err, credential.ErrNotFound):
		return err
	case token != "":
		info := credential.Inspect(token)
		values["token"] = info.String()
		if info.JWT {
			values["user"] = info.UserID
			values["subject"] = info.Subject
			if !info.ExpiresAt.IsZero() {
				values["expires"] = info.ExpiresAt.Format(time.RFC3339)
				values["expired"] = strconv.FormatBool(info.Expired(time.Now()))
			}
		}
	}

	return output.Fields(c.stdout, c.format,
		[]string{"api", "token", "user", "subject", "expires", "expired"}, values)
}

func (c *cli) cmdActivity(args []string) error {
	fs := c.flagSet("activity")
	limit := fs.IntP("limit", "n", 50, "number of entries, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(c.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.GetActivity(context.Background(), *limit)
	if err != nil {
		return err
	}
	return output.Activity(c.stdout, c.format, entries)
}

func (c *cli) cmdMockServer(args []string) error {
	fs := c.flagSet("mock-server")
	addr := fs.String("addr", "127.0.0.1:8080", "listen address")
	token := fs.String("token", "dev-token", "bearer token the server accepts")
	all := fs.Int("recipients", 156, "recipients reported for target all")
	verified := fs.Int("verified", 120, "recipients reported for verified_users")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	mock := mockapi.New(*token, mockapi.WithRecipients(*all, *verified))

	fmt.Fprintf(c.stderr, "Mock admin API on http://%s/api (token %q)\n", *addr, *token)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
