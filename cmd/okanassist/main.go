// Command okanassist manages an OkanAssist session from the terminal. Results are printed as
// JSON on stdout; logs and the banner go to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/okanassist/okanassist-auth/internal/config"
	"github.com/okanassist/okanassist-auth/internal/logging"
	"github.com/okanassist/okanassist-auth/session"
	"github.com/okanassist/okanassist-auth/users"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// action runs a command against the session and returns what to print and whether it worked.
type action func(ctx context.Context, m *session.Manager) (any, bool)

type command struct {
	summary string
	// restore loads the stored session before the action runs.
	restore bool
	setup   func(fs *flag.FlagSet) action
}

var commands = map[string]command{
	"status":   {summary: "show the stored session", restore: true, setup: statusCommand},
	"login":    {summary: "sign in with email and password", setup: loginCommand},
	"register": {summary: "create an account", setup: registerCommand},
	"verify":   {summary: "confirm an email address with a verification token", setup: verifyCommand},
	"google":   {summary: "sign in with Google in the browser", setup: googleCommand},
	"profile":  {summary: "show or update the signed-in profile", restore: true, setup: profileCommand},
	"refresh":  {summary: "trade the refresh token for a new access token", restore: true, setup: refreshCommand},
	"logout":   {summary: "sign out and forget stored credentials", restore: true, setup: logoutCommand},
}

func main() {
	_ = godotenv.Load()

	c, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "okanassist: %v\n", err)
		os.Exit(exitUsage)
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, c, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, c config.Config, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("okanassist", flag.ContinueOnError)
	global.SetOutput(stderr)
	quiet := global.Bool("q", false, "do not print the banner")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		usage(global)
		return exitUsage
	}

	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "okanassist: unknown command %q\n", name)
		usage(global)
		return exitUsage
	}

	fs := flag.NewFlagSet("okanassist "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	act := cmd.setup(fs)
	if err := fs.Parse(global.Args()[1:]); err != nil {
		return exitUsage
	}

	if !*quiet {
		displayAppname(stderr, c.GetAppName())
	}

	a, err := newApp(ctx, c, name == "google")
	if err != nil {
		fmt.Fprintf(stderr, "okanassist: %v\n", err)
		return exitFailure
	}
	defer func() { _ = a.close() }()

	if cmd.restore {
		a.manager.Rehydrate(ctx)
	}
	out, succeeded := act(ctx, a.manager)
	if err := writeJSON(stdout, out); err != nil {
		fmt.Fprintf(stderr, "okanassist: %v\n", err)
		return exitFailure
	}
	if !succeeded {
		return exitFailure
	}
	return exitOK
}

type statusOutput struct {
	State string         `json:"state"`
	User  *users.Profile `json:"user,omitempty"`
}

func status(m *session.Manager) (any, bool) {
	snap := m.Snapshot()
	return statusOutput{State: snap.State.String(), User: snap.User}, true
}

func result(res session.Result) (any, bool) {
	return res, res.Success
}

func statusCommand(*flag.FlagSet) action {
	return func(_ context.Context, m *session.Manager) (any, bool) {
		return status(m)
	}
}

func loginCommand(fs *flag.FlagSet) action {
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	return func(ctx context.Context, m *session.Manager) (any, bool) {
		return result(m.Login(ctx, *email, *password))
	}
}

func registerCommand(fs *flag.FlagSet) action {
	var input session.RegisterInput
	fs.StringVar(&input.Name, "name", "", "full name")
	fs.StringVar(&input.Email, "email", "", "account email")
	fs.StringVar(&input.Password, "password", "", "account password")
	fs.StringVar(&input.ConfirmPassword, "confirm", "", "password again (optional)")
	fs.StringVar(&input.Phone, "phone", "", "phone number")
	fs.StringVar(&input.Currency, "currency", "", "preferred currency code")
	fs.StringVar(&input.Language, "language", "", "preferred language")
	fs.StringVar(&input.Timezone, "timezone", "", "IANA time zone")
	return func(ctx context.Context, m *session.Manager) (any, bool) {
		return result(m.Register(ctx, input))
	}
}

func verifyCommand(fs *flag.FlagSet) action {
	token := fs.String("token", "", "verification token from the email")
	return func(ctx context.Context, m *session.Manager) (any, bool) {
		return result(m.VerifyEmail(ctx, *token))
	}
}

func googleCommand(*flag.FlagSet) action {
	return func(ctx context.Context, m *session.Manager) (any, bool) {
		return result(m.LoginWithProvider(ctx))
	}
}

func profileCommand(fs *flag.FlagSet) action {
	fields := map[string]*string{}
	for _, name := range []string{"name", "phone", "currency", "language", "timezone"} {
		fields[name] = fs.String(name, "", "new "+name)
	}
	return func(ctx context.Context, m *session.Manager) (any, bool) {
		var updates users.ProfileUpdate
		fs.Visit(func(f *flag.Flag) {
			value := fields[f.Name]
			switch f.Name {
			case "name":
				updates.Name = value
			case "phone":
				updates.Phone = value
			case "currency":
				updates.Currency = value
			case "language":
				updates.Language = value
			case "timezone":
				updates.Timezone = value
			}
		})
		if updates.IsEmpty() {
			if !m.IsAuthenticated() {
				return result(session.Result{Message: session.MsgNotAuthenticated})
			}
			return status(m)
		}
		return result(m.UpdateProfile(ctx, updates))
	}
}

func refreshCommand(*flag.FlagSet) action {
	return func(ctx context.Context, m *session.Manager) (any, bool) {
		return result(m.RefreshAccessToken(ctx))
	}
}

func logoutCommand(*flag.FlagSet) action {
	return func(ctx context.Context, m *session.Manager) (any, bool) {
		return result(m.Logout(ctx))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "usage: okanassist [-q] <command> [flags]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-9s %s\n", name, commands[name].summary)
	}
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
