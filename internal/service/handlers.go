package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"agromitra/internal/app"
	"agromitra/internal/config"
	"agromitra/internal/i18n"
	"agromitra/internal/models"
	"agromitra/internal/store"
	"agromitra/internal/tui"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// handlers aggregates what the command handlers need: the runtime loaded
// before the command runs and the terminal streams.
type handlers struct {
	env     *Env
	app     *app.App
	in      *bufio.Reader
	out     io.Writer
	confirm app.Confirmer

	// masked reads a secret without echo; nil when stdin is not a terminal.
	masked func(ctx context.Context, prompt string) (string, error)
}

// newHandlers initializes a handlers instance over the terminal streams. The
// runtime is attached later, once the flags are parsed.
func newHandlers(in io.Reader, out io.Writer) *handlers {
	h := &handlers{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		h.masked = func(ctx context.Context, prompt string) (string, error) {
			return tui.ReadSecret(ctx, f, out, prompt)
		}
	}
	return h
}

func (h *handlers) attach(env *Env, yes bool) {
	h.env, h.app = env, env.App
	h.confirm = app.ConfirmFunc(h.ask)
	if yes {
		h.confirm = app.AlwaysConfirm
	}
}

func (h *handlers) close() {
	if h.env != nil && h.env.Close != nil {
		h.env.Close()
	}
}

// context bounds one command's API calls by the configured timeout.
func (h *handlers) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := h.env.Config.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

func (h *handlers) t(key string) string { return h.app.Store().T(key) }

func (h *handlers) printf(format string, args ...any) {
	fmt.Fprintf(h.out, format, args...)
}

func (h *handlers) println(args ...any) {
	fmt.Fprintln(h.out, args...)
}

// ask prints prompt and reads a yes/no answer; anything but y or yes is a no.
func (h *handlers) ask(prompt string) bool {
	answer := h.readLine(prompt + " [y/N]: ")
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// readLine prints prompt and returns the next trimmed input line.
func (h *handlers) readLine(prompt string) string {
	h.printf("%s", prompt)
	line, err := h.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(line)
}

// orPrompt returns value, or asks for it when empty.
func (h *handlers) orPrompt(value, prompt string) string {
	if value != "" {
		return value
	}
	return h.readLine(prompt + ": ")
}

// orSecret is orPrompt for passwords: on a terminal the input is masked.
func (h *handlers) orSecret(ctx context.Context, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	if h.masked == nil {
		return h.readLine(prompt + ": "), nil
	}
	secret, err := h.masked(ctx, prompt+": ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(secret), nil
}

// commandError carries the sentence shown for a failed command.
type commandError struct {
	msg string
	err error
}

func (e *commandError) Error() string { return e.msg }

func (e *commandError) Unwrap() error { return e.err }

// fail turns a controller error into the message the user sees.
func fail(err error) error {
	if err == nil {
		return nil
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return &commandError{msg: storeErr.Message, err: err}
	}
	msg := app.Message(err, "")
	if msg == "" {
		msg = err.Error()
	}
	return &commandError{msg: msg, err: err}
}

func (h *handlers) loginCommand() *cobra.Command {
	var email, password string
	var asAdmin, asFarmer bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; admin credentials open an admin session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			email = h.orPrompt(email, h.t("emailOrPhone"))
			var err error
			if password, err = h.orSecret(cmd.Context(), password, h.t("password")); err != nil {
				return fail(err)
			}

			switch {
			case asAdmin:
				admin, err := h.app.AdminLogin(ctx, email, password)
				if err != nil {
					return fail(err)
				}
				h.printf("Logged in as admin %s\n", admin.Email)
				return nil
			case asFarmer:
				if err := h.app.Store().Login(ctx, email, password); err != nil {
					return fail(err)
				}
			default:
				role, err := h.app.CombinedLogin(ctx, email, password)
				if err != nil {
					return fail(err)
				}
				if role == app.RoleAdmin {
					admin, _ := h.app.AdminSession()
					h.printf("Logged in as admin %s\n", admin.Email)
					return nil
				}
			}
			h.printf("%s, %s\n", h.t("welcomeBack"), sessionName(h.app.Store().State()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	cmd.Flags().BoolVar(&asAdmin, "admin", false, "sign in as an administrator only")
	cmd.Flags().BoolVar(&asFarmer, "farmer", false, "sign in as a farmer only")
	cmd.MarkFlagsMutuallyExclusive("admin", "farmer")
	return cmd
}

func sessionName(s store.State) string {
	if s.User == nil {
		return ""
	}
	if s.User.Name != "" {
		return s.User.Name
	}
	return s.User.Email
}

func (h *handlers) registerCommand() *cobra.Command {
	var req models.RegisterRequest
	var confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a farmer account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			req.Name = h.orPrompt(req.Name, h.t("fullName"))
			req.Email = h.orPrompt(req.Email, h.t("emailAddress"))
			var err error
			if req.Password, err = h.orSecret(cmd.Context(), req.Password, h.t("password")); err != nil {
				return fail(err)
			}
			if confirm, err = h.orSecret(cmd.Context(), confirm, h.t("confirmPassword")); err != nil {
				return fail(err)
			}
			if req.PreferredLanguage != "" && !i18n.Supported(req.PreferredLanguage) {
				return fmt.Errorf("unsupported language %q", req.PreferredLanguage)
			}

			if err := h.app.Register(ctx, req, confirm); err != nil {
				return fail(err)
			}
			h.printf("Account created. Welcome, %s\n", sessionName(h.app.Store().State()))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "full name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Phone, "phone", "", "phone number")
	f.StringVar(&req.Password, "password", "", "password (prompted when empty)")
	f.StringVar(&confirm, "confirm", "", "password confirmation (prompted when empty)")
	f.StringVar(&req.PreferredLanguage, "language", "", "preferred language")
	f.StringVar(&req.Location.State, "state", "", "state")
	f.StringVar(&req.Location.District, "district", "", "district")
	f.StringVar(&req.Location.Village, "village", "", "village")
	f.StringVar(&req.SoilType, "soil", "", "soil type")
	f.Float64Var(&req.FarmSize, "farm-size", 0, "farm size in acres")
	f.StringVar(&req.Experience, "experience", "", "experience level")
	return cmd
}

func (h *handlers) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the farmer session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := h.app.Store().Logout(); err != nil {
				return fail(err)
			}
			h.println("Logged out.")
			return nil
		},
	}
}

func (h *handlers) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active sessions and language",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			s := h.app.Store().State()
			switch {
			case s.IsAuthenticated:
				h.printf("Farmer:   %s <%s>\n", sessionName(s), s.User.Email)
			default:
				h.println("Farmer:   not logged in")
			}
			if admin, ok := h.app.AdminSession(); ok {
				h.printf("Admin:    %s\n", admin.Email)
			}
			h.printf("Language: %s\n", s.SelectedLanguage)
			h.printf("Server:   %s\n", h.env.Config.APIURL)
			return nil
		},
	}
}

func (h *handlers) langCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lang [language]",
		Short: "Show or change the interface language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			current := h.app.Store().State().SelectedLanguage
			if len(args) == 0 {
				for _, code := range i18n.Languages() {
					marker := "  "
					if code == current {
						marker = "* "
					}
					h.printf("%s%s (%s)\n", marker, code, i18n.T(code, "appName"))
				}
				return nil
			}

			code := strings.ToLower(args[0])
			if !i18n.Supported(code) {
				return fmt.Errorf("unsupported language %q", args[0])
			}
			if err := h.app.Store().SetLanguage(code); err != nil {
				return fail(err)
			}
			h.printf("%s: %s\n", h.t("language"), code)
			return nil
		},
	}
}

func (h *handlers) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the farmer profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			user, err := h.app.NewDashboard().Profile(ctx)
			if err != nil {
				return fail(err)
			}
			h.printProfile(user)
			return nil
		},
	}

	var changes models.User
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			dash := h.app.NewDashboard()
			user, err := dash.Profile(ctx)
			if err != nil {
				return fail(err)
			}
			f := cmd.Flags()
			set := func(name string, dst *string, v string) {
				if f.Changed(name) {
					*dst = v
				}
			}
			set("name", &user.Name, changes.Name)
			set("phone", &user.Phone, changes.Phone)
			set("language", &user.PreferredLanguage, changes.PreferredLanguage)
			set("state", &user.Location.State, changes.Location.State)
			set("district", &user.Location.District, changes.Location.District)
			set("village", &user.Location.Village, changes.Location.Village)
			set("soil", &user.SoilType, changes.SoilType)
			set("experience", &user.Experience, changes.Experience)
			if f.Changed("farm-size") {
				user.FarmSize = changes.FarmSize
			}

			updated, err := dash.UpdateProfile(ctx, *user)
			if err != nil {
				return fail(err)
			}
			h.println("Profile updated.")
			h.printProfile(updated)
			return nil
		},
	}
	f := update.Flags()
	f.StringVar(&changes.Name, "name", "", "full name")
	f.StringVar(&changes.Phone, "phone", "", "phone number")
	f.StringVar(&changes.PreferredLanguage, "language", "", "preferred language")
	f.StringVar(&changes.Location.State, "state", "", "state")
	f.StringVar(&changes.Location.District, "district", "", "district")
	f.StringVar(&changes.Location.Village, "village", "", "village")
	f.StringVar(&changes.SoilType, "soil", "", "soil type")
	f.Float64Var(&changes.FarmSize, "farm-size", 0, "farm size in acres")
	f.StringVar(&changes.Experience, "experience", "", "experience level")
	cmd.AddCommand(update)
	return cmd
}

func (h *handlers) printProfile(u *models.User) {
	h.println(tui.Title(h.t("profile")))
	h.printf("%s: %s\n", h.t("fullName"), u.Name)
	h.printf("%s: %s\n", h.t("emailAddress"), u.Email)
	h.printf("%s: %s\n", h.t("phoneNumber"), u.Phone)
	h.printf("%s: %s\n", h.t("preferredLanguage"), u.PreferredLanguage)
	h.printf("%s: %s\n", h.t("state"), u.Location.String())
	h.printf("%s: %s\n", h.t("soilType"), models.SoilTypeLabel(u.SoilType))
	h.printf("%s: %g\n", h.t("farmSize"), u.FarmSize)
	h.printf("%s: %s\n", h.t("experienceLevel"), u.Experience)
}
