package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/taskdeck/internal/api"
	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/devserver"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the task backend",
	Long: `Signs in with email and password and stores the session next to the config.
The password is prompted for when --password is not given. Use --guest to sign
in with the demo account of a seeded development server.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringP("email", "e", "", "account email")
	loginCmd.Flags().StringP("password", "p", "", "account password (prompted when omitted)")
	loginCmd.Flags().Bool("guest", false, "sign in with the demo account")

	registerCmd.Flags().String("username", "", "user name (required)")
	registerCmd.Flags().String("email", "", "email address (required)")
	registerCmd.Flags().String("password", "", "password (prompted when omitted)")
	registerCmd.Flags().String("first-name", "", "first name")
	registerCmd.Flags().String("last-name", "", "last name")
	registerCmd.Flags().String("phone", "", "phone number")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if guest, _ := cmd.Flags().GetBool("guest"); guest {
		email, password = devserver.DemoEmail, devserver.DemoPassword
	}
	if email == "" {
		if email, err = prompt("Email: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = promptPassword("Password: "); err != nil {
			return err
		}
	}

	resp, err := a.client.Login(cmd.Context(), api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	user := session.User{ID: resp.UserID, Username: resp.Username}
	sess := session.Session{
		User:    &user,
		BaseURL: a.client.BaseURL(),
		Cookies: session.FromHTTP(a.client.Cookies()),
	}
	if err := a.sessions.Save(sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, user)
	}
	output.Messagef(os.Stdout, "%s", output.Greeting(user.Username))
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}

	req := api.RegisterRequest{}
	req.Username, _ = cmd.Flags().GetString("username")
	req.Email, _ = cmd.Flags().GetString("email")
	req.Password, _ = cmd.Flags().GetString("password")
	req.FirstName, _ = cmd.Flags().GetString("first-name")
	req.LastName, _ = cmd.Flags().GetString("last-name")
	req.PhoneNumber, _ = cmd.Flags().GetString("phone")

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		return clierr.New(clierr.InvalidInput, "--username and --email are required")
	}
	if req.Password == "" {
		if req.Password, err = promptPassword("Password: "); err != nil {
			return err
		}
	}

	resp, err := a.client.Register(cmd.Context(), req)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, resp)
	}
	output.Messagef(os.Stdout, "Created account %s (run 'taskdeck login' to sign in)", resp.Username)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}

	// An already expired session is still signed out locally.
	if err := a.client.Logout(cmd.Context()); err != nil && !clierr.Is(err, clierr.AuthFailure) {
		return err
	}
	if err := a.sessions.Clear(); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"status": "logged_out"})
	}
	output.Messagef(os.Stdout, "Logged out")
	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sessions := session.NewStore(cfg.SessionPath())
	if _, err := sessions.Load(); err != nil {
		return err
	}
	u, err := sessions.RequireUser()
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"id":       u.ID,
			"username": u.Username,
			"base_url": sessions.Current().BaseURL,
		})
	}
	output.Messagef(os.Stdout, "%s (#%d) on %s", u.Username, u.ID, sessions.Current().BaseURL)
	return nil
}

// prompt reads one line from stdin.
func prompt(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", clierr.Newf(clierr.InvalidInput,
			"cannot prompt for %s (not a terminal); pass it as a flag", strings.TrimSuffix(strings.ToLower(label), ": "))
	}
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing it.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", clierr.New(clierr.InvalidInput, "cannot prompt for password (not a terminal); use --password")
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
