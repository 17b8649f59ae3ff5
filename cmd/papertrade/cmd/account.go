package cmd

import (
	"errors"
	"fmt"

	"papertrade/internal/app"
	"papertrade/internal/apperr"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okf   = color.New(color.FgGreen).SprintfFunc()
	failf = color.New(color.FgRed, color.Bold).SprintfFunc()
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Fprintln(cmd.OutOrStdout(), okf("schema up to date (%s)", a.Config.DBDriver))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account with the starting cash",
	Long: `Create an account. The password is read from the terminal without echo,
or as two lines (password, confirmation) from standard input.

Passwords need a letter, a digit and one of: ` + "'\"`~!@#$%^&*()-+?_=,<>/",
	Args: cobra.NoArgs,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(migrateCmd, registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readSecret(cmd, "Password: ")
	if err != nil {
		return err
	}
	confirmation, err := readSecret(cmd, "Confirm password: ")
	if err != nil {
		return err
	}
	acc, err := a.Auth.Register(cmd.Context(), username, password, confirmation)
	if err != nil {
		return report(cmd, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), okf("registered %s (%s)", acc.Username, acc.ID))
	return nil
}

// login authenticates --user with a prompted password and returns the
// account ID.
func login(cmd *cobra.Command, a *app.App) (string, error) {
	if err := requireUser(); err != nil {
		return "", err
	}
	password, err := readSecret(cmd, "Password: ")
	if err != nil {
		return "", err
	}
	_, acc, err := a.Auth.Login(cmd.Context(), username, password)
	if err != nil {
		return "", report(cmd, err)
	}
	return acc.ID, nil
}

// report prints a user-facing failure line. Faults keep their detail.
func report(cmd *cobra.Command, err error) error {
	msg := err.Error()
	var ae *apperr.Error
	if !apperr.IsFault(err) && errors.As(err, &ae) {
		msg = ae.Msg
	}
	fmt.Fprintln(cmd.ErrOrStderr(), failf("error: %s", msg))
	return reported{err}
}

// reported marks an error already printed to the user.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }
