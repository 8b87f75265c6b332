package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tidegate/worldctl/internal/gql"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Authenticate against the Worlds API",
		Long: `Authenticate with username and password.

The username is taken from the first argument or prompted for. The
password is always prompted for on stdin and never appears in logs or
shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Fprint(os.Stderr, "Username: ")

		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return fmt.Errorf("reading username: %w", readErr)
		}

		username = strings.TrimSpace(line)
	}

	fmt.Fprint(os.Stderr, "Password: ")

	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")

	user, err := a.session.Login(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("%s", loginErrorMessage(err))
	}

	name := user.FullName
	if name == "" {
		name = user.Email
	}

	fmt.Printf("Logged in as %s.\n", name)

	return nil
}

// loginErrorMessage converts a login failure into display text. This is
// the UI boundary: classified errors get specific wording, anything else
// falls back to a generic invalid-credentials message.
func loginErrorMessage(err error) string {
	kind, classified := gql.KindOf(err)
	if !classified {
		return "Invalid credentials. Please try again."
	}

	switch kind {
	case gql.KindValidation:
		var ge *gql.Error
		if errors.As(err, &ge) {
			return ge.Message
		}

		return "Invalid input."
	case gql.KindNetwork:
		return "Could not reach the Worlds API. Check your connection and try again."
	case gql.KindServer:
		return "The Worlds API returned a server error. Try again later."
	case gql.KindTokenInvalid, gql.KindTokenExpired:
		return "Your session could not be established. Please try again."
	default:
		return "Invalid credentials. Please try again."
	}
}
