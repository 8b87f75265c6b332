package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE:  runWhoami,
	}
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not logged in (run 'worldctl login')")
	}

	user, err := a.session.FetchUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching user: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(user)
	}

	fmt.Printf("ID:       %s\n", user.ID)
	fmt.Printf("Email:    %s\n", user.Email)

	if user.FullName != "" {
		fmt.Printf("Name:     %s\n", user.FullName)
	}

	if len(user.Roles) > 0 {
		fmt.Printf("Roles:    %s\n", strings.Join(user.Roles, ", "))
	}

	fmt.Printf("Enabled:  %t\n", user.Enabled)

	return nil
}
