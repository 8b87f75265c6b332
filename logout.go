package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Long:  "Invalidate the session server-side and remove the local token.",
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if !a.session.IsAuthenticated() {
		fmt.Println("Not logged in.")

		return nil
	}

	if err := a.session.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	fmt.Println("Logged out.")

	return nil
}
