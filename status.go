package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the current session token is valid",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	token := a.session.Token()
	if token == "" {
		fmt.Println("Not logged in.")

		return nil
	}

	if a.session.ValidateToken(cmd.Context(), token) {
		fmt.Println("Session token is valid.")

		return nil
	}

	fmt.Println("Session token is invalid or expired. Run 'worldctl login'.")

	return nil
}
