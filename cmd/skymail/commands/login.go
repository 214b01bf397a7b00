package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// login <identifier>: exchange an identifier and app password for a
// session, sealed on disk under the passphrase.
func loginCmd() *cobra.Command {
	var appPassword string

	cmd := &cobra.Command{
		Use:   "login <identifier>",
		Short: "Log in with a handle or DID and an app password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}

			sess := newSession()
			if err := sess.Create(cmd.Context(), args[0], appPassword); err != nil {
				return err
			}
			fmt.Printf("logged in as @%s (%s)\n", sess.Handle(), sess.DID())
			return nil
		},
	}

	cmd.Flags().StringVar(&appPassword, "app-password", "", "app password generated in your account settings")
	_ = cmd.MarkFlagRequired("app-password")
	return cmd
}

// logout: discard the stored session.
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clearSession(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

// whoami: print the stored session's identity.
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := resumeSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("@%s (%s)\n", sess.Handle(), sess.DID())
			return nil
		},
	}
}
