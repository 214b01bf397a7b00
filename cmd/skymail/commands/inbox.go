package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// inbox: list the recipient's anonymous messages, newest first.
func inboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List received anonymous messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := resumeSession(ctx)
			if err != nil {
				return err
			}

			messages, err := relayClient().Inbox(ctx, sess.Data().AccessJwt)
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				fmt.Println("no messages")
				return nil
			}

			for _, msg := range messages {
				fmt.Printf("%s  @%s\n  %s\n  id: %s\n\n", msg.IndexedAt, msg.UserHandle, msg.Message, msg.ID)
			}
			return nil
		},
	}
}

// delete <id>: remove a message from the mailbox.
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message from the mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := resumeSession(ctx)
			if err != nil {
				return err
			}

			if err := relayClient().Delete(ctx, sess.Data().AccessJwt, args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
}
