package commands

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

// maxMessageLength bounds submissions at this boundary; the relay stores
// whatever it accepts without truncating.
const maxMessageLength = 250

// send <handle> <message>: submit an anonymous message to a recipient.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <handle> <message>",
		Short: "Send an anonymous message to a handle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, message := args[0], args[1]
			if utf8.RuneCountInString(message) > maxMessageLength {
				return fmt.Errorf("message is too long (max %d characters)", maxMessageLength)
			}

			ctx := cmd.Context()
			sess, err := resumeSession(ctx)
			if err != nil {
				return err
			}

			if err := relayClient().Send(ctx, sess.Data().AccessJwt, handle, message); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
}
