package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skymail/skymail/internal/bsky"
)

// post <id>: republish a received message as a public reply under the
// recipient's own identity. The post goes through the recipient's live
// session; the relay never posts on anyone's behalf.
func postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Publish a received message as a public post",
		Args:  cobra.ExactArgs(1),
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

			var text string
			for _, msg := range messages {
				if msg.ID == args[0] {
					text = fmt.Sprintf("@%s - %s", msg.UserHandle, msg.Message)
					break
				}
			}
			if text == "" {
				return fmt.Errorf("no message with id %s in your mailbox", args[0])
			}

			client := bsky.NewClient(pdsHost)
			directory := bsky.NewDirectory(client, "")
			facets, err := bsky.DetectFacets(ctx, text, directory)
			if err != nil {
				return err
			}

			ref, err := sess.PublishPost(ctx, text, facets)
			if err != nil {
				return err
			}

			viewerURL, err := ref.ViewerURL()
			if err != nil {
				return err
			}
			fmt.Println("posted:", viewerURL)
			return nil
		},
	}
}
