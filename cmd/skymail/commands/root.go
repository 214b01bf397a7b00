// Package commands implements the skymail CLI: the recipient-side client
// that reads the mailbox and republishes messages under the recipient's
// own network identity.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skymail/skymail/internal/bsky"
	"github.com/skymail/skymail/internal/mailclient"
	"github.com/skymail/skymail/internal/sessionfile"
)

var (
	home       string
	passphrase string
	relayURL   string
	pdsHost    string
)

const sessionFileName = "session.enc"

func Execute() error {
	root := &cobra.Command{
		Use:   "skymail",
		Short: "Anonymous mailbox client for the AT Protocol network",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".skymail")
			}
			return os.MkdirAll(home, 0o700)
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.skymail)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the stored session")
	root.PersistentFlags().StringVar(&relayURL, "relay", "http://localhost:3009", "mailbox relay base URL")
	root.PersistentFlags().StringVar(&pdsHost, "pds", bsky.DefaultHost, "network host")

	root.AddCommand(loginCmd(), logoutCmd(), whoamiCmd(), inboxCmd(), sendCmd(), deleteCmd(), postCmd())
	return root.Execute()
}

func sessionPath() string {
	return filepath.Join(home, sessionFileName)
}

func clearSession() error {
	return sessionfile.Clear(sessionPath())
}

func relayClient() *mailclient.Client {
	return mailclient.New(relayURL)
}

// newSession builds a session whose lifecycle events keep the sealed
// session file current: create and update rewrite it, expiry clears it.
func newSession() *bsky.Session {
	client := bsky.NewClient(pdsHost)
	return bsky.NewSession(client, func(event bsky.SessionEvent, data *bsky.SessionData) {
		switch event {
		case bsky.SessionCreated, bsky.SessionUpdated:
			if err := sessionfile.SaveSealed(sessionPath(), passphrase, data); err != nil {
				fmt.Fprintln(os.Stderr, "warning: could not persist session:", err)
			}
		case bsky.SessionExpired:
			if err := sessionfile.Clear(sessionPath()); err != nil {
				fmt.Fprintln(os.Stderr, "warning: could not clear session:", err)
			}
		}
	})
}

// resumeSession re-establishes the stored session, refreshing tokens if
// needed.
func resumeSession(ctx context.Context) (*bsky.Session, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase required (-p)")
	}

	data, err := sessionfile.LoadSealed(sessionPath(), passphrase)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no stored session, run `skymail login` first")
		}
		return nil, err
	}

	sess := newSession()
	if err := sess.Resume(ctx, *data); err != nil {
		if errors.Is(err, bsky.ErrSessionExpired) {
			return nil, fmt.Errorf("session expired, run `skymail login` again")
		}
		return nil, err
	}
	return sess, nil
}
