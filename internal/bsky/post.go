package bsky

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const postCollection = "app.bsky.feed.post"

// PostRef is the canonical reference to a published post: its at-URI plus
// content hash.
type PostRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ViewerURL converts the at-URI into the human-viewable web URL.
func (r *PostRef) ViewerURL() (string, error) {
	// at://<authority>/<collection>/<rkey>
	rest, ok := strings.CutPrefix(r.URI, "at://")
	if !ok {
		return "", fmt.Errorf("not an at-URI: %q", r.URI)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", fmt.Errorf("malformed at-URI: %q", r.URI)
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", parts[0], parts[2]), nil
}

type postRecord struct {
	Type      string  `json:"$type"`
	Text      string  `json:"text"`
	Facets    []Facet `json:"facets,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type createRecordInput struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

// PublishPost submits a post with the given text and facets under this
// session's identity and returns its canonical reference.
func (s *Session) PublishPost(ctx context.Context, text string, facets []Facet) (*PostRef, error) {
	did := s.DID()
	if did == "" {
		return nil, ErrNoSession
	}

	input := createRecordInput{
		Repo:       did,
		Collection: postCollection,
		Record: postRecord{
			Type:      postCollection,
			Text:      text,
			Facets:    facets,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	var ref PostRef
	err := s.WithAccess(ctx, func(accessJwt string) error {
		return s.client.Procedure(ctx, "com.atproto.repo.createRecord", accessJwt, input, &ref)
	})
	if err != nil {
		return nil, fmt.Errorf("publish post: %w", err)
	}
	return &ref, nil
}
