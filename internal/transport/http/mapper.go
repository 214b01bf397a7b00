package http

import (
	"github.com/skymail/skymail/internal/store"
)

// MessageResponse is the wire shape of a message. Field names are part of
// the client contract and must not change.
type MessageResponse struct {
	ID         string `json:"id"`
	UserDid    string `json:"userDid"`
	UserHandle string `json:"userHandle"`
	Message    string `json:"message"`
	IndexedAt  string `json:"indexedAt"`
}

func toMessageResponses(messages []*store.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, MessageResponse{
			ID:         msg.ID,
			UserDid:    msg.RecipientDID,
			UserHandle: msg.RecipientHandle,
			Message:    msg.Body,
			IndexedAt:  msg.ArrivedAt.UTC().Format(store.TimeLayout),
		})
	}
	return out
}
