package bsky

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Facet annotates a byte range of post text with a feature (mention or
// link). Indices are byte offsets into the UTF-8 text, as the network's
// richtext format requires.
type Facet struct {
	Index    ByteSlice `json:"index"`
	Features []Feature `json:"features"`
}

// ByteSlice is a half-open [start, end) byte range.
type ByteSlice struct {
	ByteStart int64 `json:"byteStart"`
	ByteEnd   int64 `json:"byteEnd"`
}

// Feature is a single facet feature. Exactly one of DID or URI is set
// depending on Type.
type Feature struct {
	Type string `json:"$type"`
	DID  string `json:"did,omitempty"`
	URI  string `json:"uri,omitempty"`
}

const (
	featureMention = "app.bsky.richtext.facet#mention"
	featureLink    = "app.bsky.richtext.facet#link"
)

// HandleResolver resolves a handle to a DID; mentions need one because
// facets reference the mentioned identity by DID, not by handle.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

var (
	mentionPattern = regexp.MustCompile(`(?:^|[\s(])(@[a-zA-Z0-9][a-zA-Z0-9.-]*)`)
	linkPattern    = regexp.MustCompile(`(?:^|[\s(])(https?://[^\s)]+)`)
)

// DetectFacets scans text for mentions and links. Mentions whose handle
// does not resolve are left un-faceted (plain text); transient resolution
// failures abort detection.
func DetectFacets(ctx context.Context, text string, resolver HandleResolver) ([]Facet, error) {
	var facets []Facet

	for _, m := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		handle := strings.TrimSuffix(text[start+1:end], ".")
		end = start + 1 + len(handle)

		// Bare words like "@here" are not handles.
		if !strings.Contains(handle, ".") {
			continue
		}

		did, err := resolver.ResolveHandle(ctx, handle)
		if err != nil {
			if errors.Is(err, ErrHandleNotFound) {
				continue
			}
			return nil, err
		}

		facets = append(facets, Facet{
			Index:    ByteSlice{ByteStart: int64(start), ByteEnd: int64(end)},
			Features: []Feature{{Type: featureMention, DID: did}},
		})
	}

	for _, m := range linkPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		uri := strings.TrimRight(text[start:end], ".,;:!?")
		end = start + len(uri)

		facets = append(facets, Facet{
			Index:    ByteSlice{ByteStart: int64(start), ByteEnd: int64(end)},
			Features: []Feature{{Type: featureLink, URI: uri}},
		})
	}

	return facets, nil
}
