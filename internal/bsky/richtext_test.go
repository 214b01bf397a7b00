package bsky

import (
	"context"
	"testing"
)

type tableResolver map[string]string

func (r tableResolver) ResolveHandle(_ context.Context, handle string) (string, error) {
	did, ok := r[handle]
	if !ok {
		return "", ErrHandleNotFound
	}
	return did, nil
}

func TestDetectFacetsMention(t *testing.T) {
	resolver := tableResolver{"alice.bsky.social": "did:plc:alice"}
	text := "@alice.bsky.social - you have mail"

	facets, err := DetectFacets(context.Background(), text, resolver)
	if err != nil {
		t.Fatalf("detect facets: %v", err)
	}
	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}

	f := facets[0]
	if f.Index.ByteStart != 0 || f.Index.ByteEnd != 18 {
		t.Errorf("expected byte range [0,18), got [%d,%d)", f.Index.ByteStart, f.Index.ByteEnd)
	}
	if len(f.Features) != 1 || f.Features[0].Type != featureMention {
		t.Fatalf("expected one mention feature, got %+v", f.Features)
	}
	if f.Features[0].DID != "did:plc:alice" {
		t.Errorf("expected did:plc:alice, got %q", f.Features[0].DID)
	}
	if text[f.Index.ByteStart:f.Index.ByteEnd] != "@alice.bsky.social" {
		t.Errorf("facet covers %q", text[f.Index.ByteStart:f.Index.ByteEnd])
	}
}

// Byte offsets must survive multibyte text before the mention.
func TestDetectFacetsMultibyteOffsets(t *testing.T) {
	resolver := tableResolver{"alice.bsky.social": "did:plc:alice"}
	text := "olá @alice.bsky.social"

	facets, err := DetectFacets(context.Background(), text, resolver)
	if err != nil {
		t.Fatalf("detect facets: %v", err)
	}
	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}

	got := text[facets[0].Index.ByteStart:facets[0].Index.ByteEnd]
	if got != "@alice.bsky.social" {
		t.Errorf("facet covers %q, offsets are not byte-accurate", got)
	}
}

func TestDetectFacetsLink(t *testing.T) {
	text := "read this: https://example.com/a. thanks"

	facets, err := DetectFacets(context.Background(), text, tableResolver{})
	if err != nil {
		t.Fatalf("detect facets: %v", err)
	}
	if len(facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(facets))
	}

	f := facets[0]
	if f.Features[0].Type != featureLink {
		t.Fatalf("expected link feature, got %+v", f.Features[0])
	}
	// Trailing sentence punctuation is not part of the link.
	if f.Features[0].URI != "https://example.com/a" {
		t.Errorf("expected trimmed URI, got %q", f.Features[0].URI)
	}
	if text[f.Index.ByteStart:f.Index.ByteEnd] != "https://example.com/a" {
		t.Errorf("facet covers %q", text[f.Index.ByteStart:f.Index.ByteEnd])
	}
}

func TestDetectFacetsSkipsNonHandles(t *testing.T) {
	facets, err := DetectFacets(context.Background(), "hey @everyone no mention here", tableResolver{})
	if err != nil {
		t.Fatalf("detect facets: %v", err)
	}
	if len(facets) != 0 {
		t.Errorf("expected no facets for a bare word, got %+v", facets)
	}
}

func TestDetectFacetsUnresolvableMentionLeftPlain(t *testing.T) {
	facets, err := DetectFacets(context.Background(), "hi @ghost.bsky.social", tableResolver{})
	if err != nil {
		t.Fatalf("detect facets: %v", err)
	}
	if len(facets) != 0 {
		t.Errorf("expected unresolvable mention to stay plain text, got %+v", facets)
	}
}

func TestDetectFacetsMentionAndLink(t *testing.T) {
	resolver := tableResolver{"bob.test": "did:plc:bob"}
	text := "@bob.test see https://example.com/page"

	facets, err := DetectFacets(context.Background(), text, resolver)
	if err != nil {
		t.Fatalf("detect facets: %v", err)
	}
	if len(facets) != 2 {
		t.Fatalf("expected 2 facets, got %d", len(facets))
	}
}
