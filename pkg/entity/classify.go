// Package entity implements the statistical entity extractor (C4), the
// entity type classifier (C5 helper), and the optional semantic
// validation channel described in SPEC_FULL.md.
package entity

import (
	"regexp"
	"strings"
)

// Type enumerates the entity type classes produced by Classify.
type Type string

const (
	TypeIP         Type = "ip"
	TypePath       Type = "path"
	TypeBlockID    Type = "block_id"
	TypeIdentifier Type = "identifier"
	TypeNumber     Type = "number"
	TypeCode       Type = "code"
	TypeToken      Type = "token"
	TypeUnknown    Type = "unknown"
)

var (
	ipv4Port       = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3}){3})(?::\d{1,5})?$`)
	identifierLike = regexp.MustCompile(`^[A-Za-z]\w*-\w+`)
	numberLike     = regexp.MustCompile(`^\d+$`)
	codeLike       = regexp.MustCompile(`^[A-Z0-9_]{3,}$`)
)

// Classify derives an entity's type via the fixed first-match cascade
// from spec.md §4.5.
func Classify(ent string) Type {
	s := strings.TrimSpace(ent)
	if s == "" {
		return TypeUnknown
	}
	switch {
	case ipv4Port.MatchString(s):
		return TypeIP
	case strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./"):
		return TypePath
	case strings.HasPrefix(s, "blk_"):
		return TypeBlockID
	case identifierLike.MatchString(s):
		return TypeIdentifier
	case numberLike.MatchString(s):
		return TypeNumber
	case codeLike.MatchString(s):
		return TypeCode
	default:
		return TypeToken
	}
}

// ipv4Bare returns the bare IPv4 address (no port) from a token matching
// the IPv4(:port)? shape, and whether it matched at all.
func ipv4Bare(tok string) (string, bool) {
	m := ipv4Port.FindStringSubmatch(tok)
	if m == nil {
		return "", false
	}
	return m[1], true
}
