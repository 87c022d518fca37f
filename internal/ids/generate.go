// Package ids generates and resolves the short identifiers used for items,
// projects and tags.
package ids

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
	"time"
)

// Length is the number of characters in a generated ID.
const Length = 8

// Kind namespaces generated IDs so an item, a project and a tag created
// with the same name at the same instant still get different IDs.
type Kind string

// Kinds of record that carry generated IDs. Item IDs are unprefixed.
const (
	KindItem    Kind = ""
	KindProject Kind = "project"
	KindTag     Kind = "tag"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New derives an ID from kind, name and created. When taken reports a
// collision the timestamp is nudged forward a nanosecond and the ID is
// derived again. taken may be nil.
func New(kind Kind, name string, created time.Time, taken func(string) bool) string {
	for {
		id := derive(kind, name, created)
		if taken == nil || !taken(id) {
			return id
		}
		created = created.Add(time.Nanosecond)
	}
}

func derive(kind Kind, name string, created time.Time) string {
	input := name + created.Format(time.RFC3339Nano)
	if kind != KindItem {
		input = string(kind) + ":" + input
	}
	sum := sha256.Sum256([]byte(input))
	return strings.ToLower(encoding.EncodeToString(sum[:])[:Length])
}
