// Package textutil holds the text transforms shared by the lyric pipeline:
// lyric tokenization, word identifier derivation and the normalized keys
// used to match songs against external catalogs.
package textutil

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenize lower-cases a lyric line and splits it on whitespace, dropping
// tokens that are empty after trimming. Token order is preserved so a
// line can be reconstructed from its word sequence. Punctuation is not
// stripped and no stemming is applied; "world!" and "world" are distinct
// tokens.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		tokens = append(tokens, f)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// WordID derives the stable identifier for a normalized token:
// "word_" plus the first 8 hex characters of the token's MD5 digest.
// The hash is used for addressing, not security. Two distinct tokens can
// collide in 8 hex characters; collisions are counted upstream rather
// than rejected.
func WordID(token string) string {
	sum := md5.Sum([]byte(token))
	return "word_" + hex.EncodeToString(sum[:])[:8]
}

// UniqueCount returns the number of distinct values in ids.
func UniqueCount(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// MatchKey normalizes a title or album name for fuzzy catalog matching:
// lower-case, diacritics stripped, whitespace collapsed. Unlike Tokenize
// this is lossy on purpose and must never feed the word pipeline.
func MatchKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if folded, _, err := transform.String(stripMarks, name); err == nil {
		name = folded
	}
	return whitespaceRegex.ReplaceAllString(name, " ")
}
