// Package lexer implements the maximal-munch scanner over the ordered
// token catalog in lang/token.
package lexer

import (
	"fmt"

	"github.com/shadowCow/corelang/lang/token"
)

// Error reports a lexical failure: no catalog pattern ever matched any
// prefix of the source starting at Offset.
type Error struct {
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexical error at offset %d: no token pattern matches", e.Offset)
}

// Scan tokenizes source and returns the ordered, non-useless token
// stream (comments and whitespace are dropped). Source must outlive
// every returned Token, since each Lexeme is a slice of source.
//
// The algorithm grows a candidate window [begin, end) one byte at a
// time and, at each length, records which catalog patterns fully match
// the window. When extending the window by one more byte invalidates
// every pattern, the token is the longest window that still had a
// match, broken by catalog declaration order. A window that no pattern
// has matched yet keeps growing (a lone `|` matches nothing, `||` does).
func Scan(source string) ([]token.Token, error) {
	var tokens []token.Token
	n := len(source)

	begin := 0
	for begin < n {
		end := begin
		var lastValid []int

		for probe := begin; probe < n; probe++ {
			candidate := source[begin : probe+1]

			var valid []int
			for i, pat := range token.Catalog {
				if pat.Regexp.MatchString(candidate) {
					valid = append(valid, i)
				}
			}

			if len(valid) == 0 {
				if len(lastValid) == 0 {
					continue
				}
				break
			}

			lastValid = valid
			end = probe + 1
		}

		if len(lastValid) == 0 {
			return nil, &Error{Offset: begin}
		}

		pat := token.Catalog[lastValid[0]]
		lexeme := source[begin:end]
		if !pat.Skip {
			tokens = append(tokens, token.Token{Kind: pat.Kind, Lexeme: lexeme, Offset: begin})
		}

		begin = end
	}

	return tokens, nil
}

// Join reconstructs the original source slice spanned by a run of
// adjacent tokens, used by tests asserting the lossless-tokenization
// property (spec §8): re-joining lexemes (including dropped runs) must
// reproduce the input exactly. Since Scan discards skipped tokens, this
// helper is only meaningful against a stream captured before dropping;
// callers that need the lossless property should use ScanAll.
func Join(tokens []token.Token) string {
	var out []byte
	for _, t := range tokens {
		out = append(out, t.Lexeme...)
	}
	return string(out)
}

// ScanAll behaves like Scan but retains comments and whitespace in the
// returned stream, for verifying losslessness.
func ScanAll(source string) ([]token.Token, error) {
	var tokens []token.Token
	n := len(source)

	begin := 0
	for begin < n {
		end := begin
		var lastValid []int

		for probe := begin; probe < n; probe++ {
			candidate := source[begin : probe+1]

			var valid []int
			for i, pat := range token.Catalog {
				if pat.Regexp.MatchString(candidate) {
					valid = append(valid, i)
				}
			}

			if len(valid) == 0 {
				if len(lastValid) == 0 {
					continue
				}
				break
			}

			lastValid = valid
			end = probe + 1
		}

		if len(lastValid) == 0 {
			return nil, &Error{Offset: begin}
		}

		pat := token.Catalog[lastValid[0]]
		tokens = append(tokens, token.Token{Kind: pat.Kind, Lexeme: source[begin:end], Offset: begin})
		begin = end
	}

	return tokens, nil
}
