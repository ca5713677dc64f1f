package formula

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent

	// keywords
	tokIf
	tokElse
	tokAnd
	tokOr
	tokNot
	tokIn

	// operators
	tokPlus     // +
	tokMinus    // -
	tokStar     // *
	tokSlash    // /
	tokFloorDiv // //
	tokPercent  // %
	tokPower    // **
	tokEq       // ==
	tokNe       // !=
	tokLt       // <
	tokLe       // <=
	tokGt       // >
	tokGe       // >=
	tokLParen   // (
	tokRParen   // )
	tokLBracket // [
	tokRBracket // ]
	tokComma    // ,
	tokDot      // .
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]tokenKind{
	"if":   tokIf,
	"else": tokElse,
	"and":  tokAnd,
	"or":   tokOr,
	"not":  tokNot,
	"in":   tokIn,
}

// lex splits the expression text into tokens. Unknown characters are a
// syntax error.
func lex(text string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(text) {
		c := text[i]

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}

		start := i
		switch {
		case c >= '0' && c <= '9':
			for i < len(text) && text[i] >= '0' && text[i] <= '9' {
				i++
			}
			if i < len(text) && text[i] == '.' {
				i++
				for i < len(text) && text[i] >= '0' && text[i] <= '9' {
					i++
				}
			}
			tokens = append(tokens, token{tokNumber, text[start:i], start})

		case c == '\'' || c == '"':
			quote := c
			i++
			var sb strings.Builder
			closed := false
			for i < len(text) {
				if text[i] == quote {
					closed = true
					i++
					break
				}
				sb.WriteByte(text[i])
				i++
			}
			if !closed {
				return nil, errorf("invalid formula syntax: unterminated string at position %d", start)
			}
			tokens = append(tokens, token{tokString, sb.String(), start})

		case isIdentStart(rune(c)):
			for i < len(text) && isIdentPart(rune(text[i])) {
				i++
			}
			word := text[start:i]
			if kw, ok := keywords[word]; ok {
				tokens = append(tokens, token{kw, word, start})
			} else {
				tokens = append(tokens, token{tokIdent, word, start})
			}

		default:
			kind, width, err := lexOperator(text, i)
			if err != nil {
				return nil, err
			}
			i += width
			tokens = append(tokens, token{kind, text[start:i], start})
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(text)})
	return tokens, nil
}

func lexOperator(text string, i int) (tokenKind, int, error) {
	two := ""
	if i+1 < len(text) {
		two = text[i : i+2]
	}
	switch two {
	case "//":
		return tokFloorDiv, 2, nil
	case "**":
		return tokPower, 2, nil
	case "==":
		return tokEq, 2, nil
	case "!=":
		return tokNe, 2, nil
	case "<=":
		return tokLe, 2, nil
	case ">=":
		return tokGe, 2, nil
	}
	switch text[i] {
	case '+':
		return tokPlus, 1, nil
	case '-':
		return tokMinus, 1, nil
	case '*':
		return tokStar, 1, nil
	case '/':
		return tokSlash, 1, nil
	case '%':
		return tokPercent, 1, nil
	case '<':
		return tokLt, 1, nil
	case '>':
		return tokGt, 1, nil
	case '(':
		return tokLParen, 1, nil
	case ')':
		return tokRParen, 1, nil
	case '[':
		return tokLBracket, 1, nil
	case ']':
		return tokRBracket, 1, nil
	case ',':
		return tokComma, 1, nil
	case '.':
		return tokDot, 1, nil
	}
	return tokEOF, 0, errorf("invalid formula syntax: unexpected character %q at position %d", string(text[i]), i)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
