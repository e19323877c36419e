// Package signature parses Java-like generic signatures: class and interface
// headers, type parameter lists, type expressions, and member declarations.
//
//	class ArrayList<E> extends AbstractList<E> implements List<E>, RandomAccess
//	interface SwitchArgumentsMap<VE, KE> extends Map<KE, VE>
//	Map<? extends Number, List<String>>
//	inner: Outer<E>.Inner
//	<T> get(): T
//
// The parser only builds syntax trees. Names are not resolved here; see
// package classpath.
package signature

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLAngle   // <
	tokRAngle   // >
	tokComma    // ,
	tokDot      // .
	tokAmp      // &
	tokQuestion // ?
	tokLParen   // (
	tokRParen   // )
	tokColon    // :
	tokLBrack   // [
	tokRBrack   // ]
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokLAngle:
		return "'<'"
	case tokRAngle:
		return "'>'"
	case tokComma:
		return "','"
	case tokDot:
		return "'.'"
	case tokAmp:
		return "'&'"
	case tokQuestion:
		return "'?'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokColon:
		return "':'"
	case tokLBrack:
		return "'['"
	case tokRBrack:
		return "']'"
	default:
		return "unknown token"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

var punct = map[rune]tokenKind{
	'<': tokLAngle,
	'>': tokRAngle,
	',': tokComma,
	'.': tokDot,
	'&': tokAmp,
	'?': tokQuestion,
	'(': tokLParen,
	')': tokRParen,
	':': tokColon,
	'[': tokLBrack,
	']': tokRBrack,
}

// SyntaxError reports malformed input with the byte offset of the problem.
type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("signature: %s at offset %d in %q", e.Msg, e.Offset, e.Input)
}

// lex splits src into tokens. Whitespace separates tokens and is dropped.
func lex(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case isIdentStart(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			kind, ok := punct[r]
			if !ok {
				return nil, &SyntaxError{Input: src, Offset: i, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
			toks = append(toks, token{kind: kind, text: string(r), pos: i})
			i += size
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
