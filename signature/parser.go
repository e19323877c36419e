package signature

import "fmt"

// modifiers accepted (and, except static, ignored) before a class header.
var modifiers = map[string]bool{
	"public":    true,
	"protected": true,
	"private":   true,
	"abstract":  true,
	"final":     true,
	"sealed":    true,
	"static":    true,
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	return &parser{src: src, toks: toks}, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Input: p.src, Offset: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(t, "expected %s, found %s", kind, describe(t))
	}
	return t, nil
}

func (p *parser) accept(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	t := p.peek()
	if t.kind == tokIdent && t.text == kw {
		p.next()
		return true
	}
	return false
}

func (p *parser) ident() (string, error) {
	t, err := p.expect(tokIdent)
	if err != nil {
		return "", err
	}
	if isReserved(t.text) {
		return "", p.errorf(t, "unexpected keyword %q", t.text)
	}
	return t.text, nil
}

func (p *parser) end() error {
	if t := p.peek(); t.kind != tokEOF {
		return p.errorf(t, "unexpected %s", describe(t))
	}
	return nil
}

func describe(t token) string {
	if t.kind == tokIdent {
		return fmt.Sprintf("%q", t.text)
	}
	return t.kind.String()
}

func isReserved(s string) bool {
	switch s {
	case "extends", "super", "implements", "class", "interface":
		return true
	}
	return false
}

// ParseClass parses a class or interface header.
func ParseClass(src string) (*ClassDecl, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	d, err := p.classDecl()
	if err != nil {
		return nil, err
	}
	return d, p.end()
}

// ParseType parses a single type expression.
func ParseType(src string) (*TypeExpr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	t, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	return t, p.end()
}

// ParseTypeParams parses a bracketed type parameter list such as
// "<K extends Comparable<K>, V>".
func ParseTypeParams(src string) ([]TypeParam, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	params, err := p.typeParams()
	if err != nil {
		return nil, err
	}
	return params, p.end()
}

// ParseMember parses a field ("name: Type") or method ("<T> name(): Type")
// declaration.
func ParseMember(src string) (*MemberDecl, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	m, err := p.member()
	if err != nil {
		return nil, err
	}
	return m, p.end()
}

func (p *parser) classDecl() (*ClassDecl, error) {
	d := &ClassDecl{}
	for {
		t := p.peek()
		if t.kind != tokIdent || !modifiers[t.text] {
			break
		}
		p.next()
		if t.text == "static" {
			d.Static = true
		}
	}

	switch t := p.next(); {
	case t.kind == tokIdent && t.text == "class":
	case t.kind == tokIdent && t.text == "interface":
		d.Interface = true
	default:
		return nil, p.errorf(t, "expected \"class\" or \"interface\", found %s", describe(t))
	}

	name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	d.Name = name

	if p.peek().kind == tokLAngle {
		if d.TypeParams, err = p.typeParams(); err != nil {
			return nil, err
		}
	}

	if p.acceptKeyword("extends") {
		if d.Extends, err = p.typeList(); err != nil {
			return nil, err
		}
		if !d.Interface && len(d.Extends) > 1 {
			return nil, p.errorf(p.toks[p.pos-1], "class %s extends more than one class", d.Name)
		}
	}

	if t := p.peek(); t.kind == tokIdent && t.text == "implements" {
		if d.Interface {
			return nil, p.errorf(t, "interface %s cannot implement; use extends", d.Name)
		}
		p.next()
		if d.Implements, err = p.typeList(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (p *parser) qualifiedName() (string, error) {
	name, err := p.ident()
	if err != nil {
		return "", err
	}
	for p.accept(tokDot) {
		part, err := p.ident()
		if err != nil {
			return "", err
		}
		name += "." + part
	}
	return name, nil
}

func (p *parser) typeParams() ([]TypeParam, error) {
	if _, err := p.expect(tokLAngle); err != nil {
		return nil, err
	}
	var params []TypeParam
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		tp := TypeParam{Name: name}
		if p.acceptKeyword("extends") {
			for {
				bound, err := p.typeExpr()
				if err != nil {
					return nil, err
				}
				if bound.Wildcard {
					return nil, p.errorf(p.toks[p.pos-1], "wildcard is not a valid bound")
				}
				tp.Bounds = append(tp.Bounds, bound)
				if !p.accept(tokAmp) {
					break
				}
			}
		}
		params = append(params, tp)
		if !p.accept(tokComma) {
			break
		}
	}
	if _, err := p.expect(tokRAngle); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) typeList() ([]*TypeExpr, error) {
	var list []*TypeExpr
	for {
		t, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		if t.Wildcard {
			return nil, p.errorf(p.toks[p.pos-1], "wildcard is not a valid supertype")
		}
		list = append(list, t)
		if !p.accept(tokComma) {
			return list, nil
		}
	}
}

func (p *parser) typeExpr() (*TypeExpr, error) {
	start := p.peek()
	if p.accept(tokQuestion) {
		return p.wildcard(start.pos)
	}

	t := &TypeExpr{Pos: start.pos}
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		seg := Segment{Name: name}
		if p.peek().kind == tokLAngle {
			if seg.Args, err = p.typeArgs(); err != nil {
				return nil, err
			}
		}
		t.Segments = append(t.Segments, seg)
		if !p.accept(tokDot) {
			break
		}
	}
	for p.accept(tokLBrack) {
		if _, err := p.expect(tokRBrack); err != nil {
			return nil, err
		}
		t.Dims++
	}
	return t, nil
}

func (p *parser) wildcard(pos int) (*TypeExpr, error) {
	t := &TypeExpr{Wildcard: true, Pos: pos}
	var bounds *[]*TypeExpr
	switch {
	case p.acceptKeyword("extends"):
		bounds = &t.Upper
	case p.acceptKeyword("super"):
		bounds = &t.Lower
	default:
		return t, nil
	}
	for {
		b, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		if b.Wildcard {
			return nil, p.errorf(p.toks[p.pos-1], "wildcard is not a valid bound")
		}
		*bounds = append(*bounds, b)
		if !p.accept(tokAmp) {
			return t, nil
		}
	}
}

func (p *parser) typeArgs() ([]*TypeExpr, error) {
	if _, err := p.expect(tokLAngle); err != nil {
		return nil, err
	}
	// Diamond "<>" carries no arguments.
	if p.accept(tokRAngle) {
		return nil, nil
	}
	var args []*TypeExpr
	for {
		a, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.accept(tokComma) {
			break
		}
	}
	if _, err := p.expect(tokRAngle); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) member() (*MemberDecl, error) {
	m := &MemberDecl{}
	var err error
	if p.peek().kind == tokLAngle {
		if m.TypeParams, err = p.typeParams(); err != nil {
			return nil, err
		}
		m.Method = true
	}
	if m.Name, err = p.ident(); err != nil {
		return nil, err
	}
	if p.accept(tokLParen) {
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		m.Method = true
	} else if m.Method {
		t := p.peek()
		return nil, p.errorf(t, "expected '(' after generic method name, found %s", describe(t))
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	if m.Type, err = p.typeExpr(); err != nil {
		return nil, err
	}
	if m.Type.Wildcard {
		return nil, p.errorf(p.toks[p.pos-1], "wildcard is not a valid member type")
	}
	return m, nil
}
