// Package css provides selector matching and inline style parsing for the
// element tree.
package css

import (
	"strings"

	"github.com/chrisuehlinger/expose/dom"
)

// CSSSelector represents a parsed CSS selector.
type CSSSelector struct {
	// A selector is a list of complex selectors separated by commas
	ComplexSelectors []*ComplexSelector
}

// ComplexSelector is a chain of compound selectors separated by combinators.
type ComplexSelector struct {
	Compounds []*CompoundSelector
}

// CompoundSelector is a sequence of simple selectors.
type CompoundSelector struct {
	TypeName          string // "" or "*" for any
	IDSelectors       []string
	ClassSelectors    []string
	AttributeMatchers []*AttributeMatcher
	Combinator        CombinatorType // Combinator following this compound selector
}

// CombinatorType represents the type of combinator.
type CombinatorType int

const (
	CombinatorNone       CombinatorType = iota
	CombinatorDescendant                // (whitespace)
	CombinatorChild                     // >
)

// AttributeMatcher represents an attribute selector.
type AttributeMatcher struct {
	Name     string
	Operator AttributeOperator
	Value    string
}

// AttributeOperator represents the operator in an attribute selector.
type AttributeOperator int

const (
	AttrExists AttributeOperator = iota // [attr]
	AttrEquals                          // [attr=value]
)

// ParseSelector parses a selector list such as "div.lazy, #hero > img".
func ParseSelector(input string) (*CSSSelector, error) {
	p := &selectorParser{input: input}
	return p.parseSelector()
}

type selectorParser struct {
	input string
	pos   int
}

func (p *selectorParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *selectorParser) current() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *selectorParser) skipWhitespace() bool {
	start := p.pos
	for !p.eof() && isSpace(p.current()) {
		p.pos++
	}
	return p.pos > start
}

func (p *selectorParser) parseSelector() (*CSSSelector, error) {
	sel := &CSSSelector{}
	for {
		p.skipWhitespace()
		complex, err := p.parseComplexSelector()
		if err != nil {
			return nil, err
		}
		sel.ComplexSelectors = append(sel.ComplexSelectors, complex)
		p.skipWhitespace()
		if p.eof() {
			return sel, nil
		}
		if p.current() != ',' {
			return nil, dom.ErrSyntax("unexpected '" + string(p.current()) + "' in selector " + p.input)
		}
		p.pos++
	}
}

func (p *selectorParser) parseComplexSelector() (*ComplexSelector, error) {
	cs := &ComplexSelector{}
	for {
		compound, err := p.parseCompoundSelector()
		if err != nil {
			return nil, err
		}
		cs.Compounds = append(cs.Compounds, compound)

		sawSpace := p.skipWhitespace()
		switch {
		case p.current() == '>':
			p.pos++
			p.skipWhitespace()
			compound.Combinator = CombinatorChild
		case sawSpace && !p.eof() && p.current() != ',':
			compound.Combinator = CombinatorDescendant
		default:
			return cs, nil
		}
	}
}

func (p *selectorParser) parseCompoundSelector() (*CompoundSelector, error) {
	c := &CompoundSelector{}
	start := p.pos

	if p.current() == '*' {
		p.pos++
		c.TypeName = "*"
	} else if isNameChar(p.current()) {
		c.TypeName = strings.ToLower(p.parseName())
	}

	for !p.eof() {
		switch p.current() {
		case '#':
			p.pos++
			c.IDSelectors = append(c.IDSelectors, p.parseName())
		case '.':
			p.pos++
			c.ClassSelectors = append(c.ClassSelectors, p.parseName())
		case '[':
			attr, err := p.parseAttributeSelector()
			if err != nil {
				return nil, err
			}
			c.AttributeMatchers = append(c.AttributeMatchers, attr)
		default:
			if p.pos == start {
				return nil, dom.ErrSyntax("expected a selector in " + p.input)
			}
			return c, nil
		}
	}
	if p.pos == start {
		return nil, dom.ErrSyntax("empty selector in " + p.input)
	}
	return c, nil
}

func (p *selectorParser) parseAttributeSelector() (*AttributeMatcher, error) {
	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return nil, dom.ErrSyntax("unterminated attribute selector in " + p.input)
	}
	body := strings.TrimSpace(p.input[p.pos+1 : p.pos+end])
	p.pos += end + 1

	name, value, hasValue := strings.Cut(body, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, dom.ErrSyntax("missing attribute name in " + p.input)
	}
	if !hasValue {
		return &AttributeMatcher{Name: name, Operator: AttrExists}, nil
	}
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	return &AttributeMatcher{Name: name, Operator: AttrEquals, Value: value}, nil
}

func (p *selectorParser) parseName() string {
	start := p.pos
	for !p.eof() && isNameChar(p.current()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// Specificity represents CSS selector specificity.
// Per https://www.w3.org/TR/selectors-4/#specificity
type Specificity struct {
	A int // ID selectors
	B int // Class selectors, attribute selectors
	C int // Type selectors
}

// Compare compares two specificities. Returns -1, 0, or 1.
func (s Specificity) Compare(other Specificity) int {
	if s.A != other.A {
		if s.A > other.A {
			return 1
		}
		return -1
	}
	if s.B != other.B {
		if s.B > other.B {
			return 1
		}
		return -1
	}
	if s.C != other.C {
		if s.C > other.C {
			return 1
		}
		return -1
	}
	return 0
}

// Less returns true if this specificity is less than the other.
func (s Specificity) Less(other Specificity) bool {
	return s.Compare(other) < 0
}

// CalculateSpecificity calculates the specificity of a complex selector.
func (cs *ComplexSelector) CalculateSpecificity() Specificity {
	var spec Specificity
	for _, compound := range cs.Compounds {
		spec.A += len(compound.IDSelectors)
		spec.B += len(compound.ClassSelectors)
		spec.B += len(compound.AttributeMatchers)
		if compound.TypeName != "" && compound.TypeName != "*" {
			spec.C++
		}
	}
	return spec
}

// CalculateSpecificity returns the maximum specificity of any complex selector.
func (s *CSSSelector) CalculateSpecificity() Specificity {
	var maxSpec Specificity
	for _, cs := range s.ComplexSelectors {
		spec := cs.CalculateSpecificity()
		if maxSpec.Less(spec) {
			maxSpec = spec
		}
	}
	return maxSpec
}
