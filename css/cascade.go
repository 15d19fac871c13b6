package css

import (
	"sort"
	"strings"

	"github.com/chrisuehlinger/expose/dom"
)

// CascadeOrigin represents the origin of a stylesheet in the cascade.
type CascadeOrigin int

const (
	OriginUserAgent CascadeOrigin = iota
	OriginAuthor
)

// Rule is a style rule: a selector list and its declarations.
type Rule struct {
	SelectorText string
	Selector     *CSSSelector
	Declarations Declarations
}

// Stylesheet is an ordered list of style rules.
type Stylesheet struct {
	Rules []Rule
}

// ParseStylesheet parses style rules from CSS text. At-rules and rules
// with selectors outside the supported subset are skipped.
func ParseStylesheet(text string) *Stylesheet {
	text = stripComments(text)
	ss := &Stylesheet{}
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			return ss
		}
		closing := matchingBrace(text, open)
		prelude := strings.TrimSpace(text[:open])
		body := text[open+1 : closing]
		if closing < len(text) {
			closing++
		}
		text = text[closing:]

		// Statement at-rules (@import, @charset) end at a semicolon.
		for strings.HasPrefix(prelude, "@") {
			_, rest, ok := strings.Cut(prelude, ";")
			if !ok {
				break
			}
			prelude = strings.TrimSpace(rest)
		}
		if prelude == "" || strings.HasPrefix(prelude, "@") {
			continue
		}
		sel, err := ParseSelector(prelude)
		if err != nil {
			continue
		}
		ss.Rules = append(ss.Rules, Rule{
			SelectorText: prelude,
			Selector:     sel,
			Declarations: ParseDeclarations(body),
		})
	}
}

// matchingBrace returns the index of the brace closing the block opened at
// open, or len(text) for an unterminated block.
func matchingBrace(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(text)
}

func stripComments(text string) string {
	var sb strings.Builder
	for {
		start := strings.Index(text, "/*")
		if start < 0 {
			sb.WriteString(text)
			return sb.String()
		}
		sb.WriteString(text[:start])
		end := strings.Index(text[start+2:], "*/")
		if end < 0 {
			return sb.String()
		}
		text = text[start+2+end+2:]
	}
}

// MatchedRule is a rule matching an element, with the data used for
// cascade ordering.
type MatchedRule struct {
	Rule        *Rule
	Origin      CascadeOrigin
	Specificity Specificity
	Order       int // Source order (for stable sorting)
}

// StyleResolver resolves computed styles for elements using the CSS cascade.
type StyleResolver struct {
	userAgentSheet *Stylesheet
	authorSheets   []*Stylesheet
}

// NewStyleResolver creates a resolver with the default user agent stylesheet.
func NewStyleResolver() *StyleResolver {
	return &StyleResolver{userAgentSheet: defaultUserAgentSheet}
}

// ResolverForDocument creates a resolver with an author stylesheet for every
// <style> element in doc, in document order.
func ResolverForDocument(doc *dom.Document) *StyleResolver {
	sr := NewStyleResolver()
	for _, el := range doc.ElementsByTagName("style") {
		sr.AddAuthorStylesheet(ParseStylesheet(el.Text()))
	}
	return sr
}

// AddAuthorStylesheet adds an author stylesheet.
func (sr *StyleResolver) AddAuthorStylesheet(ss *Stylesheet) {
	sr.authorSheets = append(sr.authorSheets, ss)
}

// ComputedStyle returns the cascaded declarations for el: user agent rules,
// then author rules by specificity and source order, then the element's
// style attribute.
func (sr *StyleResolver) ComputedStyle(el *dom.Element) Declarations {
	matched := sr.collectMatchingRules(el)
	sortByPrecedence(matched)

	decls := make(Declarations)
	for _, m := range matched {
		for k, v := range m.Rule.Declarations {
			decls[k] = v
		}
	}
	for k, v := range ParseDeclarations(el.GetAttribute("style")) {
		decls[k] = v
	}
	return decls
}

func (sr *StyleResolver) collectMatchingRules(el *dom.Element) []MatchedRule {
	var matched []MatchedRule
	order := 0
	collect := func(ss *Stylesheet, origin CascadeOrigin) {
		for i := range ss.Rules {
			rule := &ss.Rules[i]
			if spec, ok := matchRuleToElement(rule, el); ok {
				matched = append(matched, MatchedRule{
					Rule:        rule,
					Origin:      origin,
					Specificity: spec,
					Order:       order,
				})
			}
			order++
		}
	}

	if sr.userAgentSheet != nil {
		collect(sr.userAgentSheet, OriginUserAgent)
	}
	for _, ss := range sr.authorSheets {
		collect(ss, OriginAuthor)
	}
	return matched
}

// matchRuleToElement reports whether rule matches el, with the highest
// specificity among its matching selectors.
func matchRuleToElement(rule *Rule, el *dom.Element) (Specificity, bool) {
	var best Specificity
	found := false
	for _, cs := range rule.Selector.ComplexSelectors {
		if !cs.MatchElement(el) {
			continue
		}
		if spec := cs.CalculateSpecificity(); !found || best.Less(spec) {
			best = spec
		}
		found = true
	}
	return best, found
}

// sortByPrecedence sorts matched rules from lowest to highest precedence:
// origin first, then specificity, then source order.
func sortByPrecedence(rules []MatchedRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if cmp := a.Specificity.Compare(b.Specificity); cmp != 0 {
			return cmp < 0
		}
		return a.Order < b.Order
	})
}
