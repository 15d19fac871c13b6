package css

import (
	"github.com/chrisuehlinger/expose/dom"
)

// MatchElement returns true if the element matches any complex selector in the list.
func (s *CSSSelector) MatchElement(el *dom.Element) bool {
	for _, cs := range s.ComplexSelectors {
		if cs.MatchElement(el) {
			return true
		}
	}
	return false
}

// MatchElement matches right to left, walking ancestors for combinators.
func (cs *ComplexSelector) MatchElement(el *dom.Element) bool {
	return matchFrom(cs.Compounds, len(cs.Compounds)-1, el)
}

func matchFrom(compounds []*CompoundSelector, idx int, el *dom.Element) bool {
	if !compounds[idx].MatchElement(el) {
		return false
	}
	if idx == 0 {
		return true
	}
	switch compounds[idx-1].Combinator {
	case CombinatorChild:
		parent := el.ParentElement()
		return parent != nil && matchFrom(compounds, idx-1, parent)
	default:
		for anc := el.ParentElement(); anc != nil; anc = anc.ParentElement() {
			if matchFrom(compounds, idx-1, anc) {
				return true
			}
		}
		return false
	}
}

// MatchElement checks every simple selector in the compound.
func (c *CompoundSelector) MatchElement(el *dom.Element) bool {
	if c.TypeName != "" && c.TypeName != "*" && c.TypeName != el.TagName() {
		return false
	}
	for _, id := range c.IDSelectors {
		if el.Id() != id {
			return false
		}
	}
	for _, class := range c.ClassSelectors {
		if !el.HasClass(class) {
			return false
		}
	}
	for _, attr := range c.AttributeMatchers {
		if !matchAttributeSelector(attr, el) {
			return false
		}
	}
	return true
}

func matchAttributeSelector(attr *AttributeMatcher, el *dom.Element) bool {
	if !el.HasAttribute(attr.Name) {
		return false
	}
	if attr.Operator == AttrEquals {
		return el.GetAttribute(attr.Name) == attr.Value
	}
	return true
}

// QuerySelector returns the first descendant of root matching the selector.
func QuerySelector(root *dom.Element, selectorStr string) (*dom.Element, error) {
	matches, err := querySelectorInternal(root, selectorStr, true)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

// QuerySelectorAll returns all descendants of root matching the selector,
// in document order.
func QuerySelectorAll(root *dom.Element, selectorStr string) ([]*dom.Element, error) {
	return querySelectorInternal(root, selectorStr, false)
}

func querySelectorInternal(root *dom.Element, selectorStr string, firstOnly bool) ([]*dom.Element, error) {
	selector, err := ParseSelector(selectorStr)
	if err != nil {
		return nil, err
	}
	var matches []*dom.Element
	for _, child := range root.Children() {
		child.Walk(func(el *dom.Element) bool {
			if firstOnly && len(matches) > 0 {
				return false
			}
			if selector.MatchElement(el) {
				matches = append(matches, el)
			}
			return true
		})
	}
	return matches, nil
}
