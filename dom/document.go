package dom

import (
	"strings"

	"github.com/chrisuehlinger/expose/region"
	"golang.org/x/net/html"
)

// Document is the root of an element tree together with the window that
// displays it.
type Document struct {
	documentElement *Element
	window          *Window
}

// NewDocument creates an empty document with <html>, <head> and <body>.
func NewDocument() *Document {
	doc := &Document{}
	doc.window = newWindow(doc)
	doc.documentElement = newElement("html", doc)
	doc.documentElement.AppendChild(newElement("head", doc))
	doc.documentElement.AppendChild(newElement("body", doc))
	return doc
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	return d.documentElement
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *Element {
	return d.childOfRoot("head")
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *Element {
	return d.childOfRoot("body")
}

func (d *Document) childOfRoot(tag string) *Element {
	for _, c := range d.documentElement.children {
		if c.tagName == tag {
			return c
		}
	}
	return nil
}

// Window returns the window displaying this document.
func (d *Document) Window() *Window {
	return d.window
}

// CreateElement creates a detached element owned by this document.
func (d *Document) CreateElement(tagName string) *Element {
	return newElement(tagName, d)
}

// GetElementById returns the first connected element with the given id.
func (d *Document) GetElementById(id string) *Element {
	if id == "" {
		return nil
	}
	var found *Element
	d.documentElement.Walk(func(el *Element) bool {
		if found != nil {
			return false
		}
		if el.Id() == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// ViewportRegion returns the window's visible region in document
// coordinates. It is read fresh on every call.
func (d *Document) ViewportRegion() (region.Region, error) {
	return d.window.Region(), nil
}

// RegionOf returns the element's border box in document coordinates.
func (d *Document) RegionOf(el *Element) (region.Region, error) {
	if el == nil {
		return region.Region{}, ErrNotFound("no element to measure")
	}
	if el.ownerDoc != d {
		return region.Region{}, ErrInvalidState("<" + el.tagName + "> belongs to another document")
	}
	return el.Region()
}

// ParseHTML parses an HTML string and returns a Document.
func ParseHTML(htmlContent string) (*Document, error) {
	netDoc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	doc.window = newWindow(doc)
	for c := netDoc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			doc.documentElement = convertHTMLTree(c, doc)
			break
		}
	}
	if doc.documentElement == nil {
		return nil, ErrSyntax("document has no root element")
	}
	return doc, nil
}

// convertHTMLTree converts an html.Node element subtree to our DOM tree.
func convertHTMLTree(src *html.Node, doc *Document) *Element {
	el := newElement(src.Data, doc)
	for _, attr := range src.Attr {
		if attr.Namespace == "" {
			el.SetAttribute(attr.Key, attr.Val)
		}
	}
	var text strings.Builder
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
		if c.Type != html.ElementNode {
			continue
		}
		child := convertHTMLTree(c, doc)
		child.parent = el
		el.children = append(el.children, child)
	}
	el.text = text.String()
	return el
}

// ElementsByTagName returns the connected elements with the given tag name
// in document order.
func (d *Document) ElementsByTagName(tagName string) []*Element {
	tagName = strings.ToLower(tagName)
	var found []*Element
	d.documentElement.Walk(func(el *Element) bool {
		if el.tagName == tagName {
			found = append(found, el)
		}
		return true
	})
	return found
}
