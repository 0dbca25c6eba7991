// Package summary parses the tagged text returned by the summarization
// backend and renders it as display-ready plain text.
//
// The accepted format is a small XML subset: nested elements with optional
// attributes, character data, the five predefined entities, numeric character
// references, CDATA sections, comments and processing instructions (skipped).
// Free text around the elements is allowed, since model output often carries
// prose before or after the tagged block.
package summary

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes node types in a parsed tree.
type Kind int

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
)

// Node is one node of a parsed tag tree.
type Node struct {
	Kind     Kind
	Name     string
	Attrs    map[string]string
	Data     string // text nodes only
	Children []*Node
}

// Element returns the first child element called name, or nil.
func (n *Node) Element(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			return c
		}
	}
	return nil
}

// Elements returns every child element called name.
func (n *Node) Elements(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find walks a dotted path of element names, e.g. "Output.Summary".
func (n *Node) Find(path string) *Node {
	cur := n
	for _, part := range strings.Split(path, ".") {
		cur = cur.Element(part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Text returns the concatenated character data of the node and all of its
// descendants, in document order.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.Kind == TextNode {
		return n.Data
	}
	var sb strings.Builder
	n.appendText(&sb)
	return sb.String()
}

func (n *Node) appendText(sb *strings.Builder) {
	for _, c := range n.Children {
		if c.Kind == TextNode {
			sb.WriteString(c.Data)
			continue
		}
		c.appendText(sb)
	}
}

// ParseError reports malformed input and where it was detected.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed summary payload at offset %d: %s", e.Offset, e.Msg)
}

// Parse builds a tag tree from s. The returned node is the document root.
func Parse(s string) (*Node, error) {
	p := &parser{src: s}
	root := &Node{Kind: DocumentNode}
	if err := p.parseContent(root, ""); err != nil {
		return nil, err
	}
	return root, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) hasPrefix(s string) bool { return strings.HasPrefix(p.src[p.pos:], s) }

// parseContent reads children into parent until the closing tag for
// parent (or EOF at document level).
func (p *parser) parseContent(parent *Node, closing string) error {
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			parent.Children = append(parent.Children, &Node{Kind: TextNode, Data: text.String()})
			text.Reset()
		}
	}

	for !p.eof() {
		c := p.src[p.pos]
		if c == '&' {
			r, err := p.parseReference()
			if err != nil {
				return err
			}
			text.WriteString(r)
			continue
		}
		if c != '<' {
			text.WriteByte(c)
			p.pos++
			continue
		}

		switch {
		case p.hasPrefix("<!--"):
			end := strings.Index(p.src[p.pos+4:], "-->")
			if end < 0 {
				return p.errorf("unterminated comment")
			}
			p.pos += 4 + end + 3
		case p.hasPrefix("<![CDATA["):
			end := strings.Index(p.src[p.pos+9:], "]]>")
			if end < 0 {
				return p.errorf("unterminated CDATA section")
			}
			text.WriteString(p.src[p.pos+9 : p.pos+9+end])
			p.pos += 9 + end + 3
		case p.hasPrefix("<?"):
			end := strings.Index(p.src[p.pos+2:], "?>")
			if end < 0 {
				return p.errorf("unterminated processing instruction")
			}
			p.pos += 2 + end + 2
		case p.hasPrefix("<!"):
			end := strings.IndexByte(p.src[p.pos:], '>')
			if end < 0 {
				return p.errorf("unterminated declaration")
			}
			p.pos += end + 1
		case p.hasPrefix("</"):
			flush()
			start := p.pos
			p.pos += 2
			name := p.parseName()
			p.skipSpace()
			if p.eof() || p.src[p.pos] != '>' {
				return p.errorf("expected '>' to end closing tag")
			}
			p.pos++
			if closing == "" {
				p.pos = start
				return p.errorf("unexpected closing tag </%s>", name)
			}
			if name != closing {
				p.pos = start
				return p.errorf("closing tag </%s> does not match <%s>", name, closing)
			}
			return nil
		default:
			if p.pos+1 >= len(p.src) || !isNameStart(p.src[p.pos+1]) {
				// a bare '<' in prose
				text.WriteByte('<')
				p.pos++
				continue
			}
			flush()
			el, err := p.parseElement()
			if err != nil {
				return err
			}
			parent.Children = append(parent.Children, el)
		}
	}

	flush()
	if closing != "" {
		return p.errorf("missing closing tag </%s>", closing)
	}
	return nil
}

func (p *parser) parseElement() (*Node, error) {
	p.pos++ // '<'
	el := &Node{Kind: ElementNode, Name: p.parseName()}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated start tag <%s>", el.Name)
		}
		switch {
		case p.hasPrefix("/>"):
			p.pos += 2
			return el, nil
		case p.src[p.pos] == '>':
			p.pos++
			if err := p.parseContent(el, el.Name); err != nil {
				return nil, err
			}
			return el, nil
		}
		if err := p.parseAttr(el); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseAttr(el *Node) error {
	if !isNameStart(p.src[p.pos]) {
		return p.errorf("unexpected %q in start tag <%s>", p.src[p.pos], el.Name)
	}
	name := p.parseName()
	p.skipSpace()
	if p.eof() || p.src[p.pos] != '=' {
		return p.errorf("attribute %s has no value", name)
	}
	p.pos++
	p.skipSpace()
	if p.eof() || (p.src[p.pos] != '"' && p.src[p.pos] != '\'') {
		return p.errorf("attribute %s value must be quoted", name)
	}
	quote := p.src[p.pos]
	end := strings.IndexByte(p.src[p.pos+1:], quote)
	if end < 0 {
		return p.errorf("unterminated value for attribute %s", name)
	}
	if el.Attrs == nil {
		el.Attrs = make(map[string]string)
	}
	el.Attrs[name] = decodeEntities(p.src[p.pos+1 : p.pos+1+end])
	p.pos += end + 2
	return nil
}

func (p *parser) parseName() string {
	start := p.pos
	for !p.eof() && isNameChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// parseReference consumes an entity or character reference. Unknown or
// unterminated references are kept literally.
func (p *parser) parseReference() (string, error) {
	end := strings.IndexByte(p.src[p.pos:], ';')
	if end < 0 || end > 10 {
		p.pos++
		return "&", nil
	}
	ref := p.src[p.pos : p.pos+end+1]
	if r, ok := resolveReference(ref); ok {
		p.pos += end + 1
		return r, nil
	}
	p.pos++
	return "&", nil
}

var entities = map[string]string{
	"&lt;":   "<",
	"&gt;":   ">",
	"&amp;":  "&",
	"&quot;": `"`,
	"&apos;": "'",
}

func resolveReference(ref string) (string, bool) {
	if r, ok := entities[ref]; ok {
		return r, true
	}
	if strings.HasPrefix(ref, "&#") {
		body := ref[2 : len(ref)-1]
		base := 10
		if strings.HasPrefix(body, "x") || strings.HasPrefix(body, "X") {
			body, base = body[1:], 16
		}
		n, err := strconv.ParseUint(body, base, 32)
		if err != nil {
			return "", false
		}
		return string(rune(n)), true
	}
	return "", false
}

func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '&' {
			if end := strings.IndexByte(s[i:], ';'); end > 0 {
				if r, ok := resolveReference(s[i : i+end+1]); ok {
					sb.WriteString(r)
					i += end + 1
					continue
				}
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

func isNameStart(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || c == '.' || (c >= '0' && c <= '9')
}
