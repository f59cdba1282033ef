// Package richtext holds the minimal rich-document tree shape the engine
// reads: typed nodes with optional attributes and ordered children.
package richtext

import (
	"encoding/json"
	"fmt"
)

// MentionType is the node type the editor emits for an @user reference.
const MentionType = "mention"

// Node represents a node in a rich-document tree.
type Node struct {
	Type    string         `json:"type" bson:"type"`
	Attrs   map[string]any `json:"attrs,omitempty" bson:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty" bson:"content,omitempty"`
	Text    string         `json:"text,omitempty" bson:"text,omitempty"`
}

// Parse decodes a JSON rich document. An empty payload is an empty document.
func Parse(raw []byte) (Node, error) {
	var doc Node
	if len(raw) == 0 {
		return Node{Type: "doc"}, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Node{}, fmt.Errorf("decode rich document: %w", err)
	}
	return doc, nil
}

// Mention builds a mention node for the given user id. Used by tests and seed tooling.
func Mention(userID any) Node {
	return Node{Type: MentionType, Attrs: map[string]any{"id": userID}}
}

// Paragraph wraps children in a paragraph node.
func Paragraph(children ...Node) Node {
	return Node{Type: "paragraph", Content: children}
}

// Doc wraps children in a document root.
func Doc(children ...Node) Node {
	return Node{Type: "doc", Content: children}
}

// Text builds a text leaf.
func Text(s string) Node {
	return Node{Type: "text", Text: s}
}
