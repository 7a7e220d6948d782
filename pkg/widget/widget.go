package widget

import "encoding/json"

// Node is one element of a widget tree. The tree is a plain data structure
// serialized to JSON for clients to render; the server never renders it.
// Type discriminates the node kind, the remaining fields apply per kind and
// are omitted when empty.
type Node struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Children []Node `json:"children,omitempty"`

	// text-ish nodes
	Value       string `json:"value,omitempty"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`

	// presentation
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
	TextAlign   string `json:"text_align,omitempty"`
	LineThrough bool   `json:"line_through,omitempty"`

	// form controls
	Name           string  `json:"name,omitempty"`
	DefaultChecked bool    `json:"default_checked,omitempty"`
	OnClickAction  *Action `json:"on_click_action,omitempty"`
	OnChangeAction *Action `json:"on_change_action,omitempty"`
}

// Action wires a control to a server-side action handler.
type Action struct {
	Type    string            `json:"type"`
	Handler string            `json:"handler"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Marshal serializes a widget tree root.
func Marshal(root Node) json.RawMessage {
	b, _ := json.Marshal(root)
	return b
}

func Card(id string, children ...Node) Node {
	return Node{Type: "card", ID: id, Children: children}
}

func Row(id string, children ...Node) Node {
	return Node{Type: "row", ID: id, Children: children}
}

func Box(id string, children ...Node) Node {
	return Node{Type: "box", ID: id, Children: children}
}

func Form(id string, children ...Node) Node {
	return Node{Type: "form", ID: id, Children: children}
}

func Text(id, value string) Node {
	return Node{Type: "text", ID: id, Value: value}
}

func Title(id, value, size string) Node {
	return Node{Type: "title", ID: id, Value: value, Size: size}
}

func Badge(id, label, color string) Node {
	return Node{Type: "badge", ID: id, Label: label, Color: color}
}

func Divider(id string) Node {
	return Node{Type: "divider", ID: id}
}

func Spacer(id string) Node {
	return Node{Type: "spacer", ID: id}
}

func Input(id, name, placeholder string) Node {
	return Node{Type: "input", ID: id, Name: name, Placeholder: placeholder}
}

func Button(id, label string) Node {
	return Node{Type: "button", ID: id, Label: label}
}

func Checkbox(id, name string, checked bool) Node {
	return Node{Type: "checkbox", ID: id, Name: name, DefaultChecked: checked}
}

// serverAction builds the standard server-handled action config.
func serverAction(typ string, payload map[string]string) *Action {
	return &Action{Type: typ, Handler: "server", Payload: payload}
}
