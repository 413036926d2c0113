package view

import "time"

// Node is the current content of one display target.
type Node struct {
	// ID is the element identifier the node is addressed by.
	ID string `json:"id"`

	// Text is the node's text content. Set when Markup is false.
	Text string `json:"text,omitempty"`

	// HTML is the node's inner markup. Set when Markup is true. The
	// markup is produced server-side with all data escaped.
	HTML string `json:"html,omitempty"`

	// Markup reports whether the node carries HTML rather than text.
	Markup bool `json:"markup"`

	// UpdatedAt is when the node content last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Content returns the node's text or markup, whichever it carries.
func (n Node) Content() string {
	if n.Markup {
		return n.HTML
	}
	return n.Text
}

// Document defines storage and subscription for display nodes.
//
// Implementations must be safe for concurrent access.
type Document interface {
	// SetText replaces the node's content with plain text.
	SetText(id, text string)

	// SetHTML replaces the node's content with escaped markup.
	SetHTML(id, markup string)

	// Get returns the node with the given id.
	Get(id string) (Node, bool)

	// All returns a snapshot of all nodes ordered by id.
	All() []Node

	// Subscribe returns a channel that receives changed nodes.
	// Caller must call Unsubscribe when done.
	Subscribe() <-chan Node

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Node)
}
