package models

// Outbound is a reply produced by the assistant. Rendering to a platform
// wire format happens in the transport.
type Outbound interface {
	outbound()
}

// Text is a plain text reply
type Text struct {
	Body string
}

// Option is a quick reply button; pressing it sends Text back as a message.
type Option struct {
	Label string
	Text  string
}

// QuickReply is a prompt with a small set of reply options
type QuickReply struct {
	Title   string
	Body    string
	Options []Option
}

// TemplatePrompt is a titled card of lines, used for summaries
type TemplatePrompt struct {
	Title string
	Lines []string
}

func (Text) outbound()           {}
func (QuickReply) outbound()     {}
func (TemplatePrompt) outbound() {}
