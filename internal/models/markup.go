// Package models defines transport-neutral reply markup structures.
package models

// InlineButton is a button attached to a message, identified by its
// callback data.
type InlineButton struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// InlineKeyboard is a grid of inline buttons attached to one message.
type InlineKeyboard struct {
	Rows [][]InlineButton `json:"rows"`
}

// ReplyButton is a button on the persistent reply keyboard; pressing it
// sends its text as a regular message.
type ReplyButton struct {
	Text string `json:"text"`
}

// ReplyKeyboard replaces the user's input keyboard.
type ReplyKeyboard struct {
	Rows    [][]ReplyButton `json:"rows"`
	OneTime bool            `json:"one_time"`
}

// Markup bundles the optional keyboards a message can carry. A nil
// Markup (or both fields nil) means no keyboard change.
type Markup struct {
	Inline *InlineKeyboard `json:"inline,omitempty"`
	Reply  *ReplyKeyboard  `json:"reply,omitempty"`
}

// InlineMarkup wraps an inline keyboard in a Markup.
func InlineMarkup(kb *InlineKeyboard) *Markup {
	if kb == nil {
		return nil
	}
	return &Markup{Inline: kb}
}

// ReplyMarkup wraps a reply keyboard in a Markup.
func ReplyMarkup(kb *ReplyKeyboard) *Markup {
	if kb == nil {
		return nil
	}
	return &Markup{Reply: kb}
}
