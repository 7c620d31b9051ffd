package web

import "github.com/gosuda/aniverse-chat/page"

// NewDocument returns a document holding the chat page elements.
func NewDocument() *page.Document {
	doc := page.New()
	for _, el := range []*page.Element{
		{Tag: "h2", ID: page.CurrentRoom, Classes: []string{"text-xl", "font-semibold", "text-white"}},
		{Tag: "span", ID: page.RoomUsers, Classes: []string{"text-sm", "text-gray-400"}},
		{Tag: "div", ID: page.RoomsList, Classes: []string{"space-y-1"}},
		{Tag: "input", ID: page.NewRoomInput, Classes: []string{"flex-1", "px-3", "py-2", "rounded-lg", "bg-white/10", "text-white", "text-sm", "outline-none"},
			Attrs: map[string]string{"type": "text", "placeholder": "New room name", "autocomplete": "off"}},
		{Tag: "button", ID: page.CreateRoomButton, Classes: []string{"px-3", "py-2", "rounded-lg", "bg-purple-600", "text-white", "text-sm"}, HTML: "Create"},
		{Tag: "div", ID: page.ActiveUsers, Classes: []string{"space-y-1"}},
		{Tag: "div", ID: page.MessagesContainer, Classes: []string{"flex-1", "overflow-y-auto", "p-4", "space-y-3"}},
		{Tag: "div", ID: page.TypingIndicator, Classes: []string{"px-4", "py-1", "text-xs", "text-gray-400", "hidden"},
			Children: []*page.Element{
				{Tag: "span", ID: page.TypingUsers},
				{Tag: "span", ID: "typingSuffix", HTML: " is typing..."},
			},
		},
		{Tag: "textarea", ID: page.MessageInput, Classes: []string{"flex-1", "px-4", "py-2", "rounded-lg", "bg-white/10", "text-white", "resize-none", "outline-none"},
			Attrs: map[string]string{"rows": "1", "placeholder": "Type a message... (Ctrl+K to focus)"}},
		{Tag: "button", ID: page.SendButton, Classes: []string{"px-4", "py-2", "rounded-lg", "bg-purple-600", "text-white"}, HTML: "Send"},
	} {
		doc.Register(el)
	}
	return doc
}
