package render

import (
	"strings"

	"github.com/gosuda/aniverse-chat/page"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
	Warning Severity = "warning"
)

func (s Severity) classes() []string {
	switch s {
	case Success:
		return []string{"bg-green-500", "text-white"}
	case Error:
		return []string{"bg-red-500", "text-white"}
	case Warning:
		return []string{"bg-yellow-500", "text-black"}
	default:
		return []string{"bg-blue-500", "text-white"}
	}
}

var notificationClasses = strings.Fields("fixed top-4 right-4 p-4 rounded-lg shadow-lg z-50 notification animate-slide-in")

// Notify shows a transient toast on the body and removes it after
// NotificationTTL. Unknown severities render as Info.
func (r *Renderer) Notify(text string, sev Severity) string {
	id := newID("notification")
	classes := append(append([]string{}, notificationClasses...), sev.classes()...)
	el := &page.Element{
		Tag:     "div",
		ID:      id,
		Classes: classes,
		Text:    text,
		HTML:    renderString(textNode(text)),
	}
	if !r.doc.Append(page.Body, el) {
		return ""
	}
	r.sched.After(NotificationTTL, func() { r.doc.Remove(id) })
	return id
}
