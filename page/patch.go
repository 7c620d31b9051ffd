package page

// Patch operations understood by the page script.
const (
	OpOuter   = "outer"
	OpInner   = "inner"
	OpAppend  = "append"
	OpRemove  = "remove"
	OpClass   = "class"
	OpClasses = "classes"
	OpAttr    = "attr"
	OpValue   = "value"
	OpProp    = "prop"
	OpFocus   = "focus"
	OpBlur    = "blur"
	OpScroll  = "scroll"
	OpPlay    = "play"
)

// Patch is one DOM mutation sent to an attached page.
type Patch struct {
	Op     string   `json:"op"`
	Target string   `json:"target,omitempty"`
	HTML   string   `json:"html,omitempty"`
	Value  string   `json:"value,omitempty"`
	Name   string   `json:"name,omitempty"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
	On     bool     `json:"on,omitempty"`
}
