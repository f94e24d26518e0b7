package commands

type ReplyKind int

const (
	// ReplyPassThrough means the message was not a command and must be
	// forwarded unchanged. It is distinct from an empty text reply.
	ReplyPassThrough ReplyKind = iota
	ReplyText
	ReplyAction
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyText:
		return "text"
	case ReplyAction:
		return "action"
	default:
		return "passthrough"
	}
}

// UIAction asks the client to open a UI view instead of showing text.
type UIAction struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Label   string            `json:"label"`
	TaskID  int64             `json:"task_id,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

// Reply is exactly one of pass-through, text or a UI action.
type Reply struct {
	Kind   ReplyKind
	Text   string
	Action *UIAction
}

func PassThrough() Reply {
	return Reply{Kind: ReplyPassThrough}
}

func Text(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

func OpenUI(action UIAction) Reply {
	return Reply{Kind: ReplyAction, Action: &action}
}

func (r Reply) IsPassThrough() bool {
	return r.Kind == ReplyPassThrough
}
