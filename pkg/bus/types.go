package bus

import "github.com/sipeed/taskclaw/pkg/commands"

// InboundMessage is a chat message posted on a task thread by a
// connected client.
type InboundMessage struct {
	Channel     string            `json:"channel"`
	ChatID      string            `json:"chat_id"`
	SenderLogin string            `json:"login"`
	TaskID      int64             `json:"task_id"`
	Content     string            `json:"body"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage is what the client sees after posting: the stored
// message body, a command reply, or a UI action to open.
type OutboundMessage struct {
	Channel string             `json:"channel"`
	ChatID  string             `json:"chat_id"`
	TaskID  int64              `json:"task_id"`
	Kind    string             `json:"kind"`
	Content string             `json:"text,omitempty"`
	Action  *commands.UIAction `json:"action,omitempty"`
}
