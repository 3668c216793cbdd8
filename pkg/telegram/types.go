package telegram

// Update is an incoming event delivered to the webhook. Only the fields the
// bot dispatches on are modelled.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is a chat message inside an Update.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// User is the sender of a message. On the webhook channel Telegram has
// already authenticated this identity upstream.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies where a message was sent.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// Command extracts the leading bot command from the message text ("/today",
// "/water@SomeBot arg" -> "/water") and the remainder of the line. Returns an
// empty command for non-command messages.
func (m *Message) Command() (cmd, args string) {
	if m == nil || len(m.Text) == 0 || m.Text[0] != '/' {
		return "", ""
	}

	text := m.Text
	for i := range len(text) {
		if text[i] == ' ' {
			cmd, args = text[:i], trimLeftSpaces(text[i:])
			break
		}
	}
	if cmd == "" {
		cmd = text
	}

	// Strip the @BotName suffix used in group chats.
	for i := range len(cmd) {
		if cmd[i] == '@' {
			cmd = cmd[:i]
			break
		}
	}
	return cmd, args
}

func trimLeftSpaces(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}
