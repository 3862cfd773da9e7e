package qwen

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

// Turn is one prior exchange supplied as conversation history.
type Turn struct {
	Prompt   string
	Response string
}

func toMessages(instructions string, turns []Turn) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}
	for _, turn := range turns {
		if turn.Prompt != "" {
			messages = append(messages, message{
				Role:    messageRoleUser,
				Content: turn.Prompt,
			})
		}
		if turn.Response != "" {
			messages = append(messages, message{
				Role:    messageRoleAssistant,
				Content: turn.Response,
			})
		}
	}
	return messages
}
