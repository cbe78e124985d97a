package generators

type Message struct {
	Role Role
	Text string
}

// Prompts is one chat request: a system prompt and the conversation so far.
type Prompts struct {
	System   string
	Messages []Message
}

func NewPrompts(system string, user ...string) Prompts {
	ret := Prompts{
		System: system,
	}
	for _, text := range user {
		ret.Messages = append(ret.Messages, Message{
			Role: RoleUser,
			Text: text,
		})
	}
	return ret
}

func (p Prompts) Append(role Role, text string) Prompts {
	p.Messages = append(p.Messages[:len(p.Messages):len(p.Messages)], Message{
		Role: role,
		Text: text,
	})
	return p
}
