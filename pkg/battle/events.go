package battle

// SystemChatName is the sender name used for battle commentary.
const SystemChatName = "System"

// EventKind discriminates the events a transition can emit.
type EventKind int

const (
	// EventChat is a chat line, either relayed player chat or system
	// commentary on combat resolution.
	EventChat EventKind = iota
	// EventInfo is an informational notice.
	EventInfo
)

// Event is an outbound notification produced by a transition. Recipients
// lists the user ids to deliver to; empty means every player in the room.
// Events never carry hidden state; the per-player battle.update is built
// separately by the projector.
type Event struct {
	Kind       EventKind
	Recipients []string
	User       string
	Message    string
}

func chatEvent(user, message string, recipients ...string) Event {
	return Event{Kind: EventChat, Recipients: recipients, User: user, Message: message}
}

func systemChat(message string, recipients ...string) Event {
	return chatEvent(SystemChatName, message, recipients...)
}

func infoEvent(message string, recipients ...string) Event {
	return Event{Kind: EventInfo, Recipients: recipients, Message: message}
}
