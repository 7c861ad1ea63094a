package messages

import (
	"encoding/json"
	"fmt"
)

// Client message types
const (
	MessageTypeActionPass          = "action.pass"
	MessageTypeActionEndTurn       = "action.end_turn"
	MessageTypeActionAssignEnergy  = "action.assign_energy"
	MessageTypeActionPlaceCard     = "action.place_card"
	MessageTypeActionSetupComplete = "action.setup_complete"
	MessageTypeActionAttack        = "action.attack"
	MessageTypeActionEscape        = "action.escape"
	MessageTypeActionSurrender     = "action.surrender"
	MessageTypeChatMessage         = "chat.message"
)

// Server message types
const (
	MessageTypeBattleUpdate = "battle.update"
	MessageTypeError        = "error"
	MessageTypeWarning      = "warning"
	MessageTypeInfo         = "info"
)

// Envelope carries the type discriminant shared by every message on the wire.
// The remaining fields of a message are flat alongside the type, so the raw
// frame is unmarshalled a second time into the matching typed struct.
type Envelope struct {
	Type string `json:"type"`
}

// ParseType extracts the type discriminant from a raw frame.
func ParseType(data []byte) (string, error) {
	envelope := &Envelope{}
	if err := json.Unmarshal(data, envelope); err != nil {
		return "", fmt.Errorf("failed to unmarshal message envelope: %v", err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("message has no type")
	}
	return envelope.Type, nil
}

// ClientEndTurn is sent when the client ends its turn. Forced marks turns
// ended by the client's own turn-limit UI rather than by the player.
type ClientEndTurn struct {
	Type   string `json:"type"`
	Forced bool   `json:"forced"`
}

// ClientAssignEnergy assigns one energy from the player's pool to a card.
// CardID is "active" (or the legacy "battle_card"/"main" aliases) for the
// active card, or "bench-N" for the Nth bench card.
type ClientAssignEnergy struct {
	Type   string `json:"type"`
	CardID string `json:"card_id"`
}

// ClientPlaceCard moves a hand card onto the board during setup.
type ClientPlaceCard struct {
	Type      string `json:"type"`
	CardIndex int    `json:"card_index"`
	ToField   string `json:"to_field"`
}

// ClientAttack attacks the opponent's active card. TargetID, when set, must
// match the defender's active card.
type ClientAttack struct {
	Type       string `json:"type"`
	TargetID   string `json:"target_id,omitempty"`
	TargetType string `json:"targetType,omitempty"`
}

// ClientEscape retreats the active card behind the named bench card.
type ClientEscape struct {
	Type       string `json:"type"`
	BenchIndex *int   `json:"bench_index"`
}

// ClientChatMessage is a chat line sent to the room.
type ClientChatMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ServerBattleUpdate carries a per-player view of the room state.
type ServerBattleUpdate struct {
	Type   string      `json:"type"`
	YouAre string      `json:"you_are"`
	Data   interface{} `json:"data"`
}

// ChatUser identifies the sender of a chat message. System commentary uses
// the name "System" with no id.
type ChatUser struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ServerChatMessage is a chat line relayed to the room.
type ServerChatMessage struct {
	Type    string   `json:"type"`
	User    ChatUser `json:"user"`
	Message string   `json:"message"`
}

// ServerNotice is an error, warning or info message for a single player.
type ServerNotice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an error notice.
func NewError(message string) *ServerNotice {
	return &ServerNotice{Type: MessageTypeError, Message: message}
}

// NewWarning builds a warning notice.
func NewWarning(message string) *ServerNotice {
	return &ServerNotice{Type: MessageTypeWarning, Message: message}
}

// NewInfo builds an info notice.
func NewInfo(message string) *ServerNotice {
	return &ServerNotice{Type: MessageTypeInfo, Message: message}
}
