package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribeBattle   MessageType = "SUBSCRIBE_BATTLE"
	MessageTypeUnsubscribeBattle MessageType = "UNSUBSCRIBE_BATTLE"

	// Server to Client
	MessageTypeSubscribed MessageType = "SUBSCRIBED"
	MessageTypeError      MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type SubscribeBattlePayload struct {
	BattleID string `json:"battleId"`
}

type SubscribedPayload struct {
	BattleID string `json:"battleId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
