package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	MessageTypeCourseCreated MessageType = "COURSE_CREATED"
	MessageTypeCourseUpdated MessageType = "COURSE_UPDATED"
	MessageTypeCourseDeleted MessageType = "COURSE_DELETED"
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

type CourseDeletedPayload struct {
	ID string `json:"id"`
}
