package nats

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subject prefixes for NATS topics.
const (
	SubjectStatusPrefix  = "statusled.status"
	SubjectControlPrefix = "statusled.control"
	SubjectLEDsPrefix    = "statusled.leds"
)

// SubjectStatus returns the subject a source reports its status on.
func SubjectStatus(source string) string {
	return fmt.Sprintf("%s.%s", SubjectStatusPrefix, source)
}

// SubjectControl returns the request subject for commands to an LED.
func SubjectControl(ledName string) string {
	return fmt.Sprintf("%s.%s", SubjectControlPrefix, ledName)
}

// SubjectLEDState returns the subject LED state changes are published on.
func SubjectLEDState(ledName string) string {
	return fmt.Sprintf("%s.%s.state", SubjectLEDsPrefix, ledName)
}

// lastToken returns the final dot-separated token of a subject.
func lastToken(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}

// StatusMessage reports a component status.
type StatusMessage struct {
	Source    string `json:"source,omitempty"` // defaults to the subject token
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Marshal serializes the message to JSON.
func (m StatusMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalStatus deserializes a StatusMessage. A payload that is not a JSON
// object is taken as the bare status string.
func UnmarshalStatus(data []byte) (StatusMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return StatusMessage{}, fmt.Errorf("empty status payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return StatusMessage{Status: trimmed}, nil
	}

	var m StatusMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, err
	}
	if m.Status == "" {
		return m, fmt.Errorf("status field is required")
	}
	return m, nil
}

// Control actions.
const (
	ControlOn      = "on"
	ControlOff     = "off"
	ControlToggle  = "toggle"
	ControlPattern = "pattern"
)

// ControlMessage is a command for one LED.
type ControlMessage struct {
	Action    string `json:"action"`            // on, off, toggle, pattern
	Pattern   string `json:"pattern,omitempty"` // empty stops playback
	Timestamp string `json:"timestamp,omitempty"`
}

// Marshal serializes the message to JSON.
func (m ControlMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalControl deserializes a ControlMessage from JSON.
func UnmarshalControl(data []byte) (ControlMessage, error) {
	var m ControlMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// LEDStateMessage describes an LED after a change.
type LEDStateMessage struct {
	LED       string `json:"led"`
	State     string `json:"state"`
	Pattern   string `json:"pattern,omitempty"`
	Action    string `json:"action,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m LEDStateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalLEDState deserializes a LEDStateMessage from JSON.
func UnmarshalLEDState(data []byte) (LEDStateMessage, error) {
	var m LEDStateMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// ControlReply answers a ControlMessage sent as a request.
type ControlReply struct {
	OK    bool             `json:"ok"`
	Code  string           `json:"code,omitempty"`
	Error string           `json:"error,omitempty"`
	LED   *LEDStateMessage `json:"led,omitempty"`
}

// Marshal serializes the reply to JSON.
func (r ControlReply) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalControlReply deserializes a ControlReply from JSON.
func UnmarshalControlReply(data []byte) (ControlReply, error) {
	var r ControlReply
	err := json.Unmarshal(data, &r)
	return r, err
}
