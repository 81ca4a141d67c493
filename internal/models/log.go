package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
	LogSuccess LogLevel = "success"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogInfo, LogWarning, LogError, LogSuccess:
		return true
	}
	return false
}

// LogID holds either a backend integer id or a locally generated string id.
type LogID string

func (id *LogID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = LogID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid log id %s", string(b))
	}
	*id = LogID(n.String())
	return nil
}

type LogEntry struct {
	ID        LogID     `json:"id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	BotID     *int      `json:"bot_id"`
	Timestamp Timestamp `json:"timestamp"`
}

type LogInput struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
	BotID   *int     `json:"bot_id,omitempty"`
}
