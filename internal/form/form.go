// Package form models the bot, gateway and log editors and validates them
// before anything is sent to the backend.
package form

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"botpanel/internal/models"
)

var ErrInvalid = errors.New("invalid form")

// FieldError names one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is empty when the form may be submitted.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// Has reports whether field failed.
func (r ValidationResult) Has(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Message joins the field messages for a single notification line.
func (r ValidationResult) Message() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Err wraps ErrInvalid with the messages, or returns nil.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Result: r}
}

type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string { return e.Result.Message() }
func (e *ValidationError) Unwrap() error { return ErrInvalid }

type BotForm struct {
	ID        int    `json:"id,omitempty" form:"id"`
	Name      string `json:"name" form:"name"`
	Token     string `json:"token" form:"token"`
	Code      string `json:"code" form:"code"`
	GatewayID string `json:"gateway_id" form:"gateway_id"`
}

func (f BotForm) Editing() bool { return f.ID > 0 }

func (f BotForm) Validate() ValidationResult {
	var r ValidationResult
	if strings.TrimSpace(f.Name) == "" {
		r.add("name", "bot name is required")
	}
	if strings.TrimSpace(f.Token) == "" {
		r.add("token", "bot token is required")
	}
	if raw := strings.TrimSpace(f.GatewayID); raw != "" {
		if n, err := strconv.Atoi(raw); err != nil || n <= 0 {
			r.add("gateway_id", "gateway must be a valid id")
		}
	}
	return r
}

// Input builds the backend payload. It assumes Validate passed.
func (f BotForm) Input() models.BotInput {
	name := strings.TrimSpace(f.Name)
	token := strings.TrimSpace(f.Token)
	code := f.Code
	in := models.BotInput{Name: &name, Token: &token, Code: &code}
	if n, err := strconv.Atoi(strings.TrimSpace(f.GatewayID)); err == nil && n > 0 {
		in.GatewayID = &n
	}
	return in
}

// BotFormFrom fills the editor from an existing bot.
func BotFormFrom(b models.Bot) BotForm {
	f := BotForm{ID: b.ID, Name: b.Name, Token: b.Token, Code: b.Code}
	if b.GatewayID != nil {
		f.GatewayID = strconv.Itoa(*b.GatewayID)
	}
	return f
}

// NewBotForm is the editor state for a bot that does not exist yet.
func NewBotForm() BotForm {
	return BotForm{Code: DefaultBotCode}
}

type GatewayForm struct {
	ID     int    `json:"id,omitempty" form:"id"`
	Name   string `json:"name" form:"name"`
	Type   string `json:"type" form:"type"`
	APIURL string `json:"api_url" form:"api_url"`
	APIKey string `json:"-" form:"api_key"`
}

func (f GatewayForm) Editing() bool { return f.ID > 0 }

// Validate requires the key only when creating; an empty key on update
// keeps the stored one.
func (f GatewayForm) Validate() ValidationResult {
	var r ValidationResult
	if strings.TrimSpace(f.Name) == "" {
		r.add("name", "gateway name is required")
	}
	if strings.TrimSpace(f.APIURL) == "" {
		r.add("api_url", "API URL is required")
	}
	if !f.Editing() && strings.TrimSpace(f.APIKey) == "" {
		r.add("api_key", "API key is required")
	}
	if t := strings.TrimSpace(f.Type); t != "" && !models.GatewayType(t).Valid() {
		r.add("type", "unknown gateway type")
	}
	return r
}

func (f GatewayForm) Input() models.GatewayInput {
	name := strings.TrimSpace(f.Name)
	apiURL := strings.TrimSpace(f.APIURL)
	typ := models.GatewayType(strings.TrimSpace(f.Type))
	if typ == "" {
		typ = models.GatewayBTCPay
	}
	in := models.GatewayInput{Name: &name, Type: &typ, APIURL: &apiURL}
	if key := strings.TrimSpace(f.APIKey); key != "" {
		in.APIKey = &key
	}
	return in
}

// GatewayFormFrom never carries the stored secret back into the editor.
func GatewayFormFrom(g models.Gateway) GatewayForm {
	return GatewayForm{ID: g.ID, Name: g.Name, Type: string(g.Type), APIURL: g.APIURL}
}

func NewGatewayForm() GatewayForm {
	return GatewayForm{Type: string(models.GatewayBTCPay)}
}

// LogForm is a manually written log entry.
type LogForm struct {
	Level   string `form:"level"`
	Message string `form:"message"`
	BotID   string `form:"bot_id"`
}

func (f LogForm) Validate() ValidationResult {
	var r ValidationResult
	if !models.LogLevel(strings.TrimSpace(f.Level)).Valid() {
		r.add("level", "unknown log level")
	}
	if strings.TrimSpace(f.Message) == "" {
		r.add("message", "log message is required")
	}
	if raw := strings.TrimSpace(f.BotID); raw != "" {
		if n, err := strconv.Atoi(raw); err != nil || n <= 0 {
			r.add("bot_id", "bot must be a valid id")
		}
	}
	return r
}

func (f LogForm) Input() models.LogInput {
	in := models.LogInput{Level: models.LogLevel(strings.TrimSpace(f.Level)), Message: strings.TrimSpace(f.Message)}
	if n, err := strconv.Atoi(strings.TrimSpace(f.BotID)); err == nil && n > 0 {
		in.BotID = &n
	}
	return in
}

// MaxCodeSize bounds uploaded bot sources.
const MaxCodeSize = 1 << 20

var ErrNotPython = errors.New("only .py files are accepted")

// CheckCodeUpload accepts Python sources only and returns the text to place
// in the code field.
func CheckCodeUpload(filename string, content []byte) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".py") {
		return "", ErrNotPython
	}
	if len(content) > MaxCodeSize {
		return "", errors.New("file too large")
	}
	return string(content), nil
}
