package models

type Bot struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	GatewayID *int      `json:"gateway_id"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// BotInput is the create/update payload. On update, nil fields are left
// unchanged by the backend.
type BotInput struct {
	Name      *string `json:"name,omitempty"`
	Token     *string `json:"token,omitempty"`
	Code      *string `json:"code,omitempty"`
	GatewayID *int    `json:"gateway_id,omitempty"`
}

// ActionResult is the acknowledgement body returned by delete, toggle,
// restart and test endpoints.
type ActionResult struct {
	Message string `json:"message"`
}
