package models

import (
	"encoding/json"
	"strings"
)

type GatewayType string

const (
	GatewayBTCPay      GatewayType = "BTCPay Server"
	GatewayStripe      GatewayType = "Stripe"
	GatewayPayPal      GatewayType = "PayPal"
	GatewayMercadoPago GatewayType = "Mercado Pago"
	GatewayOther       GatewayType = "Other"
)

// GatewayTypes lists the selectable kinds in display order.
var GatewayTypes = []GatewayType{GatewayBTCPay, GatewayStripe, GatewayPayPal, GatewayMercadoPago, GatewayOther}

func (t GatewayType) Valid() bool {
	for _, known := range GatewayTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t *GatewayType) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(raw), "outro") {
		*t = GatewayOther
		return nil
	}
	*t = GatewayType(raw)
	return nil
}

type GatewayStatus string

const (
	GatewayConnected GatewayStatus = "Connected"
	GatewayError     GatewayStatus = "Error"
	GatewayTesting   GatewayStatus = "Testing"
)

// ParseGatewayStatus maps wire values, including the backend's Portuguese
// labels, onto a status. Anything unrecognised is an error state.
func ParseGatewayStatus(raw string) GatewayStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "connected", "conectado":
		return GatewayConnected
	case "testing", "testando":
		return GatewayTesting
	default:
		return GatewayError
	}
}

func (s *GatewayStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseGatewayStatus(raw)
	return nil
}

type Gateway struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Type      GatewayType   `json:"type"`
	APIURL    string        `json:"api_url"`
	Status    GatewayStatus `json:"status"`
	CreatedAt Timestamp     `json:"created_at"`
}

// GatewayInput carries the secret, which is never read back.
type GatewayInput struct {
	Name   *string      `json:"name,omitempty"`
	Type   *GatewayType `json:"type,omitempty"`
	APIURL *string      `json:"api_url,omitempty"`
	APIKey *string      `json:"api_key,omitempty"`
}
