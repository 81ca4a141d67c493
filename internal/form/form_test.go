package form

import (
	"errors"
	"strings"
	"testing"

	"botpanel/internal/models"
)

func TestBotFormValidate(t *testing.T) {
	cases := []struct {
		name   string
		form   BotForm
		fields []string
	}{
		{"ok", BotForm{Name: "Echo", Token: "1:a"}, nil},
		{"missing both", BotForm{}, []string{"name", "token"}},
		{"blank name", BotForm{Name: "   ", Token: "1:a"}, []string{"name"}},
		{"missing token", BotForm{Name: "Echo"}, []string{"token"}},
		{"bad gateway", BotForm{Name: "Echo", Token: "t", GatewayID: "x"}, []string{"gateway_id"}},
	}
	for _, c := range cases {
		r := c.form.Validate()
		if len(r.Errors) != len(c.fields) {
			t.Fatalf("%s: errors=%+v want fields=%v", c.name, r.Errors, c.fields)
		}
		for _, f := range c.fields {
			if !r.Has(f) {
				t.Fatalf("%s: missing error on %s", c.name, f)
			}
		}
		if r.OK() != (len(c.fields) == 0) {
			t.Fatalf("%s: OK=%v", c.name, r.OK())
		}
	}
}

func TestGatewayKeyRequiredOnlyOnCreate(t *testing.T) {
	create := GatewayForm{Name: "Shop", APIURL: "https://pay"}
	if r := create.Validate(); !r.Has("api_key") {
		t.Fatalf("create without key should fail: %+v", r)
	}
	update := GatewayForm{ID: 4, Name: "Shop", APIURL: "https://pay"}
	if r := update.Validate(); !r.OK() {
		t.Fatalf("update without key should pass: %+v", r)
	}
	if in := update.Input(); in.APIKey != nil {
		t.Fatalf("empty key must be omitted on update")
	}
}

func TestGatewayFormRejectsUnknownType(t *testing.T) {
	f := GatewayForm{Name: "n", APIURL: "u", APIKey: "k", Type: "Cash"}
	if r := f.Validate(); !r.Has("type") {
		t.Fatalf("expected type error")
	}
}

func TestGatewayFormFromHidesKey(t *testing.T) {
	f := GatewayFormFrom(models.Gateway{ID: 1, Name: "Shop", Type: models.GatewayStripe, APIURL: "https://pay"})
	if f.APIKey != "" || f.Type != "Stripe" {
		t.Fatalf("form=%+v", f)
	}
}

func TestValidationErr(t *testing.T) {
	err := BotForm{}.Validate().Err()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err=%v want ErrInvalid", err)
	}
	if !strings.Contains(err.Error(), "bot name is required") {
		t.Fatalf("message=%q", err.Error())
	}
	if (BotForm{Name: "a", Token: "b"}).Validate().Err() != nil {
		t.Fatalf("valid form returned error")
	}
}

func TestBotInputGateway(t *testing.T) {
	in := BotForm{Name: " Echo ", Token: "t", GatewayID: "3"}.Input()
	if *in.Name != "Echo" || in.GatewayID == nil || *in.GatewayID != 3 {
		t.Fatalf("input=%+v", in)
	}
	if (BotForm{Name: "a", Token: "b"}).Input().GatewayID != nil {
		t.Fatalf("empty gateway should be nil")
	}
}

func TestCheckCodeUpload(t *testing.T) {
	code, err := CheckCodeUpload("bot.PY", []byte("print('hi')"))
	if err != nil || code != "print('hi')" {
		t.Fatalf("code=%q err=%v", code, err)
	}
	for _, name := range []string{"bot.txt", "bot", "bot.py.exe"} {
		if _, err := CheckCodeUpload(name, []byte("x")); !errors.Is(err, ErrNotPython) {
			t.Fatalf("%s: err=%v want ErrNotPython", name, err)
		}
	}
}

func TestNewBotFormHasTemplate(t *testing.T) {
	f := NewBotForm()
	if !strings.Contains(f.Code, TokenPlaceholder) || f.Editing() {
		t.Fatalf("form=%+v", f)
	}
}

func TestLogForm(t *testing.T) {
	r := LogForm{Level: "loud", Message: " ", BotID: "-1"}.Validate()
	for _, f := range []string{"level", "message", "bot_id"} {
		if !r.Has(f) {
			t.Fatalf("missing error on %s: %+v", f, r.Errors)
		}
	}
	in := LogForm{Level: "warning", Message: " disk low ", BotID: "7"}.Input()
	if in.Level != models.LogWarning || in.Message != "disk low" || in.BotID == nil || *in.BotID != 7 {
		t.Fatalf("input=%+v", in)
	}
	if in := (LogForm{Level: "info", Message: "x"}).Input(); in.BotID != nil {
		t.Fatalf("bot id=%v want nil", *in.BotID)
	}
}
