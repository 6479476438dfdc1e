// Package mailer delivers verify and reset emails. Delivery is always
// fire-and-forget from the caller's point of view.
package mailer

import (
	"context"
	"fmt"
	"strings"
)

type Flavor string

const (
	FlavorVerify Flavor = "verify"
	FlavorReset  Flavor = "reset"
)

type flavorInfo struct {
	subject  string
	template string
	path     string
}

var flavors = map[Flavor]flavorInfo{
	FlavorVerify: {subject: "Confirm your email", template: "verify_email.html", path: "api/auth/confirmed_email/"},
	FlavorReset:  {subject: "Reset", template: "reset_password.html", path: "api/auth/update_password/"},
}

// Message is one outbound email task. It is also the Kafka payload.
type Message struct {
	ToEmail    string `json:"to_email"`
	ToUsername string `json:"to_username"`
	BaseURL    string `json:"base_url"`
	Flavor     Flavor `json:"flavor"`
	Token      string `json:"token"`
}

func (m Message) info() (flavorInfo, error) {
	s, ok := flavors[m.Flavor]
	if !ok {
		return flavorInfo{}, fmt.Errorf("mailer: unknown flavor %q", m.Flavor)
	}
	return s, nil
}

func (m Message) Subject() string {
	s, _ := m.info()
	return s.subject
}

// Link is the URL the recipient follows to redeem the token.
func (m Message) Link() string {
	s, err := m.info()
	if err != nil {
		return ""
	}
	base := m.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + s.path + m.Token
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
