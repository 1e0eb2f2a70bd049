package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"watersafe/internal/config"
)

var ErrDisabled = errors.New("mail delivery is disabled")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ShoutrrrMailer delivers through every configured shoutrrr service URL.
// The recipient is passed per message as the toaddresses param, which the
// smtp service honours; chat-style services ignore it.
type ShoutrrrMailer struct {
	sender *router.ServiceRouter
	from   string
}

func New(cfg config.MailConfig) (Mailer, error) {
	if !cfg.Enabled {
		return disabled{}, nil
	}
	if len(cfg.URLs) == 0 {
		return nil, errors.New("at least one mail URL is required")
	}
	sender, err := shoutrrr.CreateSender(cfg.URLs...)
	if err != nil {
		// service URLs carry credentials; keep them out of the error
		return nil, fmt.Errorf("invalid mail service url")
	}
	if cfg.Timeout > 0 {
		sender.Timeout = cfg.Timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrMailer{sender: sender, from: cfg.From}, nil
}

func (m *ShoutrrrMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := stypes.Params{}
	if msg.Subject != "" {
		params.SetTitle(msg.Subject)
	}
	if msg.To != "" {
		params["toaddresses"] = msg.To
	}
	if m.from != "" {
		params["fromaddress"] = m.from
	}
	for _, err := range m.sender.Send(msg.Body, &params) {
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
	}
	return nil
}

type disabled struct{}

func (disabled) Send(context.Context, Message) error {
	return ErrDisabled
}

// Recorder keeps messages in memory. Used by tests and dry runs.
type Recorder struct {
	Sent []Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, msg)
	return nil
}

func ValidAddress(addr string) bool {
	return strings.Contains(addr, "@")
}
