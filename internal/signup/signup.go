package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"watersafe/internal/mailer"
)

// Request is the alert signup form.
type Request struct {
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	WaterSystem string `json:"waterSystem,omitempty"`
	County      string `json:"county,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	MessageInvalidEmail = "Please enter a valid email address"
	MessageSent         = "Email sent successfully! Check your inbox for confirmation."
	MessageSendFailed   = "Failed to send email. Please try again."
	MessageTooSoon      = "A confirmation was sent to this address recently. Please wait before trying again."
)

// SendError is returned when the endpoint rejects a signup. Message is safe
// to show to the user.
type SendError struct {
	Status  int
	Message string
}

func (e *SendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("signup failed (status %d): %s", e.Status, e.Message)
	}
	return "signup failed: " + e.Message
}

// Client posts signups to the notification endpoint. It never retries.
type Client struct {
	endpoint string
	http     *resty.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) HTTP() *resty.Client {
	return c.http
}

func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	var out Response
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post(c.endpoint)
	if err != nil {
		return Response{}, fmt.Errorf("signup request: %w", err)
	}
	if resp.IsError() || !out.Success {
		msg := strings.TrimSpace(out.Message)
		if msg == "" {
			msg = MessageSendFailed
		}
		return out, &SendError{Status: resp.StatusCode(), Message: msg}
	}
	return out, nil
}

var ErrInvalidEmail = errors.New(MessageInvalidEmail)

// Validate applies the only server-side check on the form.
func Validate(req Request) error {
	if !mailer.ValidAddress(strings.TrimSpace(req.Email)) {
		return ErrInvalidEmail
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Confirmation builds the message sent back to a new subscriber.
func Confirmation(req Request) mailer.Message {
	var b strings.Builder
	b.WriteString("Water Quality Alert Confirmation\n\n")
	b.WriteString("Thank you for signing up for water quality alerts!\n\n")
	b.WriteString("Your Alert Preferences:\n")
	fmt.Fprintf(&b, "Email: %s\n", req.Email)
	if req.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	}
	fmt.Fprintf(&b, "Water System: %s\n", orDefault(req.WaterSystem, "Not specified"))
	fmt.Fprintf(&b, "County: %s\n\n", orDefault(req.County, "Not specified"))
	b.WriteString("What You'll Receive:\n")
	for _, item := range []string{
		"Violation notifications",
		"Boil water advisories",
		"Resolution updates",
		"Water quality reports",
		"Emergency notifications",
	} {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\nYou can unsubscribe at any time by replying to this email with \"UNSUBSCRIBE\" in the subject line.\n")
	return mailer.Message{
		To:      strings.TrimSpace(req.Email),
		Subject: "Water Quality Alert Signup - " + orDefault(req.WaterSystem, "Water System"),
		Body:    b.String(),
	}
}
