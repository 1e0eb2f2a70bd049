package signup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpoint = "http://signup.example.test/api/send-email"

func mockedClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(endpoint, time.Second)
	httpmock.ActivateNonDefault(c.HTTP().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestSendSuccess(t *testing.T) {
	c := mockedClient(t)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewJsonResponderOrPanic(200, Response{Success: true, Message: MessageSent}))

	resp, err := c.Send(context.Background(), Request{Email: "a@b.c", WaterSystem: "Baxley"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, MessageSent, resp.Message)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSendSurfacesFailures(t *testing.T) {
	c := mockedClient(t)
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewJsonResponderOrPanic(200, Response{Success: false, Message: "quota exceeded"}))

	req := Request{Email: "a@b.c", Phone: "555", County: "Appling"}
	_, err := c.Send(context.Background(), req)
	require.Error(t, err)
	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "quota exceeded", sendErr.Message)
	assert.Equal(t, "555", req.Phone, "form state must survive a failure")

	httpmock.Reset()
	httpmock.RegisterResponder("POST", endpoint,
		httpmock.NewJsonResponderOrPanic(400, Response{Success: false, Message: MessageInvalidEmail}))
	_, err = c.Send(context.Background(), req)
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, 400, sendErr.Status)
	assert.Equal(t, MessageInvalidEmail, sendErr.Message)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "no retries")

	httpmock.Reset()
	httpmock.RegisterResponder("POST", endpoint, httpmock.NewStringResponder(502, "bad gateway"))
	_, err = c.Send(context.Background(), req)
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, 502, sendErr.Status)
	assert.Equal(t, MessageSendFailed, sendErr.Message)
}

func TestValidateAndConfirmation(t *testing.T) {
	assert.ErrorIs(t, Validate(Request{Email: "nobody"}), ErrInvalidEmail)
	assert.NoError(t, Validate(Request{Email: "someone@example.com"}))

	msg := Confirmation(Request{Email: " someone@example.com ", County: "Appling"})
	assert.Equal(t, "someone@example.com", msg.To)
	assert.Equal(t, "Water Quality Alert Signup - Water System", msg.Subject)
	assert.Contains(t, msg.Body, "Water System: Not specified")
	assert.Contains(t, msg.Body, "County: Appling")
	assert.False(t, strings.Contains(msg.Body, "Phone:"))
}

func TestThrottle(t *testing.T) {
	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(time.Minute)
	th.clock = func() time.Time { return now }

	assert.True(t, th.Allow("A@example.com"))
	assert.False(t, th.Allow("a@example.com"))
	now = now.Add(61 * time.Second)
	assert.True(t, th.Allow("a@example.com"))

	assert.False(t, th.Allow("a@example.com"))
	th.Forget("a@example.com")
	assert.True(t, th.Allow("a@example.com"))

	assert.True(t, NewThrottle(0).Allow("x@y.z"))
}
