package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watersafe/internal/config"
)

func TestNewDisabled(t *testing.T) {
	m, err := New(config.MailConfig{Enabled: false})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Send(context.Background(), Message{To: "a@b.c"}), ErrDisabled)
}

func TestNewRequiresURLs(t *testing.T) {
	_, err := New(config.MailConfig{Enabled: true})
	require.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send(context.Background(), Message{To: "a@b.c", Subject: "hi"}))
	require.Len(t, r.Sent, 1)
	assert.Equal(t, "hi", r.Sent[0].Subject)

	r.Err = errors.New("smtp down")
	assert.Error(t, r.Send(context.Background(), Message{}))
	assert.Len(t, r.Sent, 1)
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("resident@example.org"))
	assert.False(t, ValidAddress("resident.example.org"))
	assert.False(t, ValidAddress(""))
}
