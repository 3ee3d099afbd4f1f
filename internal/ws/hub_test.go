package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_NotifyUsers_DeliversOnlyToRecipients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	recipient := &Client{hub: h, userID: uuid.New(), send: make(chan []byte, 1)}
	bystander := &Client{hub: h, userID: uuid.New(), send: make(chan []byte, 1)}
	h.Register(recipient)
	h.Register(bystander)

	require.NoError(t, h.NotifyUsers(
		[]uuid.UUID{recipient.userID},
		EventJobCompleted,
		map[string]string{"job_id": uuid.NewString()},
	))

	select {
	case raw := <-recipient.send:
		var msg struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, EventJobCompleted, msg.Type)
		assert.NotEmpty(t, msg.Data["job_id"])
	case <-time.After(time.Second):
		t.Fatal("событие не дошло до адресата")
	}

	select {
	case <-bystander.send:
		t.Fatal("событие ушло постороннему пользователю")
	default:
	}
}

func TestHub_Run_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("цикл хаба не остановился после отмены контекста")
	}
}
