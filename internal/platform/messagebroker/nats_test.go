package messagebroker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNATSClient_PublishWithoutConnection(t *testing.T) {
	var c *NATSClient
	err := c.Publish(context.Background(), "numbering.range.synced", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConnected)

	c = &NATSClient{}
	err = c.Publish(context.Background(), "numbering.range.synced", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestNATSClient_CloseIsSafeWithoutConnection(t *testing.T) {
	var c *NATSClient
	assert.NotPanics(t, c.Close)
	assert.NotPanics(t, (&NATSClient{}).Close)
}
