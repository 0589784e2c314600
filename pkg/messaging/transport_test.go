package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
	"github.com/matst80/slask-theme/pkg/events"
)

func TestExchangeName(t *testing.T) {
	assert.Equal(t, "shop_theme_event", exchangeName("shop", ThemeEvents))
	assert.Equal(t, "theme_event", exchangeName("", ThemeEvents))
}

func TestMessageWireFormat(t *testing.T) {
	b, err := jsoncompat.Marshal(events.Message{Origin: "tab-1", Name: events.WishlistUpdated, Detail: []byte(`{"count":1}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"origin":"tab-1","name":"wishlist:updated","detail":{"count":1}}`, string(b))

	msg, err := decodeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, "tab-1", msg.Origin)
	assert.Equal(t, events.WishlistUpdated, msg.Name)

	_, err = decodeMessage([]byte("nope"))
	assert.Error(t, err)
}
