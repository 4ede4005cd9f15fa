package tabstatus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarmac-project/jstore/channel"
	"github.com/tarmac-project/jstore/kv/mock"
	"github.com/tarmac-project/jstore/storage"
	"github.com/tarmac-project/jstore/tabstatus"
)

var _ channel.Observer = (*tabstatus.Title)(nil)

func TestTitle(t *testing.T) {
	var changes []string
	title := tabstatus.New("Shop", func(s string) { changes = append(changes, s) })

	title.Received("reload")
	title.Received("reload")
	assert.Equal(t, "Shop (inactive)", title.String(), "the marker is never doubled")
	assert.True(t, title.Inactive())

	title.Fired("reload")
	assert.Equal(t, "Shop", title.String())
	assert.False(t, title.Inactive())

	title.Fired("reload")
	assert.Equal(t, []string{"Shop (inactive)", "Shop"}, changes, "unchanged titles are not reported")
}

func TestTitle_NoCallback(t *testing.T) {
	title := tabstatus.New("Cart (inactive)", nil)
	title.Fired("x")
	assert.Equal(t, "Cart", title.String())
}

func TestTitle_WithChannel(t *testing.T) {
	origin := storage.NewOrigin(mock.New(mock.Config{}))
	ctxA, ctxB := origin.Attach(), origin.Attach()

	titleA := tabstatus.New("App", nil)
	titleB := tabstatus.New("App", nil)

	a, err := channel.New(channel.Config{Port: ctxA, Observer: titleA})
	require.NoError(t, err)
	b, err := channel.New(channel.Config{Port: ctxB, Observer: titleB})
	require.NoError(t, err)

	require.NoError(t, a.Watch("sync", func(channel.Event) error { return nil }))
	require.NoError(t, b.Watch("sync", func(channel.Event) error { return nil }))

	require.NoError(t, b.FireCommand("sync"))
	ctxA.Flush()
	assert.Equal(t, "App (inactive)", titleA.String())
	assert.Equal(t, "App", titleB.String())

	require.NoError(t, a.FireCommand("sync"))
	ctxB.Flush()
	assert.Equal(t, "App", titleA.String())
	assert.Equal(t, "App (inactive)", titleB.String())
}
