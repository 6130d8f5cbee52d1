package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentSingleMarshalsAsString(t *testing.T) {
	data, err := json.Marshal(TextContent("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `"hello"`, string(data))
}

func TestContentListMarshalsAsArray(t *testing.T) {
	data, err := json.Marshal(URLContent("https://a/1.png", "https://a/2.png"))
	require.NoError(t, err)
	assert.JSONEq(t, `["https://a/1.png","https://a/2.png"]`, string(data))
}

func TestContentUnmarshalString(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`"hi there"`), &c))

	s, single := c.Single()
	assert.True(t, single)
	assert.Equal(t, "hi there", s)
}

func TestContentUnmarshalArray(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`["u1","u2","u3"]`), &c))

	_, single := c.Single()
	assert.False(t, single)
	assert.Equal(t, []string{"u1", "u2", "u3"}, c.Parts())
}

func TestContentIsEmpty(t *testing.T) {
	assert.True(t, Content{}.IsEmpty())
	assert.True(t, TextContent("").IsEmpty())
	assert.False(t, TextContent("x").IsEmpty())
	assert.False(t, URLContent("", "u").IsEmpty())
}

func TestCounterpart(t *testing.T) {
	assert.Equal(t, SenderAdmin, SenderGuest.Counterpart())
	assert.Equal(t, SenderGuest, SenderAdmin.Counterpart())
}

func TestMessageOrdering(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	earlier := Message{ID: 2, CreatedAt: t0}
	later := Message{ID: 1, CreatedAt: t0.Add(time.Second)}

	assert.True(t, earlier.Before(later), "creation time dominates id")
	assert.False(t, later.Before(earlier))

	tieLow := Message{ID: 5, CreatedAt: t0}
	tieHigh := Message{ID: 9, CreatedAt: t0}
	assert.True(t, tieLow.Before(tieHigh), "id breaks creation-time ties")
}

func TestMessageJSONRoundTrip(t *testing.T) {
	price := 4.99
	m := Message{
		ID:          42,
		GuestName:   "alice",
		Sender:      SenderAdmin,
		Content:     URLContent("https://blob/x.png"),
		ContentType: ContentImage,
		Price:       &price,
		IsLocked:    true,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var out Message
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, m, out)
}

func TestMessageJSONOmitsNilPrice(t *testing.T) {
	data, err := json.Marshal(Message{ID: 1, Content: TextContent("hi")})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "price")
}
