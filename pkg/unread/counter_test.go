package unread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mahaj/guestline/pkg/model"
)

func TestCounterBumpAndClear(t *testing.T) {
	c := NewCounter()

	c.Bump("alice")
	c.Bump("alice")
	c.Bump("bob")

	assert.Equal(t, 2, c.Count("alice"))
	assert.Equal(t, 1, c.Count("bob"))

	c.Clear("alice")
	assert.Equal(t, 0, c.Count("alice"))
	assert.Equal(t, 1, c.Count("bob"), "clearing one guest leaves others alone")
}

func TestCounterClearUnknownGuest(t *testing.T) {
	c := NewCounter()
	c.Clear("nobody")
	assert.Equal(t, 0, c.Count("nobody"))
}

func TestCounterBootstrapSkipsZeroes(t *testing.T) {
	c := NewCounter()
	c.Bootstrap(map[string]int{"alice": 3, "bob": 0})

	assert.Equal(t, 3, c.Count("alice"))

	snap := c.Snapshot()
	_, present := snap["bob"]
	assert.False(t, present)
}

func TestCounterToggle(t *testing.T) {
	c := NewCounter()

	assert.True(t, c.Toggle("alice"), "toggling a read guest marks it unread")
	assert.Equal(t, 1, c.Count("alice"))

	assert.False(t, c.Toggle("alice"), "toggling again clears it")
	assert.Equal(t, 0, c.Count("alice"))

	c.Bump("bob")
	c.Bump("bob")
	assert.False(t, c.Toggle("bob"), "toggle clears a multi-message badge")
	assert.Equal(t, 0, c.Count("bob"))
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCounter()
	c.Bump("alice")

	snap := c.Snapshot()
	snap["alice"] = 99

	assert.Equal(t, 1, c.Count("alice"))
}

func TestSortGuestsOrdering(t *testing.T) {
	now := time.Now()
	window := 2 * time.Minute

	recent := now.Add(-30 * time.Second)
	lessRecent := now.Add(-90 * time.Second)
	stale := now.Add(-time.Hour)

	guests := []model.Guest{
		{Username: "offline_quiet", LastActivity: &stale},
		{Username: "online_quiet", LastActivity: &recent},
		{Username: "online_older", LastActivity: &lessRecent},
		{Username: "offline_unread", LastActivity: nil},
		{Username: "online_unread", LastActivity: &recent},
	}
	counts := map[string]int{
		"offline_unread": 1,
		"online_unread":  4,
	}

	SortGuests(guests, counts, now, window)

	names := make([]string, len(guests))
	for i, g := range guests {
		names[i] = g.Username
	}
	assert.Equal(t, []string{
		"online_unread",  // highest badge wins outright
		"offline_unread", // any badge beats no badge
		"online_quiet",   // online, most recent
		"online_older",
		"offline_quiet",
	}, names)
}

func TestSortGuestsNilActivityLast(t *testing.T) {
	now := time.Now()
	stale := now.Add(-time.Hour)

	guests := []model.Guest{
		{Username: "departed", LastActivity: nil},
		{Username: "stale", LastActivity: &stale},
	}

	SortGuests(guests, nil, now, 2*time.Minute)

	assert.Equal(t, "stale", guests[0].Username)
	assert.Equal(t, "departed", guests[1].Username)
}
