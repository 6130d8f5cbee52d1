package unread

import (
	"sort"
	"time"

	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/presence"
)

// SortGuests orders the dashboard roster: unread count descending, then
// online before offline, then most recent activity first. Ties keep their
// existing order.
func SortGuests(guests []model.Guest, counts map[string]int, now time.Time, window time.Duration) {
	sort.SliceStable(guests, func(i, j int) bool {
		gi, gj := guests[i], guests[j]

		ci, cj := counts[gi.Username], counts[gj.Username]
		if ci != cj {
			return ci > cj
		}

		oi := presence.Online(gi.LastActivity, now, window)
		oj := presence.Online(gj.LastActivity, now, window)
		if oi != oj {
			return oi
		}

		switch {
		case gi.LastActivity == nil && gj.LastActivity == nil:
			return false
		case gj.LastActivity == nil:
			return true
		case gi.LastActivity == nil:
			return false
		default:
			return gi.LastActivity.After(*gj.LastActivity)
		}
	})
}
