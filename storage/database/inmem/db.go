package inmemdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	"github.com/trezcool/campus/core/complaint"
	"github.com/trezcool/campus/core/lostfound"
	"github.com/trezcool/campus/core/marketplace"
	"github.com/trezcool/campus/core/poll"
	"github.com/trezcool/campus/core/techfeed"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

// DB holds every table in memory. A single lock guards them all so that
// writes spanning tables (reviews, votes) stay atomic.
type DB struct {
	mutex sync.RWMutex

	users         map[string]*user.User
	announcements map[string]*announcement.Announcement
	complaints    map[string]*complaint.Complaint
	items         map[string]*lostfound.Item
	entries       map[string]*timetable.Entry
	skills        map[string]*marketplace.Skill
	sessions      map[string]*marketplace.Session
	reviews       map[string]*marketplace.Review
	posts         map[string]*techfeed.Post
	saved         map[string]map[string]time.Time // userID -> postID -> savedAt
	polls         map[string]*poll.Poll
	votes         map[string]map[string]int // pollID -> userID -> option
}

var _ core.Pinger = (*DB)(nil)

func Open() *DB {
	return &DB{
		users:         make(map[string]*user.User),
		announcements: make(map[string]*announcement.Announcement),
		complaints:    make(map[string]*complaint.Complaint),
		items:         make(map[string]*lostfound.Item),
		entries:       make(map[string]*timetable.Entry),
		skills:        make(map[string]*marketplace.Skill),
		sessions:      make(map[string]*marketplace.Session),
		reviews:       make(map[string]*marketplace.Review),
		posts:         make(map[string]*techfeed.Post),
		saved:         make(map[string]map[string]time.Time),
		polls:         make(map[string]*poll.Poll),
		votes:         make(map[string]map[string]int),
	}
}

func (db *DB) PingContext(context.Context) error { return nil }

// sortKey returns a value of obj that sorts like the column it was registered for.
type sortKey[T any] func(obj T) string

const timeKeyLayout = "20060102150405.000000000"

func timeKey(t time.Time) string {
	return t.UTC().Format(timeKeyLayout)
}

// sortByColumns orders list by the given column orderings, falling back to dflt.
// Unknown columns are ignored.
func sortByColumns[T any](list []T, keys map[string]sortKey[T], ordering []core.DBOrdering, dflt core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{dflt}
	}
	sort.SliceStable(list, func(i, j int) bool {
		for _, ord := range ordering {
			key, ok := keys[ord.Field]
			if !ok {
				continue
			}
			a, b := key(list[i]), key(list[j])
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
}
