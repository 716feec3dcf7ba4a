package debate

import (
	"fmt"
	"time"
)

// queryTimeLayout is the aggregator's advanced-search timestamp format.
const queryTimeLayout = "2006-01-02_15:04:05_UTC"

// DefaultWindow is the trailing time window queries cover when none is configured.
const DefaultWindow = 10 * time.Minute

// Query is one aggregator advanced-search request: the query text plus the
// window bounds it was built from (both UTC). MinLikes is zero when the query
// carries no like floor.
type Query struct {
	Text     string
	Start    time.Time
	End      time.Time
	MinLikes int
}

// RecentPostsQuery selects original posts (no replies, no native retweets)
// authored by account within the trailing window ending at now. The window is
// anchored to the caller's wall clock, so back-to-back calls see slightly
// different bounds.
func RecentPostsQuery(account string, now time.Time, window time.Duration) Query {
	start, end := windowBounds(now, window)
	return Query{
		Text: fmt.Sprintf("from:%s -filter:replies -filter:nativeretweets since:%s until:%s",
			account, start.Format(queryTimeLayout), end.Format(queryTimeLayout)),
		Start: start,
		End:   end,
	}
}

// PopularRepliesQuery selects replies in conversationID's thread within the
// trailing window ending at now that have at least minLikes likes.
func PopularRepliesQuery(conversationID string, minLikes int, now time.Time, window time.Duration) Query {
	start, end := windowBounds(now, window)
	return Query{
		Text: fmt.Sprintf("conversation_id:%s filter:replies min_faves:%d since:%s until:%s",
			conversationID, minLikes, start.Format(queryTimeLayout), end.Format(queryTimeLayout)),
		Start:    start,
		End:      end,
		MinLikes: minLikes,
	}
}

func windowBounds(now time.Time, window time.Duration) (time.Time, time.Time) {
	if window <= 0 {
		window = DefaultWindow
	}
	end := now.UTC()
	return end.Add(-window), end
}
