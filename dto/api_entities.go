package dto

import "time"

type Account struct {
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
	LastLoaded time.Time `json:"last_loaded"`
}

type TimelineItem struct {
	Id         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UserName   string    `json:"user_name"`
	ScreenName string    `json:"screen_name"`
	Text       string    `json:"text"`
	Source     string    `json:"source,omitempty"`
	SourceUrl  string    `json:"source_url,omitempty"`
	Favorited  bool      `json:"favorited"`
}

// TimelineEntry is one row of a timeline view: an item, a "load more" affordance, or an error placeholder.
type TimelineEntry struct {
	Type    string        `json:"type"`
	Item    *TimelineItem `json:"item,omitempty"`
	MaxId   int64         `json:"max_id,omitempty"`
	Loading bool          `json:"loading,omitempty"`
	Caption string        `json:"caption,omitempty"`
}

type Timeline struct {
	Username string          `json:"username"`
	Kind     string          `json:"kind"`
	State    string          `json:"state"`
	Entries  []TimelineEntry `json:"entries"`
}

type MergeResult struct {
	Merged     int  `json:"merged"`
	Continuous bool `json:"continuous"`
	Failed     bool `json:"failed"`
}

type NetworkStatus struct {
	Active   bool `json:"active"`
	Count    int  `json:"count"`
	InFlight int  `json:"in_flight"`
	Queued   int  `json:"queued"`
}

// PagedTimeline is a browsed resource, such as a user's favorites. It is not persisted.
type PagedTimeline struct {
	Username string          `json:"username"`
	Resource string          `json:"resource"`
	Arg      string          `json:"arg"`
	HasMore  bool            `json:"has_more"`
	Entries  []TimelineEntry `json:"entries"`
}

type PageResult struct {
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
	Failed  bool `json:"failed"`
}
