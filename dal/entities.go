package dal

import (
	"time"
	"timeline_station/shared"
)

type Account struct {
	Id          int
	CreatedAt   time.Time
	Username    string // miguel
	Token       string // per-user token paired with the consumer key
	TokenSecret string
	LastLoaded  time.Time // last time any timeline of this account synced
}

// Item is one timeline entry. Identifiers grow with recency.
type Item struct {
	Id          int64
	AccountId   int
	Kind        shared.TimelineKind
	CreatedAt   time.Time
	UserName    string // Miguel de Icaza
	ScreenName  string // migueldeicaza
	Text        string
	Source      string // Twitter for iPhone
	SourceUrl   string
	Favorited   bool
	ContentHash int64
}
