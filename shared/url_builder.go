package shared

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type TimelineKind int

const (
	KindHome TimelineKind = iota
	KindReplies
	KindDirect
	KindTransient
)

// Kinds that are persisted and refreshed in the background.
var SyncedKinds = []TimelineKind{KindHome, KindReplies, KindDirect}

func (k TimelineKind) String() string {
	switch k {
	case KindHome:
		return "home"
	case KindReplies:
		return "replies"
	case KindDirect:
		return "direct"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

func ParseTimelineKind(s string) (TimelineKind, error) {
	switch strings.ToLower(s) {
	case "home":
		return KindHome, nil
	case "replies", "mentions":
		return KindReplies, nil
	case "direct":
		return KindDirect, nil
	}
	return KindTransient, fmt.Errorf("unknown timeline kind: %s", s)
}

const (
	homeTimelinePath = "/1.1/statuses/home_timeline.json"
	mentionsPath     = "/1.1/statuses/mentions_timeline.json"
	directPath       = "/1.1/direct_messages.json"
	favoritesPath    = "/1.1/favorites/list.json"
	userTimelinePath = "/1.1/statuses/user_timeline.json"
	listStatusesPath = "/1.1/lists/statuses.json"
	defaultPageCount = 200
	mentionsCount    = 40
)

// Browsable resources served by paged timelines
const (
	ResourceFavorites = "favorites"
	ResourceUser      = "user"
	ResourceList      = "list"
)

type UrlBuilder struct {
	ApiBase string
}

func (ub *UrlBuilder) base() string {
	return strings.TrimRight(ub.ApiBase, "/")
}

func (ub *UrlBuilder) HomeTimeline() string {
	return ub.base() + homeTimelinePath
}

func (ub *UrlBuilder) Mentions() string {
	return ub.base() + mentionsPath
}

func (ub *UrlBuilder) DirectMessages() string {
	return ub.base() + directPath
}

func (ub *UrlBuilder) Favorites(screenName string) string {
	return ub.base() + favoritesPath + "?screen_name=" + url.QueryEscape(screenName)
}

func (ub *UrlBuilder) UserTimeline(screenName string) string {
	return ub.base() + userTimelinePath + "?screen_name=" + url.QueryEscape(screenName)
}

func (ub *UrlBuilder) ListStatuses(owner, slug string) string {
	return ub.base() + listStatusesPath + "?owner_screen_name=" + url.QueryEscape(owner) +
		"&slug=" + url.QueryEscape(slug)
}

// BrowseResource returns the base URL and page scheme of a browsable resource.
// arg is a screen name, or owner:slug for lists.
func (ub *UrlBuilder) BrowseResource(resource, arg string) (string, PageScheme, error) {
	if arg == "" {
		return "", PageScheme{}, fmt.Errorf("missing argument for resource %s", resource)
	}
	switch resource {
	case ResourceFavorites:
		return ub.Favorites(arg), FavoritesScheme(), nil
	case ResourceUser:
		return ub.UserTimeline(arg), UserTimelineScheme(), nil
	case ResourceList:
		owner, slug, ok := strings.Cut(arg, ":")
		if !ok || owner == "" || slug == "" {
			return "", PageScheme{}, fmt.Errorf("list must be given as owner:slug, got %s", arg)
		}
		return ub.ListStatuses(owner, slug), ListScheme(), nil
	}
	return "", PageScheme{}, fmt.Errorf("unknown resource: %s", resource)
}

// PageCount is how many items one request for the given kind asks for.
func PageCount(kind TimelineKind) int {
	if kind == KindReplies {
		return mentionsCount
	}
	return defaultPageCount
}

func (ub *UrlBuilder) TimelineRequest(kind TimelineKind, since, maxId *int64) string {
	var uri string
	switch kind {
	case KindHome:
		uri = ub.HomeTimeline()
	case KindReplies:
		uri = ub.Mentions()
	case KindDirect:
		uri = ub.DirectMessages()
	default:
		return ""
	}
	res := uri + "?count=" + strconv.Itoa(PageCount(kind))
	if since != nil {
		res += "&since_id=" + strconv.FormatInt(*since, 10)
	}
	if maxId != nil {
		res += "&max_id=" + strconv.FormatInt(*maxId, 10)
	}
	return res
}

// PageScheme names the query parameters a paged resource uses for each cursor role.
// Empty names mean the resource does not take that parameter.
type PageScheme struct {
	CountParam  string
	Count       int
	SinceParam  string
	PageParam   string
	OffsetParam string
}

// Pages is true if the resource can be read past its first page.
func (ps PageScheme) Pages() bool {
	return ps.PageParam != "" || ps.OffsetParam != ""
}

// PageCursor is the position a paged resource is fetched from.
type PageCursor struct {
	Page    int
	SinceId int64
}

// Offset of the first item of the cursor's page for offset+limit resources.
func (pc PageCursor) Offset(pageSize int) int {
	if pc.Page <= 1 {
		return 0
	}
	return (pc.Page - 1) * pageSize
}

func FavoritesScheme() PageScheme {
	return PageScheme{Count: 20, PageParam: "page="}
}

func UserTimelineScheme() PageScheme {
	return PageScheme{CountParam: "count=", Count: 50, SinceParam: "since_id=", PageParam: "page="}
}

func ListScheme() PageScheme {
	return PageScheme{CountParam: "per_page=", Count: 20, SinceParam: "since_id=", PageParam: "page="}
}

func SearchScheme() PageScheme {
	return PageScheme{CountParam: "rpp=", Count: 20, SinceParam: "since_id=", PageParam: "page="}
}

func OffsetScheme(offsetParam, limitParam string, limit int) PageScheme {
	return PageScheme{CountParam: limitParam, Count: limit, OffsetParam: offsetParam}
}

func BuildPageUrl(baseUrl string, scheme PageScheme, cursor PageCursor) (string, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(baseUrl)
	next := byte('?')
	if parsed.RawQuery != "" {
		next = '&'
	}
	add := func(param string, val string) {
		sb.WriteByte(next)
		sb.WriteString(param)
		sb.WriteString(val)
		next = '&'
	}
	page := max(cursor.Page, 1)
	if scheme.PageParam != "" {
		add(scheme.PageParam, strconv.Itoa(page))
	}
	if scheme.OffsetParam != "" {
		add(scheme.OffsetParam, strconv.Itoa(cursor.Offset(scheme.Count)))
	}
	if scheme.CountParam != "" {
		add(scheme.CountParam, strconv.Itoa(scheme.Count))
	}
	if scheme.SinceParam != "" && cursor.SinceId != 0 {
		add(scheme.SinceParam, strconv.FormatInt(cursor.SinceId, 10))
	}
	return sb.String(), nil
}
