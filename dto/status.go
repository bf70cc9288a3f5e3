package dto

// Status is one item of a remote timeline response, as the API serializes it.
// Direct messages carry the author in Sender instead of User.
type Status struct {
	Id        int64  `json:"id"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	Favorited bool   `json:"favorited"`
	User      *User  `json:"user,omitempty"`
	Sender    *User  `json:"sender,omitempty"`
}

type User struct {
	Id         int64  `json:"id"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// UploadResponse is the XML confirmation returned by the media host.
type UploadResponse struct {
	Stat     string `xml:"stat,attr"`
	MediaUrl string `xml:"mediaurl"`
	Err      *struct {
		Code string `xml:"code,attr"`
		Msg  string `xml:"msg,attr"`
	} `xml:"err"`
}
