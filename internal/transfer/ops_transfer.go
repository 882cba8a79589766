package transfer

// PendingPost is one pending feed row as shown by the ops API.
type PendingPost struct {
	Row         int    `json:"row"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url,omitempty"`
	ScheduledAt string `json:"scheduled_at"`
	Platform    string `json:"platform"`
	Due         bool   `json:"due"`
}

// FeedIssue is a malformed row surfaced for operator cleanup.
type FeedIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type PendingPostsResponse struct {
	Pending []PendingPost `json:"pending"`
	Issues  []FeedIssue   `json:"issues,omitempty"`
}
