package gmail

// MessageID is the opaque id Gmail returns from a list query.
type MessageID string

// LabelID is a Gmail label id such as UNREAD or INBOX.
type LabelID string

// System labels used by the maintenance commands.
const (
	LabelUnread LabelID = "UNREAD"
	LabelInbox  LabelID = "INBOX"
)

// ListPage is one page of a messages.list response.
type ListPage struct {
	IDs           []MessageID
	NextPageToken string
}

// MessageMeta holds the headers requested from a metadata fetch.
type MessageMeta struct {
	ID       MessageID
	LabelIDs []LabelID
	Headers  map[string]string
}

// Header returns the named header value and whether it was present.
func (m MessageMeta) Header(name string) (string, bool) {
	v, ok := m.Headers[name]
	return v, ok
}

// ModifyOps is the label delta applied by Modify and BatchModify.
type ModifyOps struct {
	AddLabels    []LabelID
	RemoveLabels []LabelID
}

// MarkRead is the label delta that clears the unread flag.
func MarkRead() ModifyOps {
	return ModifyOps{RemoveLabels: []LabelID{LabelUnread}}
}

// Query is a Gmail search string, already formed (e.g. `before:2024/01/31`).
type Query struct {
	Raw string
}
