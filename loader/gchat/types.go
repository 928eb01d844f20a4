package gchat

// Wire shapes of the Google Takeout "Google Chat" export. Fields the
// export sometimes omits (attachments have no text, deleted users have
// no name) are pointers so the documented fallbacks apply only when the
// key is actually missing.

type chatExport struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Creator     *chatCreator `json:"creator"`
	CreatedDate *string      `json:"created_date"`
	Text        *string      `json:"text"`
	MessageID   *string      `json:"message_id"`
}

type chatCreator struct {
	Name *string `json:"name"`
}

type userInfoFile struct {
	MembershipInfo []membershipInfo `json:"membership_info"`
}

type membershipInfo struct {
	GroupID   string  `json:"group_id"`
	GroupName *string `json:"group_name"`
}

const (
	unknownName  = "Unknown"
	unknownText  = "No text available"
	unknownID    = "Unknown ID"
	unknownDate  = "Unknown Date"
	unknownSpace = "Unknown Space"
)

func (m chatMessage) creatorName() string {
	if m.Creator == nil || m.Creator.Name == nil {
		return unknownName
	}
	return *m.Creator.Name
}

func (m chatMessage) text() string {
	if m.Text == nil {
		return unknownText
	}
	return *m.Text
}

func (m chatMessage) messageID() string {
	if m.MessageID == nil {
		return unknownID
	}
	return *m.MessageID
}

// urlMessageID is the id used in record URLs. A missing id yields a
// bare channel URL rather than one pointing at "Unknown ID".
func (m chatMessage) urlMessageID() string {
	if m.MessageID == nil {
		return ""
	}
	return *m.MessageID
}

func (m chatMessage) createdDate() string {
	if m.CreatedDate == nil {
		return unknownDate
	}
	return *m.CreatedDate
}
