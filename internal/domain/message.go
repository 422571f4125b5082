package domain

// ChatMessage is one logical entry in the conversation log.
//
// IDs are generated at write time; CreatedAt is assigned by the log at
// commit time and is monotonic per log, so readers must re-sort by it.
type ChatMessage struct {
	ID        MessageID
	ChatID    ChatID
	AuthorID  UserID
	Text      string
	Kind      MessageKind
	System    bool
	CreatedAt Timestamp
}

// NewUserQuery builds the record for a raw user submission.
func NewUserQuery(chatID ChatID, author UserID, text string) *ChatMessage {
	return &ChatMessage{
		ChatID:   chatID,
		AuthorID: author,
		Text:     text,
		Kind:     KindUserQuery,
	}
}

// NewSystemMessage builds the pipeline's reply record, tagged with the
// intent that produced it.
func NewSystemMessage(chatID ChatID, intent Intent, text string) *ChatMessage {
	return &ChatMessage{
		ChatID:   chatID,
		AuthorID: SystemAuthor,
		Text:     text,
		Kind:     MessageKind(intent),
		System:   true,
	}
}
