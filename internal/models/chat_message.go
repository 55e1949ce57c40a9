package models

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

func (r ChatRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ChatMessage is one turn of the conversation about a document. Rows are append-only.
type ChatMessage struct {
	Base
	DocumentID   string   `json:"documentId"             gorm:"type:char(36);not null;index:idx_chat_messages_doc_owner,priority:1"`
	Owner        string   `json:"-"                      gorm:"type:varchar(64);not null;index:idx_chat_messages_doc_owner,priority:2"`
	Role         ChatRole `json:"role"                   gorm:"type:varchar(16);not null"`
	Content      string   `json:"content"                gorm:"type:longtext;not null"`
	SelectedText *string  `json:"selectedText,omitempty" gorm:"type:text"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
