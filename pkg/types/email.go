package types

import (
	"strings"
	"time"
)

// Account represents a configured mail account
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FolderType tags a folder with its special use
type FolderType string

const (
	FolderNormal   FolderType = "normal"
	FolderInbox    FolderType = "inbox"
	FolderArchives FolderType = "archives"
	FolderSent     FolderType = "sent"
	FolderDrafts   FolderType = "drafts"
	FolderTrash    FolderType = "trash"
	FolderJunk     FolderType = "junk"
	FolderAll      FolderType = "all"
)

// FolderRef identifies a folder across accounts
type FolderRef struct {
	AccountID string `json:"account_id"`
	Path      string `json:"path"`
}

// Folder represents an email folder/mailbox and its children
type Folder struct {
	AccountID  string     `json:"account_id"`
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Type       FolderType `json:"type"`
	Selectable bool       `json:"selectable"`
	SubFolders []*Folder  `json:"sub_folders,omitempty"`
}

// Ref returns the folder identity
func (f *Folder) Ref() FolderRef {
	return FolderRef{AccountID: f.AccountID, Path: f.Path}
}

// DisplayPath is the path without its leading separator
func (r FolderRef) DisplayPath() string {
	return strings.TrimPrefix(r.Path, "/")
}

// FolderInfo holds the derived facts about a folder
type FolderInfo struct {
	Favorite           bool `json:"favorite"`
	UnreadMessageCount int  `json:"unread_message_count"`
	TotalMessageCount  int  `json:"total_message_count"`
}

// Message is the summary of a message as delivered in pages
type Message struct {
	HeaderMessageID string    `json:"header_message_id"`
	AccountID       string    `json:"account_id"`
	FolderPath      string    `json:"folder_path"`
	UID             uint32    `json:"uid"`
	Author          string    `json:"author"`
	Subject         string    `json:"subject"`
	Read            bool      `json:"read"`
	Date            time.Time `json:"date"`
}

// Folder returns the folder the message lives in
func (m Message) Folder() FolderRef {
	return FolderRef{AccountID: m.AccountID, Path: m.FolderPath}
}

// MessagePage is one bounded batch of messages. A non-empty ID means
// more pages can be fetched with it.
type MessagePage struct {
	Messages []Message `json:"messages"`
	ID       string    `json:"id,omitempty"`
}

// Email represents an opened message with its body
type Email struct {
	Message
	SenderName  string   `json:"sender_name"`
	SenderEmail string   `json:"sender_email"`
	Recipients  []string `json:"recipients"`
	BodyText    string   `json:"body_text,omitempty"`
	BodyHTML    string   `json:"body_html,omitempty"`
}

// MailTab is the active mail view
type MailTab struct {
	ID               string     `json:"id"`
	DisplayedFolder  *FolderRef `json:"displayed_folder,omitempty"`
	DisplayedMessage *Message   `json:"displayed_message,omitempty"`
}

// NotificationBasic is the only presentation kind in use
const NotificationBasic = "basic"

// Notification is the payload of a desktop notification
type Notification struct {
	Kind  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"message"`
	Icon  string `json:"icon_url"`
}

// WindowType distinguishes main windows from popups
type WindowType string

const (
	WindowNormal WindowType = "normal"
	WindowPopup  WindowType = "popup"
)

// Window is an open host window
type Window struct {
	ID   int        `json:"id"`
	Type WindowType `json:"type"`
}
