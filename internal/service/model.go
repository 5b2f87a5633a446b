package service

import "strings"

type EntryType string

const (
	TypeTask     EntryType = "task"
	TypeNote     EntryType = "note"
	TypeBookmark EntryType = "bookmark"
)

// Keyboard labels shown to the user. The Well API wants the lowercase type.
const (
	LabelTask     = "Task"
	LabelNote     = "Note"
	LabelBookmark = "Bookmark"
)

// EntryTypeLabels lists the selection options in keyboard order.
var EntryTypeLabels = []string{LabelTask, LabelNote, LabelBookmark}

// ParseEntryType maps a keyboard label to an entry type.
func ParseEntryType(label string) (EntryType, bool) {
	switch strings.TrimSpace(label) {
	case LabelTask:
		return TypeTask, true
	case LabelNote:
		return TypeNote, true
	case LabelBookmark:
		return TypeBookmark, true
	}
	return "", false
}

// Label returns the user-facing name of the entry type.
func (t EntryType) Label() string {
	switch t {
	case TypeTask:
		return LabelTask
	case TypeNote:
		return LabelNote
	case TypeBookmark:
		return LabelBookmark
	}
	return string(t)
}
