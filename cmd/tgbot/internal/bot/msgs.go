package bot

import _ "embed"

// DefaultMessages are the message templates compiled into the binary.
// Set BUCKETBOT_MSGS_PATH to override them with a live-editable file.
//
//go:embed msgs.json
var DefaultMessages []byte

// error messages
const (
	panicMsgId               = "panic"
	errorUnknownTypeMsgId    = "unknown_type"
	errorUnknownCommandMsgId = "unknown_command"
	errorEmptyContentMsgId   = "empty_content"
	errorOnSubmitMsgId       = "submit_error"
	errorOnCountMsgId        = "count_error"
	errorOnStartMsgId        = "start_error"
	errorOnCancelMsgId       = "cancel_error"
	errorOnStatsMsgId        = "stats_error"
)

const (
	accessDeniedMsgId   = "access_denied"
	startMsgId          = "start"
	helpMsgId           = "help"
	cancelledMsgId      = "cancelled"
	typeSelectedMsgId   = "type_selected"
	idleNudgeMsgId      = "idle_nudge"
	submitOkMsgId       = "submit_ok"
	submitRejectedMsgId = "submit_rejected"
	statsMsgId          = "stats"
)
