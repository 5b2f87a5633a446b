package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/sumeetsaini/bucketbot/internal/service"
	"github.com/sumeetsaini/bucketbot/internal/storage"
	"github.com/sumeetsaini/bucketbot/internal/wellapi"
	"github.com/sumeetsaini/bucketbot/pkg/msgstore"
	"github.com/sumeetsaini/bucketbot/pkg/queue"
)

// responses are relayed verbatim, but a reply must fit in one telegram message
const maxRelayedResponseLength = 1024

// msgSender is the outbound side of the telegram API.
type msgSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	service        *service.Service
	bot            *tgbotapi.BotAPI
	sender         msgSender
	contentQueue   *queue.ContentQueue
	msgs           *msgstore.Store
	authorizedUser int64
}

type Config struct {
	Token          string
	Service        *service.Service
	ContentQueue   *queue.ContentQueue
	Msgs           *msgstore.Store
	AuthorizedUser int64
	Debug          bool
}

func NewBot(cfg Config) (*Bot, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	bot.Debug = cfg.Debug

	return &Bot{
		service:        cfg.Service,
		bot:            bot,
		sender:         bot,
		contentQueue:   cfg.ContentQueue,
		msgs:           cfg.Msgs,
		authorizedUser: cfg.AuthorizedUser,
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Token == "" {
		return fmt.Errorf("token is empty")
	}
	if cfg.Service == nil {
		return fmt.Errorf("service is nil")
	}
	if cfg.ContentQueue == nil {
		return fmt.Errorf("contentQueue is nil")
	}
	if cfg.Msgs == nil {
		return fmt.Errorf("msgs is nil")
	}
	if cfg.AuthorizedUser == 0 {
		return fmt.Errorf("authorizedUser is empty")
	}
	return nil
}

func (b *Bot) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	b.contentQueue.Run(b.onContentReady)
	updates := b.bot.GetUpdatesChan(u)

	for update := range updates {
		if msg := update.Message; msg != nil {
			b.handleMsg(msg)
		}
	}
}

func (b *Bot) Stop() {
	b.bot.StopReceivingUpdates()
	b.contentQueue.Stop()
}

func (b *Bot) handlePanic(userID int64) {
	if rec := recover(); rec != nil {
		b.sendWithMsgId(userID, panicMsgId)
		log.Println("Panic: ", rec, "Stack: ", string(debug.Stack()))
	}
}

func (b *Bot) handleMsg(msg *tgbotapi.Message) {
	if msg.From == nil { // channel posts carry no sender
		return
	}
	defer b.handlePanic(msg.From.ID)

	// single-user bot: everyone else gets a fixed denial and nothing happens
	if msg.From.ID != b.authorizedUser {
		b.sendWithMsgId(msg.From.ID, accessDeniedMsgId)
		return
	}

	switch cmd := msg.Command(); cmd {
	case "start":
		b.start(msg)
	case "help":
		b.help(msg)
	case "cancel":
		b.cancel(msg)
	case "stats":
		b.stats(msg)
	default:
		if cmd != "" {
			log.Println("Unknown command: ", cmd)
			b.sendWithMsgId(msg.From.ID, errorUnknownCommandMsgId)
			return
		}
		b.handleText(msg)
	}

	// command for bot father
	/*
		/setcommands
		start - begin a new entry
		cancel - discard the current entry
		stats - submitted entry counts
		help - troubleshooting and support
	*/
}

func (b *Bot) start(msg *tgbotapi.Message) {
	// restarting mid-flow discards any half-typed entry
	b.contentQueue.Discard(msg.From.ID)
	if err := b.service.BeginEntry(msg.From.ID); err != nil {
		b.sendErrorWithMsgId(msg.From.ID, errorOnStartMsgId, err)
		return
	}
	b.sendWithKeyboard(msg.From.ID, b.getMsg(startMsgId))
}

func (b *Bot) help(msg *tgbotapi.Message) {
	b.sendWithMsgId(msg.From.ID, helpMsgId)
}

func (b *Bot) cancel(msg *tgbotapi.Message) {
	b.contentQueue.Discard(msg.From.ID)
	if _, err := b.service.Cancel(msg.From.ID); err != nil {
		b.sendErrorWithMsgId(msg.From.ID, errorOnCancelMsgId, err)
		return
	}
	b.sendRemovingKeyboard(msg.From.ID, b.getMsg(cancelledMsgId))
}

func (b *Bot) stats(msg *tgbotapi.Message) {
	counts, err := b.service.SubmittedCounts()
	if err != nil {
		b.sendErrorWithMsgId(msg.From.ID, errorOnStatsMsgId, err)
		return
	}
	text := b.getMsg(statsMsgId)
	var total int64
	for _, entryType := range []service.EntryType{service.TypeTask, service.TypeNote, service.TypeBookmark} {
		count := counts[string(entryType)]
		text += "\n" + entryType.Label() + ": " + strconv.FormatInt(count, 10)
		total += count
	}
	text += "\nTotal: " + strconv.FormatInt(total, 10)
	b.sendPlainText(msg.From.ID, text)
}

func (b *Bot) handleText(msg *tgbotapi.Message) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	sess, err := b.service.State(msg.From.ID)
	if err != nil {
		b.sendErrorWithMsgId(msg.From.ID, errorOnStartMsgId, err)
		return
	}
	switch sess.State {
	case storage.StateAwaitingType:
		b.selectType(msg.From.ID, text)
	case storage.StateAwaitingContent:
		// the reply keyboard stays on screen, so a label tap mid-flow
		// means "switch type", not content
		if _, ok := service.ParseEntryType(text); ok {
			b.contentQueue.Discard(msg.From.ID)
			b.selectType(msg.From.ID, text)
			return
		}
		b.contentQueue.Add(msg.From.ID, text)
	default:
		b.sendWithMsgId(msg.From.ID, idleNudgeMsgId)
	}
}

func (b *Bot) selectType(userID int64, label string) {
	entryType, err := b.service.SelectType(userID, label)
	if err != nil {
		if errors.Is(err, service.ErrUnknownEntryType) {
			b.sendWithKeyboard(userID, b.getMsg(errorUnknownTypeMsgId))
			return
		}
		b.sendErrorWithMsgId(userID, errorOnStartMsgId, err)
		return
	}
	b.sendText(userID, b.getMsgWithArgs(typeSelectedMsgId, map[string]string{
		"entry_type":       entryType.Label(),
		"entry_type_lower": strings.ToLower(entryType.Label()),
	}))
}

// onContentReady fires once the content queue decides the user finished
// typing. This is where the one outbound Well API call happens.
func (b *Bot) onContentReady(userID int64, content string) {
	defer b.handlePanic(userID)

	entryType, result, err := b.service.SubmitContent(context.Background(), userID, content)
	if err != nil {
		switch msgId := submitErrorMsgId(result, err); msgId {
		case errorEmptyContentMsgId, idleNudgeMsgId:
			b.sendWithMsgId(userID, msgId)
		default:
			b.sendErrorWithMsgId(userID, msgId, err)
		}
		return
	}

	msgId := submitOkMsgId
	if !result.OK() {
		msgId = submitRejectedMsgId
	}
	text := b.getMsgWithArgs(msgId, map[string]string{
		"entry_type":       entryType.Label(),
		"entry_type_lower": strings.ToLower(entryType.Label()),
		"status":           strconv.Itoa(result.StatusCode),
		"response":         truncateRunes(result.Body, maxRelayedResponseLength),
	})
	// API responses are arbitrary text, keep them out of HTML parsing
	b.sendRemovingKeyboardPlain(userID, text)
}

// submitErrorMsgId picks the reply for a failed SubmitContent call. A result
// that is OK despite the error means the Well API accepted the entry and only
// the stats write failed; telling the user the API was unreachable would
// invite a duplicate resubmit.
func submitErrorMsgId(result wellapi.PostResult, err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyContent):
		return errorEmptyContentMsgId
	case errors.Is(err, service.ErrNoContentExpected):
		return idleNudgeMsgId
	case result.OK():
		return errorOnCountMsgId
	default:
		return errorOnSubmitMsgId
	}
}

func (b *Bot) getMsg(id string) string {
	return b.getMsgWithArgs(id, nil)
}

func (b *Bot) getMsgWithArgs(id string, args map[string]string) string {
	var (
		text string
		err  error
	)
	if len(args) == 0 {
		text, err = b.msgs.Get(id)
	} else {
		text, err = b.msgs.GetWithArgs(id, args)
	}
	if err != nil {
		log.Printf("failed to get message text for id %s: %v", id, err)
		text = "Something went wrong"
	}
	return text
}

func (b *Bot) sendWithMsgId(userID int64, id string) {
	b.sendText(userID, b.getMsg(id))
}

func (b *Bot) sendErrorWithMsgId(userID int64, id string, err error) {
	log.Println(err.Error())
	b.sendPlainText(userID, b.getMsg(id)+": "+err.Error())
}

func (b *Bot) sendText(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) sendPlainText(userID int64, text string) {
	b.send(tgbotapi.NewMessage(userID, text))
}

func (b *Bot) sendWithKeyboard(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = typeKeyboard()
	b.send(msg)
}

func (b *Bot) sendRemovingKeyboard(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	b.send(msg)
}

func (b *Bot) sendRemovingKeyboardPlain(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	b.send(msg)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.sender.Send(msg); err != nil {
		log.Println("error while sending message: ", err)
	}
}

func typeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(service.EntryTypeLabels))
	for _, label := range service.EntryTypeLabels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	var i int
	for ; n > 0 && i < len(s); n-- {
		_, runeSize := utf8.DecodeRuneInString(s[i:])
		i += runeSize
	}
	return s[:i] + "…"
}
