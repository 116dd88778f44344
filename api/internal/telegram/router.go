// Package telegram adapts Telegram updates to wizard events and wizard
// replies back to Telegram messages. It owns session lookup, report
// archiving on resolution and nothing else: all conversational logic
// lives in the dialog package.
package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nonemergency-bot/api/internal/dialog"
	"nonemergency-bot/api/internal/store"
	"nonemergency-bot/pkg/metrics"
)

const (
	callbackYes = "confirm_yes"
	callbackNo  = "confirm_no"
)

type Router struct {
	Bot      *tgbotapi.BotAPI
	Sessions *dialog.Sessions
	Wizard   *dialog.Wizard
	Reports  *store.ReportRepo
	Log      *slog.Logger
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	if msg.IsCommand() {
		metrics.UpdatesReceived.WithLabelValues("command").Inc()
		r.handleCommand(cid, msg.Command())
		return
	}

	if urls := r.attachmentURLs(msg); len(urls) > 0 {
		metrics.UpdatesReceived.WithLabelValues("photo").Inc()
		r.dispatch(cid, dialog.Inbound{Text: msg.Caption, AttachmentURLs: urls})
		return
	}

	metrics.UpdatesReceived.WithLabelValues("text").Inc()
	r.dispatch(cid, dialog.Inbound{Text: msg.Text})
}

func (r *Router) handleCommand(cid int64, command string) {
	switch command {
	case "start":
		r.Sessions.Reset(cid)
		r.dispatch(cid, dialog.Inbound{})
	case "health":
		r.send(cid, "OK")
	default:
		r.send(cid, "Send /start to begin a report.")
	}
}

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	metrics.UpdatesReceived.WithLabelValues("callback").Inc()
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID

	// remove the keyboard so the question cannot be answered twice
	edit := tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	_, _ = r.Bot.Send(edit)

	switch cb.Data {
	case callbackYes:
		r.dispatch(cid, dialog.Inbound{Text: "yes"})
	case callbackNo:
		r.dispatch(cid, dialog.Inbound{Text: "no"})
	}
}

// dispatch runs one conversational turn: load the session, hand the
// event to the wizard, deliver the replies, archive on resolution.
func (r *Router) dispatch(cid int64, in dialog.Inbound) {
	ctx := context.Background()
	sess := r.Sessions.Get(cid)
	state := sess.State

	started := time.Now()
	outs := r.Wizard.Handle(ctx, sess, in)
	metrics.TurnDuration.WithLabelValues(state.String()).Observe(time.Since(started).Seconds())

	for _, out := range outs {
		r.deliver(cid, out)
	}

	if sess.State == dialog.StateResolved {
		r.archive(ctx, sess)
		r.Sessions.Reset(cid)
	}
	metrics.ActiveSessions.Set(float64(len(r.Sessions.ActiveChatIDs())))
}

func (r *Router) archive(ctx context.Context, sess *dialog.Session) {
	metrics.ReportsResolved.WithLabelValues(string(sess.Outcome)).Inc()
	if r.Reports == nil {
		return
	}
	if err := r.Reports.Insert(ctx, store.FromSession(sess)); err != nil {
		r.Log.Error("report archive failed", "chat_id", sess.ChatID,
			"correlation_id", sess.CorrelationID, "err", err)
		metrics.APIFailures.WithLabelValues("store").Inc()
	}
}

func (r *Router) deliver(cid int64, out dialog.Outbound) {
	switch {
	case out.Card != nil:
		r.sendCard(cid, *out.Card)
	case out.Confirm:
		msg := tgbotapi.NewMessage(cid, out.Text)
		msg.ReplyMarkup = makeConfirmKeyboard()
		if _, err := r.Bot.Send(msg); err != nil {
			r.Log.Error("send confirm failed", "chat_id", cid, "err", err)
			metrics.APIFailures.WithLabelValues("telegram").Inc()
			return
		}
		metrics.RepliesSent.WithLabelValues("confirm").Inc()
	default:
		r.send(cid, out.Text)
	}
}

func (r *Router) send(cid int64, text string) {
	if len(text) > 3900 {
		text = text[:3900] + "…"
	}
	msg := tgbotapi.NewMessage(cid, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Error("send failed", "chat_id", cid, "err", err)
		metrics.APIFailures.WithLabelValues("telegram").Inc()
		return
	}
	metrics.RepliesSent.WithLabelValues("text").Inc()
}

func (r *Router) sendCard(cid int64, c dialog.Card) {
	photo := tgbotapi.NewPhoto(cid, tgbotapi.FileURL(c.ImageURL))
	photo.Caption = c.Title + "\n" + c.Text
	if _, err := r.Bot.Send(photo); err != nil {
		// card is decorative; fall back to plain text
		r.Log.Warn("send card failed", "chat_id", cid, "err", err)
		r.send(cid, c.Title+"\n"+c.Text)
		return
	}
	metrics.RepliesSent.WithLabelValues("card").Inc()
}
