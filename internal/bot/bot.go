// Package bot wires the Telegram transport to the domain services: command
// handlers, the photo sommelier, mention-gated Q&A and poll-answer routing.
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v3"

	"beerbot/pkg/attendance"
	"beerbot/pkg/broadcast"
	"beerbot/pkg/config"
	"beerbot/pkg/memory"
	"beerbot/pkg/schedule"
	"beerbot/pkg/sommelier"
)

const (
	startText = "Привет! Я бот пивной среды 🍻\n" +
		"Пришли фото пива – оценю как сомелье. Упомяни меня с вопросом – отвечу.\n" +
		"По средам присылаю открытку и открываю опрос, кто идёт."

	helpText = "Что я умею:\n" +
		"/postcard [пожелания] – открытка и опрос прямо сейчас\n" +
		"/barhopping on|off – тестовые анонсы каждые пару минут\n" +
		"Фото пива – отзыв сомелье\n" +
		"Вопрос с упоминанием меня – отвечу про пиво"

	emptyQuestionText = "Спроси меня что-нибудь про пиво 🍺"
)

// Bot owns the Telegram side of the application.
type Bot struct {
	tb        *tele.Bot
	cfg       *config.Config
	broadcast *broadcast.Service
	polls     *attendance.Store
	debug     *schedule.Registry
	sommelier *sommelier.Client
	memory    *memory.Manager

	ctx context.Context // parent for handler work and debug triggers
}

// NewTelebot connects to Telegram with a long poller. Handler errors are
// logged rather than crashing the poller.
func NewTelebot(token string) (*tele.Bot, error) {
	return tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			if c != nil && c.Chat() != nil {
				slog.Error("handler failed", "chat", c.Chat().ID, "error", err)
				return
			}
			slog.Error("handler failed", "error", err)
		},
	})
}

// New registers all handlers on the connected telebot instance.
func New(tb *tele.Bot, cfg *config.Config, svc *broadcast.Service, polls *attendance.Store,
	debug *schedule.Registry, som *sommelier.Client, mem *memory.Manager) *Bot {

	b := &Bot{
		tb:        tb,
		cfg:       cfg,
		broadcast: svc,
		polls:     polls,
		debug:     debug,
		sommelier: som,
		memory:    mem,
		ctx:       context.Background(),
	}

	tb.Handle("/start", b.handleStart)
	tb.Handle("/help", b.handleHelp)
	tb.Handle("/postcard", b.handlePostcard)
	tb.Handle("/barhopping", b.handleBarhopping)
	tb.Handle(tele.OnPhoto, b.handlePhoto)
	tb.Handle(tele.OnText, b.handleText)
	tb.Handle(tele.OnPollAnswer, b.handlePollAnswer)

	return b
}

// Start blocks until the context is cancelled, then stops the poller.
func (b *Bot) Start(ctx context.Context) {
	b.ctx = ctx
	go func() {
		<-ctx.Done()
		b.tb.Stop()
	}()

	slog.Info("telegram bot started", "username", b.tb.Me.Username)
	b.tb.Start()
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send(startText)
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(helpText)
}

// handlePostcard runs one on-demand broadcast in the current chat. Extra
// wishes after the command are fed to the prompt composer.
func (b *Bot) handlePostcard(c tele.Context) error {
	_ = b.tb.Notify(c.Chat(), tele.UploadingPhoto)

	return b.broadcast.Send(b.ctx, "postcard", c.Chat().ID, broadcast.Overrides{
		Extra:   c.Message().Payload,
		ReplyTo: c.Message().ID,
	})
}

// handleBarhopping toggles the per-chat debug interval trigger. A bare or
// unrecognized argument reports the current state.
func (b *Bot) handleBarhopping(c tele.Context) error {
	chatID := c.Chat().ID

	on, ok := parseToggle(c.Message().Payload)
	if !ok {
		if b.debug.Enabled(chatID) {
			return c.Send("Тестовые анонсы включены. /barhopping off – выключить.")
		}
		return c.Send("Тестовые анонсы выключены. /barhopping on – включить.")
	}

	if !on {
		if b.debug.Disable(chatID) {
			return c.Send("Тестовые анонсы выключены.")
		}
		return c.Send("Тестовые анонсы и так выключены.")
	}

	ov := b.barhoppingOverrides()
	b.debug.Enable(b.ctx, chatID, func(ctx context.Context) {
		if err := b.broadcast.Send(ctx, "barhopping-debug", chatID, ov); err != nil {
			slog.Error("debug broadcast failed", "chat", chatID, "error", err)
		}
	})
	return c.Send("Тестовые анонсы включены. /barhopping off – выключить.")
}

// handlePhoto reviews beer photos. Photos without beer are left alone so the
// bot does not comment on every picture in the chat.
func (b *Bot) handlePhoto(c tele.Context) error {
	msg := c.Message()
	if msg.Photo == nil {
		return nil
	}

	image, err := b.downloadPhoto(msg.Photo)
	if err != nil {
		return fmt.Errorf("failed to download photo: %w", err)
	}

	isBeer, err := b.sommelier.IsBeerPhoto(b.ctx, image, msg.Caption)
	if err != nil {
		return fmt.Errorf("failed to classify photo: %w", err)
	}
	if !isBeer {
		slog.Debug("photo without beer ignored", "chat", msg.Chat.ID)
		return nil
	}

	_ = b.tb.Notify(c.Chat(), tele.Typing)
	review, err := b.sommelier.ReviewBeer(b.ctx, image, msg.Caption)
	if err != nil {
		return fmt.Errorf("failed to review photo: %w", err)
	}
	return c.Reply(review)
}

// handleText answers beer questions. In groups the bot only reacts when it
// is mentioned or when the message replies to one of its own.
func (b *Bot) handleText(c tele.Context) error {
	msg := c.Message()
	if isCommand(msg.Text) {
		return nil
	}
	question, mentioned := stripMention(msg.Text, b.tb.Me.Username)

	addressed := msg.Private() || mentioned || b.isReplyToMe(msg)
	if !addressed {
		return nil
	}
	if question == "" {
		return c.Reply(emptyQuestionText)
	}

	chatID := msg.Chat.ID
	_ = b.tb.Notify(c.Chat(), tele.Typing)

	answer, err := b.sommelier.AnswerQuestion(b.ctx, question, b.memory.History(chatID))
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	b.memory.Add(chatID, "user", question)
	b.memory.Add(chatID, "assistant", answer)
	return c.Reply(answer)
}

func (b *Bot) handlePollAnswer(c tele.Context) error {
	pa := c.PollAnswer()
	if pa == nil || pa.Sender == nil {
		return nil
	}
	b.polls.RecordVote(b.ctx, pa.PollID, pa.Sender.ID, pa.Options)
	return nil
}

func (b *Bot) isReplyToMe(msg *tele.Message) bool {
	return msg.ReplyTo != nil && msg.ReplyTo.Sender != nil && msg.ReplyTo.Sender.ID == b.tb.Me.ID
}

func (b *Bot) downloadPhoto(photo *tele.Photo) ([]byte, error) {
	rc, err := b.tb.File(&photo.File)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (b *Bot) barhoppingOverrides() broadcast.Overrides {
	t := b.cfg.Triggers.Barhopping
	return broadcast.Overrides{
		Prompt:       t.Prompt,
		Caption:      t.Caption,
		PollQuestion: t.PollQuestion,
	}
}
