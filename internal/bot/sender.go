package bot

import (
	"bytes"
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"beerbot/pkg/attendance"
)

// Sender adapts a telebot instance to the narrow delivery interfaces the
// domain packages depend on. Telebot calls are synchronous and carry their
// own timeout, so the context is accepted for interface symmetry only.
type Sender struct {
	bot *tele.Bot
}

func NewSender(b *tele.Bot) *Sender {
	return &Sender{bot: b}
}

// SendPhoto delivers an image with a caption, optionally as a reply.
func (s *Sender) SendPhoto(_ context.Context, chatID int64, image []byte, caption string, replyTo int) error {
	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(image)),
		Caption: caption,
	}
	_, err := s.bot.Send(tele.ChatID(chatID), photo, sendOptions(replyTo))
	if err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

// SendMessage delivers a plain text message, optionally as a reply.
func (s *Sender) SendMessage(_ context.Context, chatID int64, text string, replyTo int) error {
	_, err := s.bot.Send(tele.ChatID(chatID), text, sendOptions(replyTo))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendPoll posts a non-anonymous regular poll and returns its platform ids.
func (s *Sender) SendPoll(_ context.Context, chatID int64, question string, options []string) (attendance.Handle, error) {
	poll := &tele.Poll{
		Type:      tele.PollRegular,
		Question:  question,
		Anonymous: false,
	}
	poll.AddOptions(options...)

	msg, err := s.bot.Send(tele.ChatID(chatID), poll)
	if err != nil {
		return attendance.Handle{}, fmt.Errorf("failed to send poll: %w", err)
	}
	if msg.Poll == nil {
		return attendance.Handle{}, fmt.Errorf("poll message carries no poll payload")
	}
	return attendance.Handle{PollID: msg.Poll.ID, MessageID: msg.ID}, nil
}

func sendOptions(replyTo int) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if replyTo != 0 {
		opts.ReplyTo = &tele.Message{ID: replyTo}
	}
	return opts
}

// Notifier narrows Sender for quorum notifications, which are never replies.
type Notifier struct {
	sender *Sender
}

func NewNotifier(s *Sender) *Notifier {
	return &Notifier{sender: s}
}

func (n *Notifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	return n.sender.SendMessage(ctx, chatID, text, 0)
}
