package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/logger"
	"task_tracker/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI the bot writes through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DigestBot answers /today and /week and sends the morning digest.
type DigestBot struct {
	api         *tgbotapi.BotAPI
	out         sender
	users       service.UserStore
	occurrences *service.OccurrenceService
	wg          sync.WaitGroup
	log         *slog.Logger
}

func NewDigestBot(token string, users service.UserStore, occurrences *service.OccurrenceService) (*DigestBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	b := newDigestBot(api, users, occurrences)
	b.api = api
	b.log.Info("digest bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newDigestBot(out sender, users service.UserStore, occurrences *service.OccurrenceService) *DigestBot {
	return &DigestBot{
		out:         out,
		users:       users,
		occurrences: occurrences,
		log:         logger.With("component", "digest_bot"),
	}
}

// Run reads updates until ctx is done.
func (b *DigestBot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopping bot update loop")
			b.api.StopReceivingUpdates()
			b.wait(10 * time.Second)
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

func (b *DigestBot) wait(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *DigestBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply := tgbotapi.NewMessage(msg.Chat.ID, b.reply(ctx, msg))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.out.Send(reply); err != nil {
		b.log.Error("error sending message", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (b *DigestBot) reply(ctx context.Context, msg *tgbotapi.Message) string {
	switch msg.Command() {
	case "start", "help":
		return helpMessage()
	case "today":
		return b.listFor(ctx, msg.From, "📅 Сегодня", false, b.occurrences.Today)
	case "week":
		return b.listFor(ctx, msg.From, "🗓 Эта неделя", true, func(ctx context.Context, uid int64) ([]service.Occurrence, error) {
			return b.occurrences.Week(ctx, uid, time.Time{})
		})
	default:
		return "❌ Неизвестная команда. Используйте /help для списка команд."
	}
}

func (b *DigestBot) listFor(ctx context.Context, from *tgbotapi.User, title string, withDates bool,
	load func(context.Context, int64) ([]service.Occurrence, error)) string {
	if from == nil {
		return helpMessage()
	}
	u, err := b.users.GetByTgID(ctx, from.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return "Аккаунт не привязан. Откройте WebApp и войдите через Telegram."
	}
	if err != nil {
		b.log.Error("lookup user", "tg_id", from.ID, "error", err)
		return "❌ Ошибка, попробуйте позже"
	}

	items, err := load(ctx, u.ID)
	if err != nil {
		b.log.Error("load occurrences", "user_id", u.ID, "error", err)
		return "❌ Ошибка, попробуйте позже"
	}
	return formatOccurrences(title, items, withDates)
}

// SendDigest sends today's occurrences to every Telegram-linked user who has any.
func (b *DigestBot) SendDigest(ctx context.Context) error {
	users, err := b.users.ListLinked(ctx)
	if err != nil {
		return fmt.Errorf("list linked users: %w", err)
	}

	sent, failed := 0, 0
	for _, u := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		items, err := b.occurrences.Today(ctx, u.ID)
		if err != nil {
			failed++
			b.log.Error("digest occurrences", "user_id", u.ID, "error", err)
			continue
		}
		if len(items) == 0 {
			continue
		}
		msg := tgbotapi.NewMessage(*u.TgID, formatOccurrences("☀️ Доброе утро! План на сегодня", items, false))
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.out.Send(msg); err != nil {
			failed++
			b.log.Warn("digest send failed", "user_id", u.ID, "error", err)
			continue
		}
		sent++
		// лимит Telegram ~30 сообщений в секунду
		time.Sleep(35 * time.Millisecond)
	}
	b.log.Info("digest sent", "users", len(users), "sent", sent, "failed", failed)
	return nil
}
