package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	tb "gopkg.in/telebot.v3"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	"github.com/Roma7-7-7/linguatune/internal/progress"
)

const (
	commandStart    = "/start"
	commandLink     = "/link"
	commandUnlink   = "/unlink"
	commandProgress = "/progress"
	commandSongs    = "/songs"
	commandSong     = "/song"
	commandLearn    = "/learn"
	commandUnlearn  = "/unlearn"

	somethingWentWrongMsg = "something went wrong"

	processTimeout = 10 * time.Second
)

type Bot struct {
	bot    *tb.Bot
	repo   dal.Repository
	engine *progress.Engine

	middlewares []tb.MiddlewareFunc

	log *slog.Logger
}

func NewBot(token string, repo dal.Repository, engine *progress.Engine, log *slog.Logger, middlewares ...tb.MiddlewareFunc) (*Bot, error) {
	b, err := tb.NewBot(tb.Settings{
		Token: token,
		Poller: &tb.LongPoller{
			Timeout: 1 * time.Minute,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &Bot{
		bot:         b,
		repo:        repo,
		engine:      engine,
		middlewares: middlewares,
		log:         log,
	}, nil
}

// Start registers handlers and polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	linked := append(slices.Clone(b.middlewares), LinkedChat(b.repo, b.log))

	b.bot.Handle(commandStart, b.HandleStart, b.middlewares...)
	b.bot.Handle(commandLink, b.HandleLink, b.middlewares...)
	b.bot.Handle(commandUnlink, b.HandleUnlink, linked...)
	b.bot.Handle(commandProgress, b.HandleProgress, linked...)
	b.bot.Handle(commandSongs, b.HandleSongs, linked...)
	b.bot.Handle(commandSong, b.HandleSong, linked...)
	b.bot.Handle(commandLearn, b.HandleLearn, linked...)
	b.bot.Handle(commandUnlearn, b.HandleUnlearn, linked...)
	b.bot.Handle(tb.OnCallback, b.HandleCallback, linked...)

	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()

	b.bot.Start()
}

func (b *Bot) HandleStart(c tb.Context) error {
	return c.Reply(helpMessage)
}

func (b *Bot) HandleLink(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	code := strings.ToLower(strings.TrimSpace(c.Message().Payload))
	if code == "" {
		return c.Reply("usage: /link <code>. Get the code on your profile page.")
	}

	chatID := c.Chat().ID
	err := b.repo.Transact(ctx, func(r dal.Repository) error {
		userID, err := r.ConsumeLinkCode(ctx, code)
		if err != nil {
			return err
		}

		// a chat belongs to one user at a time
		previous, err := r.FindUserByChatID(ctx, chatID)
		switch {
		case err == nil && previous.ID != userID:
			previous.TelegramChatID = 0
			if err = r.UpdateUser(ctx, previous); err != nil {
				return fmt.Errorf("unlink previous user: %w", err)
			}
		case err != nil && !errors.Is(err, dal.ErrNotFound):
			return fmt.Errorf("find user by chat: %w", err)
		}

		user, err := r.FindUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		user.TelegramChatID = chatID
		return r.UpdateUser(ctx, user)
	})
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.Reply("the code is invalid or expired")
		}
		b.log.ErrorContext(ctx, "failed to link chat", "error", err, "chat_id", chatID)
		return c.Reply(somethingWentWrongMsg)
	}

	b.log.InfoContext(ctx, "chat linked", "chat_id", chatID)
	return c.Reply("chat linked. Try /progress or /songs")
}

func (b *Bot) HandleUnlink(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	err := b.repo.Transact(ctx, func(r dal.Repository) error {
		user, err := r.FindUser(ctx, userID(c))
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		user.TelegramChatID = 0
		return r.UpdateUser(ctx, user)
	})
	if err != nil {
		b.log.ErrorContext(ctx, "failed to unlink chat", "error", err)
		return c.Reply(somethingWentWrongMsg)
	}

	return c.Reply("chat unlinked")
}

func (b *Bot) HandleProgress(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	snapshot, err := b.engine.Snapshot(ctx, userID(c))
	if err != nil {
		b.log.ErrorContext(ctx, "failed to get progress", "error", err)
		return c.Reply(replyFor(err))
	}

	msg, err := formatProgress(snapshot)
	if err != nil {
		b.log.ErrorContext(ctx, "failed to render progress", "error", err)
		return c.Reply(somethingWentWrongMsg)
	}
	return c.Reply(msg)
}

func (b *Bot) HandleSongs(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	user, err := b.repo.FindUser(ctx, userID(c))
	if err != nil {
		b.log.ErrorContext(ctx, "failed to find user", "error", err)
		return c.Reply(somethingWentWrongMsg)
	}

	language := strings.TrimSpace(c.Message().Payload)
	if language == "" {
		language = user.CurrentLanguage
	}

	var songs []dal.Song
	if language == "" {
		songs, err = b.repo.AllSongs(ctx)
	} else {
		songs, err = b.engine.SongsByLanguage(ctx, language)
	}
	if err != nil {
		b.log.ErrorContext(ctx, "failed to get songs", "error", err)
		return c.Reply(somethingWentWrongMsg)
	}

	return c.Reply(formatSongs(songs, user.LearnedSongs, language))
}

func (b *Bot) HandleSong(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	id, ok := songIDArg(c.Message().Payload)
	if !ok {
		return c.Reply("usage: /song <id>")
	}

	song, err := b.repo.FindSong(ctx, id)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.Reply("song not found")
		}
		b.log.ErrorContext(ctx, "failed to find song", "error", err)
		return c.Reply(somethingWentWrongMsg)
	}

	user, err := b.repo.FindUser(ctx, userID(c))
	if err != nil {
		b.log.ErrorContext(ctx, "failed to find user", "error", err)
		return c.Reply(somethingWentWrongMsg)
	}

	learned := user.LearnedSongs.Contains(song.ID)
	return c.Reply(formatSong(song, learned), songMarkup(song.ID, learned))
}

func (b *Bot) HandleLearn(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	id, ok := songIDArg(c.Message().Payload)
	if !ok {
		return c.Reply("usage: /learn <id>")
	}

	res, err := b.engine.MarkLearned(ctx, userID(c), id)
	if err != nil {
		b.log.DebugContext(ctx, "failed to mark learned", "error", err)
		return c.Reply(replyFor(err))
	}
	if res.AlreadyLearned {
		return c.Reply("already learned. " + formatCompletion(res.Snapshot))
	}
	return c.Reply("learned! " + formatCompletion(res.Snapshot))
}

func (b *Bot) HandleUnlearn(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	id, ok := songIDArg(c.Message().Payload)
	if !ok {
		return c.Reply("usage: /unlearn <id>")
	}

	snapshot, err := b.engine.UnmarkLearned(ctx, userID(c), id)
	if err != nil {
		b.log.DebugContext(ctx, "failed to unmark learned", "error", err)
		return c.Reply(replyFor(err))
	}
	return c.Reply("removed from learned. " + formatCompletion(snapshot))
}

// SendDigest sends the daily progress summary to the user's linked chat.
func (b *Bot) SendDigest(ctx context.Context, user dal.User) error {
	snapshot, err := b.engine.Snapshot(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("get snapshot: %w", err)
	}

	msg, err := formatDigest(snapshot)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	if _, err = b.bot.Send(tb.ChatID(user.TelegramChatID), msg, tb.Silent); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}

func replyFor(err error) string {
	switch {
	case errors.Is(err, progress.ErrSongNotFound):
		return "song not found"
	case errors.Is(err, progress.ErrUserNotFound):
		return "your account was not found, link the chat again"
	case errors.Is(err, progress.ErrNotLearned):
		return "this song is not learned"
	case errors.Is(err, dal.ErrConflict):
		return "progress was changed at the same time, try again"
	default:
		return somethingWentWrongMsg
	}
}

func songIDArg(payload string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func processCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), processTimeout)
}
