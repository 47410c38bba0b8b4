package telegram

import (
	"errors"
	"log/slog"

	tb "gopkg.in/telebot.v3"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

const userIDKey = "user_id"

func Recover(log *slog.Logger) tb.MiddlewareFunc {
	return func(next tb.HandlerFunc) tb.HandlerFunc {
		return func(c tb.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic occurred", "panic", r)
				}
			}()
			return next(c)
		}
	}
}

func LogErrors(log *slog.Logger) tb.MiddlewareFunc {
	return func(next tb.HandlerFunc) tb.HandlerFunc {
		return func(c tb.Context) error {
			err := next(c)
			if err != nil {
				log.Error("failed to process message", "error", err)
			}
			return err
		}
	}
}

// LinkedChat lets through only chats linked to a user and stores the user id under userIDKey.
func LinkedChat(repo dal.UsersRepository, log *slog.Logger) tb.MiddlewareFunc {
	return func(next tb.HandlerFunc) tb.HandlerFunc {
		return func(c tb.Context) error {
			ctx, cancel := processCtx()
			defer cancel()

			user, err := repo.FindUserByChatID(ctx, c.Chat().ID)
			if err != nil {
				if errors.Is(err, dal.ErrNotFound) {
					if c.Callback() != nil {
						return c.RespondText(notLinkedMessage)
					}
					return c.Reply(notLinkedMessage)
				}
				log.ErrorContext(ctx, "failed to find user by chat", "error", err, "chat_id", c.Chat().ID)
				return c.Reply(somethingWentWrongMsg)
			}

			c.Set(userIDKey, user.ID)
			return next(c)
		}
	}
}

func userID(c tb.Context) int64 {
	id, ok := c.Get(userIDKey).(int64)
	if !ok {
		panic("user id is not set, handler must run behind LinkedChat")
	}
	return id
}
