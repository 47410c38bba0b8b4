package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tb "gopkg.in/telebot.v3"
)

const (
	callbackLearn   = "callback#learn"
	callbackUnlearn = "callback#unlearn"
)

type callbackData struct {
	Action string
	SongID int64
}

func (b *Bot) HandleCallback(c tb.Context) error {
	ctx, cancel := processCtx()
	defer cancel()

	data, err := parseCallbackData(c.Callback().Data)
	if err != nil {
		b.log.ErrorContext(ctx, "failed to parse callback data", "error", err)
		return c.RespondText(somethingWentWrongMsg)
	}

	var (
		learned bool
		text    string
	)
	switch data.Action {
	case callbackLearn:
		res, err := b.engine.MarkLearned(ctx, userID(c), data.SongID)
		if err != nil {
			return c.RespondText(replyFor(err))
		}
		learned, text = true, "learned! "+formatCompletion(res.Snapshot)
	case callbackUnlearn:
		snapshot, err := b.engine.UnmarkLearned(ctx, userID(c), data.SongID)
		if err != nil {
			return c.RespondText(replyFor(err))
		}
		learned, text = false, "removed from learned. "+formatCompletion(snapshot)
	default:
		b.log.WarnContext(ctx, "unknown callback action", "action", data.Action)
		return c.RespondText(somethingWentWrongMsg)
	}

	song, err := b.repo.FindSong(ctx, data.SongID)
	if err != nil {
		b.log.ErrorContext(ctx, "failed to find song", "error", err)
		return c.RespondText(text)
	}
	if err = c.Edit(formatSong(song, learned), songMarkup(song.ID, learned)); err != nil {
		b.log.DebugContext(ctx, "failed to edit song message", "error", err)
	}

	return c.RespondText(text)
}

func songMarkup(songID int64, learned bool) *tb.ReplyMarkup {
	button := tb.InlineButton{
		Text: "✅ Mark as learned",
		Data: fmt.Sprintf("%s:%d", callbackLearn, songID),
	}
	if learned {
		button = tb.InlineButton{
			Text: "↩️ Mark as not learned",
			Data: fmt.Sprintf("%s:%d", callbackUnlearn, songID),
		}
	}

	return &tb.ReplyMarkup{
		InlineKeyboard: [][]tb.InlineButton{{button}},
	}
}

func parseCallbackData(val string) (callbackData, error) {
	val = strings.TrimSpace(val)
	parts := strings.Split(val, ":")
	if len(parts) != 2 { //nolint:mnd // action and song id
		return callbackData{}, fmt.Errorf("invalid callback data: %s", val)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return callbackData{}, fmt.Errorf("invalid song id in callback data: %s", val)
	}

	return callbackData{
		Action: parts[0],
		SongID: id,
	}, nil
}
