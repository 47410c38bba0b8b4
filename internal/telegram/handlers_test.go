package telegram

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/telebot.v3"

	"github.com/Roma7-7-7/linguatune/internal/dal"
	sqlrepo "github.com/Roma7-7-7/linguatune/internal/dal/sql"
	"github.com/Roma7-7-7/linguatune/internal/progress"
)

// fakeContext implements the parts of tb.Context the handlers use. Other methods panic.
type fakeContext struct {
	tb.Context

	chat     *tb.Chat
	message  *tb.Message
	callback *tb.Callback
	store    map[string]any

	replies   []string
	markups   []*tb.ReplyMarkup
	edits     []string
	responses []string
}

func newMessageContext(chatID int64, payload string) *fakeContext {
	chat := &tb.Chat{ID: chatID}
	return &fakeContext{
		chat:    chat,
		message: &tb.Message{Chat: chat, Payload: payload},
		store:   map[string]any{},
	}
}

func newCallbackContext(chatID int64, data string) *fakeContext {
	chat := &tb.Chat{ID: chatID}
	msg := &tb.Message{Chat: chat}
	return &fakeContext{
		chat:     chat,
		message:  msg,
		callback: &tb.Callback{Message: msg, Data: data},
		store:    map[string]any{},
	}
}

func (c *fakeContext) Chat() *tb.Chat         { return c.chat }
func (c *fakeContext) Message() *tb.Message   { return c.message }
func (c *fakeContext) Callback() *tb.Callback { return c.callback }
func (c *fakeContext) Get(key string) any     { return c.store[key] }
func (c *fakeContext) Set(key string, val any) {
	c.store[key] = val
}

func (c *fakeContext) Reply(what any, opts ...any) error {
	c.replies = append(c.replies, fmt.Sprint(what))
	for _, opt := range opts {
		if markup, ok := opt.(*tb.ReplyMarkup); ok {
			c.markups = append(c.markups, markup)
		}
	}
	return nil
}

func (c *fakeContext) Edit(what any, _ ...any) error {
	c.edits = append(c.edits, fmt.Sprint(what))
	return nil
}

func (c *fakeContext) RespondText(text string) error {
	c.responses = append(c.responses, text)
	return nil
}

func (c *fakeContext) lastReply(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.replies)
	return c.replies[len(c.replies)-1]
}

type botFixture struct {
	bot  *Bot
	db   *sql.DB
	repo *sqlrepo.Repository
	song *dal.Song
}

func setupBot(t *testing.T) *botFixture {
	t.Helper()
	ctx := t.Context()

	db, err := sqlrepo.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := sqlrepo.NewRepository(ctx, db, log)

	song := &dal.Song{
		Title:      "Yesterday",
		Artist:     "The Beatles",
		Language:   "en",
		Difficulty: dal.DifficultyBeginner,
		Vocabulary: dal.Strings{"yesterday", "troubles"},
		Duration:   125,
	}
	require.NoError(t, repo.AddSong(ctx, song))

	return &botFixture{
		bot:  &Bot{repo: repo, engine: progress.NewEngine(repo, log), log: log},
		db:   db,
		repo: repo,
		song: song,
	}
}

func (f *botFixture) addUser(t *testing.T, email string, chatID int64) *dal.User {
	t.Helper()
	user := &dal.User{Email: email, PasswordHash: "hash", TelegramChatID: chatID}
	require.NoError(t, f.repo.AddUser(t.Context(), user))
	return user
}

func (f *botFixture) linked(handler tb.HandlerFunc) tb.HandlerFunc {
	return LinkedChat(f.repo, f.bot.log)(handler)
}

func TestHandleLink_MovesChatToNewUser(t *testing.T) {
	ctx := t.Context()
	f := setupBot(t)

	ann := f.addUser(t, "ann@example.com", 42)
	bob := f.addUser(t, "bob@example.com", 0)
	require.NoError(t, f.repo.InsertLinkCode(ctx, bob.ID, "abc12345", time.Minute))

	c := newMessageContext(42, " ABC12345 ")
	require.NoError(t, f.bot.HandleLink(c))
	assert.Equal(t, "chat linked. Try /progress or /songs", c.lastReply(t))

	owner, err := f.repo.FindUserByChatID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, owner.ID)

	previous, err := f.repo.FindUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Zero(t, previous.TelegramChatID)

	_, err = f.repo.ConsumeLinkCode(ctx, "abc12345")
	assert.ErrorIs(t, err, dal.ErrNotFound)
}

func TestHandleLink_SameUserRelinks(t *testing.T) {
	ctx := t.Context()
	f := setupBot(t)

	ann := f.addUser(t, "ann@example.com", 42)
	require.NoError(t, f.repo.InsertLinkCode(ctx, ann.ID, "abc12345", time.Minute))

	c := newMessageContext(42, "abc12345")
	require.NoError(t, f.bot.HandleLink(c))
	assert.Equal(t, "chat linked. Try /progress or /songs", c.lastReply(t))

	owner, err := f.repo.FindUserByChatID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, owner.ID)
}

func TestHandleLink_Rejected(t *testing.T) {
	ctx := t.Context()
	f := setupBot(t)
	ann := f.addUser(t, "ann@example.com", 0)

	c := newMessageContext(42, "")
	require.NoError(t, f.bot.HandleLink(c))
	assert.True(t, strings.HasPrefix(c.lastReply(t), "usage: /link"))

	_, err := f.db.ExecContext(ctx, "INSERT INTO link_codes (code, user_id, expires_at) VALUES (?, ?, ?)",
		"expired1", ann.ID, time.Now().Add(-time.Minute).Unix())
	require.NoError(t, err)

	c = newMessageContext(42, "expired1")
	require.NoError(t, f.bot.HandleLink(c))
	assert.Equal(t, "the code is invalid or expired", c.lastReply(t))

	c = newMessageContext(42, "unknown1")
	require.NoError(t, f.bot.HandleLink(c))
	assert.Equal(t, "the code is invalid or expired", c.lastReply(t))

	_, err = f.repo.FindUserByChatID(ctx, 42)
	assert.ErrorIs(t, err, dal.ErrNotFound)
}

func TestHandleLink_KeepsCodeWhenLinkFails(t *testing.T) {
	ctx := t.Context()
	f := setupBot(t)
	ann := f.addUser(t, "ann@example.com", 0)
	require.NoError(t, f.repo.InsertLinkCode(ctx, ann.ID, "abc12345", time.Minute))

	// the code outlives its user, so the link fails after the code is consumed
	_, err := f.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", ann.ID)
	require.NoError(t, err)

	c := newMessageContext(42, "abc12345")
	require.NoError(t, f.bot.HandleLink(c))
	assert.Equal(t, "the code is invalid or expired", c.lastReply(t))

	userID, err := f.repo.ConsumeLinkCode(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, userID)
}

func TestLinkedChat(t *testing.T) {
	f := setupBot(t)
	ann := f.addUser(t, "ann@example.com", 42)

	var gotUserID int64
	next := func(c tb.Context) error {
		gotUserID = userID(c)
		return nil
	}

	c := newMessageContext(7, "")
	require.NoError(t, f.linked(next)(c))
	assert.Zero(t, gotUserID)
	assert.Equal(t, []string{notLinkedMessage}, c.replies)

	c = newCallbackContext(7, "callback#learn:1")
	require.NoError(t, f.linked(next)(c))
	assert.Zero(t, gotUserID)
	assert.Empty(t, c.replies)
	assert.Equal(t, []string{notLinkedMessage}, c.responses)

	c = newMessageContext(42, "")
	require.NoError(t, f.linked(next)(c))
	assert.Equal(t, ann.ID, gotUserID)
	assert.Empty(t, c.replies)
}

func TestHandleCallback_LearnAndUnlearn(t *testing.T) {
	ctx := t.Context()
	f := setupBot(t)
	ann := f.addUser(t, "ann@example.com", 42)
	handler := f.linked(f.bot.HandleCallback)

	c := newCallbackContext(42, fmt.Sprintf("%s:%d", callbackLearn, f.song.ID))
	require.NoError(t, handler(c))
	assert.Equal(t, []string{"learned! Progress: 100.0% (1 of 1 songs)"}, c.responses)
	require.Len(t, c.edits, 1)
	assert.Contains(t, c.edits[0], "learned ✅")

	user, err := f.repo.FindUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, dal.SongIDs{f.song.ID}, user.LearnedSongs)

	c = newCallbackContext(42, fmt.Sprintf("%s:%d", callbackUnlearn, f.song.ID))
	require.NoError(t, handler(c))
	assert.Equal(t, []string{"removed from learned. Progress: 0.0% (0 of 1 songs)"}, c.responses)
	require.Len(t, c.edits, 1)
	assert.NotContains(t, c.edits[0], "learned ✅")

	user, err = f.repo.FindUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, user.LearnedSongs)

	c = newCallbackContext(42, fmt.Sprintf("%s:%d", callbackUnlearn, f.song.ID))
	require.NoError(t, handler(c))
	assert.Equal(t, []string{"this song is not learned"}, c.responses)
	assert.Empty(t, c.edits)

	c = newCallbackContext(42, "callback#learn:999")
	require.NoError(t, handler(c))
	assert.Equal(t, []string{"song not found"}, c.responses)

	c = newCallbackContext(42, "garbage")
	require.NoError(t, handler(c))
	assert.Equal(t, []string{somethingWentWrongMsg}, c.responses)
}

func TestCommands(t *testing.T) {
	ctx := t.Context()
	f := setupBot(t)
	ann := f.addUser(t, "ann@example.com", 42)
	id := fmt.Sprint(f.song.ID)

	c := newMessageContext(42, id)
	require.NoError(t, f.linked(f.bot.HandleSong)(c))
	assert.Contains(t, c.lastReply(t), "Yesterday · The Beatles")
	require.Len(t, c.markups, 1)
	assert.Equal(t, fmt.Sprintf("%s:%d", callbackLearn, f.song.ID), c.markups[0].InlineKeyboard[0][0].Data)

	c = newMessageContext(42, "abc")
	require.NoError(t, f.linked(f.bot.HandleLearn)(c))
	assert.Equal(t, "usage: /learn <id>", c.lastReply(t))

	c = newMessageContext(42, id)
	require.NoError(t, f.linked(f.bot.HandleLearn)(c))
	assert.Equal(t, "learned! Progress: 100.0% (1 of 1 songs)", c.lastReply(t))

	c = newMessageContext(42, id)
	require.NoError(t, f.linked(f.bot.HandleLearn)(c))
	assert.Equal(t, "already learned. Progress: 100.0% (1 of 1 songs)", c.lastReply(t))

	c = newMessageContext(42, "")
	require.NoError(t, f.linked(f.bot.HandleProgress)(c))
	assert.Contains(t, c.lastReply(t), "100.0%")

	c = newMessageContext(42, "en")
	require.NoError(t, f.linked(f.bot.HandleSongs)(c))
	assert.Contains(t, c.lastReply(t), "Yesterday")

	c = newMessageContext(42, id)
	require.NoError(t, f.linked(f.bot.HandleUnlearn)(c))
	assert.Equal(t, "removed from learned. Progress: 0.0% (0 of 1 songs)", c.lastReply(t))

	c = newMessageContext(42, "")
	require.NoError(t, f.linked(f.bot.HandleUnlink)(c))
	assert.Equal(t, "chat unlinked", c.lastReply(t))

	user, err := f.repo.FindUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Zero(t, user.TelegramChatID)

	c = newMessageContext(42, "")
	require.NoError(t, f.linked(f.bot.HandleProgress)(c))
	assert.Equal(t, notLinkedMessage, c.lastReply(t))
}
