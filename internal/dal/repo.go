package dal

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("concurrent update")
	ErrInUse         = errors.New("in use")
)

type (
	SongsFilter struct {
		Search     string
		Language   string
		Difficulty Difficulty
		Offset     uint64
		Limit      uint64
	}

	CatalogRepository interface {
		FindLanguages(ctx context.Context) ([]Language, error)
		FindLanguage(ctx context.Context, code string) (*Language, error)
		AddLanguage(ctx context.Context, lang *Language) error
		DeleteLanguage(ctx context.Context, id int64) error

		FindArtists(ctx context.Context) ([]Artist, error)
		SaveArtist(ctx context.Context, artist *Artist) error

		AllSongs(ctx context.Context) ([]Song, error)
		FindSong(ctx context.Context, id int64) (*Song, error)
		FindSongByTitle(ctx context.Context, title, artist string) (*Song, error)
		FindSongs(ctx context.Context, filter SongsFilter) ([]Song, int, error)
		AddSong(ctx context.Context, song *Song) error
		UpdateSong(ctx context.Context, song *Song) error
		DeleteSong(ctx context.Context, id int64) error

		GetTotals(ctx context.Context) (*Totals, error)
	}

	UsersRepository interface {
		AddUser(ctx context.Context, user *User) error
		FindUser(ctx context.Context, id int64) (*User, error)
		FindUserByEmail(ctx context.Context, email string) (*User, error)
		FindUserByChatID(ctx context.Context, chatID int64) (*User, error)
		FindUsers(ctx context.Context, offset, limit uint64) ([]User, int, error)
		FindLinkedUsers(ctx context.Context) ([]User, error)
		// UpdateUser writes the whole record in one statement guarded by User.Version.
		// It returns ErrConflict when the record was changed since it was read.
		UpdateUser(ctx context.Context, user *User) error
		DeleteUser(ctx context.Context, id int64) error
	}

	LinkCodesRepository interface {
		InsertLinkCode(ctx context.Context, userID int64, code string, expiresIn time.Duration) error
		// ConsumeLinkCode deletes a not expired code and returns the user it was issued for.
		ConsumeLinkCode(ctx context.Context, code string) (int64, error)
	}

	Repository interface {
		Transact(ctx context.Context, txFunc func(r Repository) error) error
		CatalogRepository
		UsersRepository
		LinkCodesRepository
	}
)
