package dal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type (
	Difficulty string

	Language struct {
		ID          int64
		Name        string
		Code        string
		Difficulty  Difficulty
		Description string
	}

	Artist struct {
		ID       int64
		Name     string
		Country  string
		Language string
		Genres   Strings
		Bio      string
	}

	Song struct {
		ID                int64
		Title             string
		Artist            string
		Language          string
		LyricsOriginal    string
		LyricsTranslation string
		Difficulty        Difficulty
		Vocabulary        Strings
		Duration          int
	}

	User struct {
		ID              int64
		Email           string
		PasswordHash    string
		LearnedSongs    SongIDs
		CurrentLanguage string
		IsAdmin         bool
		TelegramChatID  int64 // 0 when the user has no linked chat
		Version         int
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	Totals struct {
		Users     int
		Songs     int
		Languages int
		Artists   int
	}

	// Strings is a list of strings stored as a JSON array.
	Strings []string

	// SongIDs is an insertion-ordered set of song ids.
	// It is stored as a JSON array of integers, the only encoding accepted on read.
	SongIDs []int64
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

func (s SongIDs) Contains(id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id unless it is already present. It reports whether the set changed.
func (s *SongIDs) Add(id int64) bool {
	if s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id keeping the order of the remaining ids. It reports whether the set changed.
func (s *SongIDs) Remove(id int64) bool {
	for i, v := range *s {
		if v == id {
			res := make(SongIDs, 0, len(*s)-1)
			res = append(res, (*s)[:i]...)
			*s = append(res, (*s)[i+1:]...)
			return true
		}
	}
	return false
}

func (s SongIDs) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(s))
	if err != nil {
		return nil, fmt.Errorf("marshal song ids: %w", err)
	}
	return string(b), nil
}

func (s *SongIDs) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}

	var ids []int64
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &ids); err != nil {
			return fmt.Errorf("unmarshal song ids: %w", err)
		}
	}

	res := make(SongIDs, 0, len(ids))
	for _, id := range ids {
		res.Add(id)
	}
	*s = res
	return nil
}

func (s Strings) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("marshal strings: %w", err)
	}
	return string(b), nil
}

func (s *Strings) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}

	res := Strings{}
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("unmarshal strings: %w", err)
		}
	}
	*s = res
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", src)
	}
}
