package data

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

const fieldsCount = 6

type (
	// Line is one song read from an import source.
	Line struct {
		Title      string
		Artist     string
		Language   string
		Difficulty dal.Difficulty
		Duration   int
		Vocabulary []string
	}

	ParsingError struct {
		InvalidLines []int
	}
)

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing error: invalidLines=%v", e.InvalidLines)
}

// Parse reads lines formatted as
//
//	title | artist | language | difficulty | duration | word1, word2
//
// and sends them to out. Empty lines and lines starting with # are skipped.
// Invalid lines are reported with a *ParsingError once the input is exhausted.
func Parse(ctx context.Context, in io.ReadCloser, out chan<- Line) error {
	defer close(out)
	defer in.Close()

	scanner := bufio.NewScanner(in)
	invalidLines := make([]int, 0, 10) //nolint:mnd // 10 is the expected capacity
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		line, err := parseFields(strings.Split(text, "|"))
		if err != nil {
			invalidLines = append(invalidLines, lineNum)
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case out <- line: // continue
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan file: %w", err)
	}
	if len(invalidLines) > 0 {
		return &ParsingError{InvalidLines: invalidLines}
	}

	return nil
}

func parseFields(fields []string) (Line, error) {
	if len(fields) < fieldsCount-1 || len(fields) > fieldsCount {
		return Line{}, fmt.Errorf("expected %d fields, got %d", fieldsCount, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	line := Line{
		Title:      fields[0],
		Artist:     fields[1],
		Language:   strings.ToLower(fields[2]),
		Difficulty: dal.Difficulty(strings.ToLower(fields[3])),
		Vocabulary: []string{},
	}
	if line.Title == "" || line.Artist == "" || line.Language == "" {
		return Line{}, errors.New("title, artist and language are required")
	}
	if !line.Difficulty.Valid() {
		return Line{}, fmt.Errorf("unknown difficulty %q", fields[3])
	}

	duration, err := parseDuration(fields[4])
	if err != nil {
		return Line{}, err
	}
	line.Duration = duration

	if len(fields) == fieldsCount {
		line.Vocabulary = parseVocabulary(fields[5])
	}

	return line, nil
}

// parseDuration accepts seconds ("125") or minutes and seconds ("2:05").
func parseDuration(val string) (int, error) {
	if val == "" {
		return 0, nil
	}

	minutes, seconds, found := strings.Cut(val, ":")
	if !found {
		res, err := strconv.Atoi(val)
		if err != nil || res < 0 {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return res, nil
	}

	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("invalid duration %q", val)
	}
	s, err := strconv.Atoi(seconds)
	if err != nil || s < 0 || s > 59 || len(seconds) != 2 { //nolint:mnd // seconds in a minute
		return 0, fmt.Errorf("invalid duration %q", val)
	}
	return m*60 + s, nil //nolint:mnd // seconds in a minute
}

func parseVocabulary(val string) []string {
	res := make([]string, 0)
	seen := make(map[string]struct{})
	for _, w := range strings.Split(val, ",") {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		res = append(res, w)
	}
	return res
}
