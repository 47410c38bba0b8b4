package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/Roma7-7-7/linguatune/internal/dal"
)

const (
	publishTimeout = 1 * time.Minute
	dayLayout      = "2006-01-02"
)

type (
	Publisher interface {
		SendDigest(ctx context.Context, user dal.User) error
	}

	LinkedUsersFinder interface {
		FindLinkedUsers(ctx context.Context) ([]dal.User, error)
	}

	DigestConfig struct {
		Hour     int
		Location *time.Location
		// Interval between checks whether the digest is due.
		Interval time.Duration
		Now      func() time.Time
	}
)

// StartDigestSchedule sends a progress digest to every linked user once a day, at the configured hour.
func StartDigestSchedule(ctx context.Context, conf DigestConfig, users LinkedUsersFinder, p Publisher, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "panic", "error", r)
		}
	}()

	if conf.Now == nil {
		conf.Now = time.Now
	}
	if conf.Location == nil {
		conf.Location = time.Local
	}
	if conf.Interval <= 0 {
		conf.Interval = time.Minute
	}

	log.InfoContext(ctx, "digest schedule started", "hour", conf.Hour, "location", conf.Location.String())
	defer log.InfoContext(ctx, "digest schedule stopped")

	lastSent := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(conf.Interval):
		}

		day, due := digestDue(conf.Now().In(conf.Location), conf.Hour, lastSent)
		if !due {
			continue
		}
		lastSent = day

		log.DebugContext(ctx, "digest execution started")
		sendDigests(ctx, users, p, log)
		log.DebugContext(ctx, "digest execution finished")
	}
}

// digestDue reports whether the digest for now's day has to be sent and returns that day.
func digestDue(now time.Time, hour int, lastSent string) (string, bool) {
	day := now.Format(dayLayout)
	return day, now.Hour() == hour && day != lastSent
}

func sendDigests(ctx context.Context, users LinkedUsersFinder, p Publisher, log *slog.Logger) {
	linked, err := users.FindLinkedUsers(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to find linked users", "error", err)
		return
	}

	for _, user := range linked {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		if err = p.SendDigest(ctx, user); err != nil {
			log.ErrorContext(ctx, "failed to send digest", "error", err, "user_id", user.ID)
		}
		cancel()
	}
}
