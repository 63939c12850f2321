package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"
)

// TokenPurger clears mobile API tokens past their expiry.
type TokenPurger interface {
	PurgeExpiredTokens() (int64, error)
}

// PurgeExpiredTokensTask revokes every mobile token older than the configured expiry.
type PurgeExpiredTokensTask struct{}

// Config returns the queue configuration for token purge tasks.
func (t PurgeExpiredTokensTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_expired_tokens",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeExpiredTokensProcessor creates a processor function for PurgeExpiredTokensTask.
func PurgeExpiredTokensProcessor(purger TokenPurger, log zerolog.Logger) backlite.QueueProcessor[PurgeExpiredTokensTask] {
	return func(ctx context.Context, _ PurgeExpiredTokensTask) error {
		if purger == nil {
			return errors.New("token purger not configured")
		}

		purged, err := purger.PurgeExpiredTokens()
		if err != nil {
			return fmt.Errorf("purge expired tokens: %w", err)
		}

		log.Info().Int64("purged", purged).Msg("Purged expired API tokens")
		return nil
	}
}

// NewPurgeExpiredTokensQueue creates a backlite queue for token purge tasks.
func NewPurgeExpiredTokensQueue(purger TokenPurger, log zerolog.Logger) backlite.Queue {
	return backlite.NewQueue(PurgeExpiredTokensProcessor(purger, log))
}
