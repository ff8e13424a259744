package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// casRetries bounds the CAS loops. Front-desk contention is a handful of
// writers at most, so exhausting this means something is badly wrong.
const casRetries = 16

// TokenModel issues strictly increasing visit tokens off the single counter
// document. Every issue is a CAS transaction: two concurrent callers can
// never both persist the same value.
type TokenModel struct {
	store Store
}

// NewTokenModel creates a new token model instance.
func NewTokenModel(store Store) *TokenModel {
	return &TokenModel{store: store}
}

// Next issues the next token. If the counter write fails no token is
// considered issued; gaps from failed callers are acceptable.
func (tm *TokenModel) Next(ctx context.Context) (int64, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var counter TokenCounter
		cas, err := tm.store.Get(ctx, CollectionCounters, TokenCounterKey, &counter)
		if errors.Is(err, ErrNotFound) {
			counter = TokenCounter{Current: 1, LastUpdated: time.Now().UTC()}
			err = tm.store.Insert(ctx, CollectionCounters, TokenCounterKey, counter)
			if errors.Is(err, ErrExists) {
				// Another caller created the counter first.
				continue
			}
			if err != nil {
				return 0, fmt.Errorf("create token counter: %w", err)
			}
			log.Info().Int64("token", counter.Current).Msg("Token issued")
			return counter.Current, nil
		}
		if err != nil {
			return 0, fmt.Errorf("read token counter: %w", err)
		}

		counter.Current++
		counter.LastUpdated = time.Now().UTC()
		err = tm.store.Replace(ctx, CollectionCounters, TokenCounterKey, counter, cas)
		if errors.Is(err, ErrCasMismatch) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("advance token counter: %w", err)
		}
		log.Info().Int64("token", counter.Current).Msg("Token issued")
		return counter.Current, nil
	}
	return 0, fmt.Errorf("token counter contended: %w", ErrCasMismatch)
}

// Current returns the last issued token without mutating the counter, or 0
// when no token has been issued yet.
func (tm *TokenModel) Current(ctx context.Context) (int64, error) {
	var counter TokenCounter
	_, err := tm.store.Get(ctx, CollectionCounters, TokenCounterKey, &counter)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read token counter: %w", err)
	}
	return counter.Current, nil
}

// Reset unconditionally overwrites the counter. Operational recovery only;
// resetting below an issued value breaks token uniqueness.
func (tm *TokenModel) Reset(ctx context.Context, value int64) error {
	counter := TokenCounter{Current: value, LastUpdated: time.Now().UTC()}
	if err := tm.store.Upsert(ctx, CollectionCounters, TokenCounterKey, counter); err != nil {
		return fmt.Errorf("reset token counter: %w", err)
	}
	log.Warn().Int64("value", value).Msg("Token counter reset")
	return nil
}
