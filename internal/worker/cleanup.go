// Package worker runs periodic maintenance jobs. Refresh tokens are never
// deleted on a request path, so without the sweep the table grows with every
// login.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// TokenCleaner prunes expired refresh tokens. *service.TokenService
// satisfies it.
type TokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// StartTokenCleanup schedules an hourly sweep of expired refresh tokens and
// returns the scheduler so the caller can Stop it on shutdown.
func StartTokenCleanup(tokens TokenCleaner) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := tokens.CleanupExpired(ctx)
		if err != nil {
			log.Printf("token cleanup failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("token cleanup removed %d expired tokens", n)
		}
	})
	if err != nil {
		// "@hourly" is a constant schedule; a parse failure is a programming error.
		log.Fatalf("token cleanup schedule: %v", err)
	}
	c.Start()
	return c
}
