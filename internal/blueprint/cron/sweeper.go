package cronjob

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/draft"
)

// Sweeper periodically removes draft keys whose payloads no longer parse,
// so a schema change cannot leave a session stuck restoring garbage.
type Sweeper struct {
	client *redis.Client
	cron   *cron.Cron
}

func NewSweeper(client *redis.Client) *Sweeper {
	return &Sweeper{client: client}
}

// Start initializes cron tasks
func (s *Sweeper) Start() {
	if s.client == nil {
		log.Println("Draft sweeper disabled (no redis)")
		return
	}

	c := cron.New(cron.WithSeconds())

	//  (3:00 AM)
	_, err := c.AddFunc("0 0 3 * * *", func() {
		s.sweep()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Draft sweeper started (running nightly at 3:00AM)")
	c.Start()
	s.cron = c
}

// Stop halts the schedule. Already-running sweeps finish on their own.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce performs a single sweep outside the schedule.
func (s *Sweeper) RunOnce() {
	if s.client == nil {
		log.Println("Draft sweeper disabled (no redis)")
		return
	}
	s.sweep()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var scanned, removed int
	iter := s.client.Scan(ctx, 0, draft.KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		scanned++

		payload, err := s.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}

		var d domain.WizardDraft
		if json.Unmarshal([]byte(payload), &d) != nil {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				log.Printf("Sweeper failed to delete %s: %v", key, err)
				continue
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("Sweeper scan failed: %v", err)
		return
	}

	log.Printf("Draft sweep completed: scanned=%d removed=%d at %s", scanned, removed, time.Now().Format(time.RFC1123))
}
