package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/xavierca1/leadflow/internal/entity"
)

type FollowUpLead struct {
	Name        string
	Email       string
	ProjectType string
}

// Campaign holds the per-business details every follow-up email mentions.
type Campaign struct {
	OwnerName     string
	OwnerPhone    string
	EstimatorLink string
	BookingLink   string
}

type FollowUpScheduler struct {
	Publisher FollowUpPublisher
	Secret    string
	Campaign  Campaign
}

func NewFollowUpScheduler(publisher FollowUpPublisher, secret string, campaign Campaign) *FollowUpScheduler {
	return &FollowUpScheduler{Publisher: publisher, Secret: secret, Campaign: campaign}
}

// Schedule enqueues the three campaign emails for a lead and returns how many were
// accepted. It is a no-op when the campaign is not configured or the lead left no
// email. The publishes run in parallel and one failing does not stop the others.
func (s *FollowUpScheduler) Schedule(ctx context.Context, lead FollowUpLead, tier entity.Tier) (int, error) {
	email := strings.TrimSpace(lead.Email)
	if s == nil || s.Publisher == nil || s.Secret == "" || email == "" {
		log.Debug().Bool("has_email", email != "").Msg("follow-ups not scheduled")
		return 0, nil
	}

	var published atomic.Int32
	p := pool.New().WithErrors()

	for i, delay := range entity.FollowUpOffsets {
		job := entity.FollowUpJob{
			Secret:         s.Secret,
			Name:           lead.Name,
			Email:          email,
			ProjectType:    lead.ProjectType,
			Tier:           tier,
			FollowupNumber: i + 1,
			OwnerName:      s.Campaign.OwnerName,
			OwnerPhone:     s.Campaign.OwnerPhone,
			EstimatorLink:  s.Campaign.EstimatorLink,
			BookingLink:    s.Campaign.BookingLink,
		}
		p.Go(func() error {
			if err := s.Publisher.PublishFollowUp(ctx, job, delay); err != nil {
				return fmt.Errorf("follow-up %d: %w", job.FollowupNumber, err)
			}
			published.Add(1)
			return nil
		})
	}

	err := p.Wait()
	n := int(published.Load())
	log.Info().Int("scheduled", n).Str("tier", string(tier)).Msg("follow-ups scheduled")
	return n, err
}
