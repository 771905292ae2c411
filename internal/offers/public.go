package offers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/backline-app/backline/internal/money"
	"github.com/backline-app/backline/internal/projects"
)

// PublicOffer is the unauthenticated view of an offer: the full line-item
// graph plus a denormalized job/company snapshot and display-formatted
// totals. The access token itself is never echoed back.
type PublicOffer struct {
	Offer
	JobName        string `json:"job_name"`
	CompanyName    string `json:"company_name"`
	FormattedTotal string `json:"formatted_total"`
}

// PublicService serves the token-gated surface. Unknown tokens and drafts
// yield nothing rather than an error, so the endpoint leaks no state.
// Responses are cached briefly in Redis and lookups for the same token are
// collapsed with singleflight.
type PublicService struct {
	repo     Repository
	projects projects.Repository
	offers   *Service
	cache    *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

func NewPublicService(repo Repository, projectRepo projects.Repository, offerService *Service, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *PublicService {
	return &PublicService{
		repo:     repo,
		projects: projectRepo,
		offers:   offerService,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func publicCacheKey(token string) string {
	return "offers:public:" + token
}

// GetByToken returns the public offer graph for a token, or nil when the
// token is unknown or the offer is still a draft. Every successful load also
// records the view, best effort.
func (s *PublicService) GetByToken(ctx context.Context, token string) (*PublicOffer, error) {
	if token == "" {
		return nil, nil
	}

	if cached := s.fromCache(ctx, token); cached != nil {
		s.offers.MarkViewed(ctx, cached.ID)
		return cached, nil
	}

	v, err, _ := s.group.Do(token, func() (interface{}, error) {
		return s.load(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	po, _ := v.(*PublicOffer)
	if po == nil {
		return nil, nil
	}

	s.offers.MarkViewed(ctx, po.ID)
	return po, nil
}

func (s *PublicService) load(ctx context.Context, token string) (*PublicOffer, error) {
	offer, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// Drafts are invisible to the public even when a stale token exists.
	if offer.Status == StatusDraft {
		return nil, nil
	}

	po := &PublicOffer{
		Offer:          *offer,
		FormattedTotal: money.Format(offer.TotalWithVAT, "DKK"),
	}
	if job, err := s.projects.Get(ctx, offer.JobID); err == nil {
		po.JobName = job.Name
	}
	if name, err := s.projects.CompanyName(ctx, offer.CompanyID); err == nil {
		po.CompanyName = name
	}

	s.toCache(ctx, token, po)
	return po, nil
}

// Invalidate drops the cached snapshot after a state change so the public
// page reflects accept/reject promptly instead of waiting out the TTL.
func (s *PublicService) Invalidate(ctx context.Context, token string) {
	if s.cache == nil || token == "" {
		return
	}
	if err := s.cache.Del(ctx, publicCacheKey(token)).Err(); err != nil {
		s.logger.Warn("invalidate public offer cache", slog.Any("error", err))
	}
}

func (s *PublicService) fromCache(ctx context.Context, token string) *PublicOffer {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, publicCacheKey(token)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read public offer cache", slog.Any("error", err))
		}
		return nil
	}
	var po PublicOffer
	if err := json.Unmarshal(data, &po); err != nil {
		s.logger.Warn("decode public offer cache", slog.Any("error", err))
		return nil
	}
	return &po
}

func (s *PublicService) toCache(ctx context.Context, token string, po *PublicOffer) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(po)
	if err != nil {
		s.logger.Warn("encode public offer cache", slog.Any("error", err))
		return
	}
	if err := s.cache.Set(ctx, publicCacheKey(token), data, s.ttl).Err(); err != nil {
		s.logger.Warn("write public offer cache", slog.Any("error", err))
	}
}
