package offers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublicService(t *testing.T, repo *fakeOfferRepo) (*PublicService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := newTestService(repo)
	pub := NewPublicService(repo, stubProjects{}, svc, client, 30*time.Second, slog.New(slog.DiscardHandler))
	return pub, mr
}

func sentOffer(t *testing.T, repo *fakeOfferRepo) *Offer {
	t.Helper()
	svc := newTestService(repo)
	offer, err := svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)
	sent, err := svc.Send(context.Background(), offer.ID)
	require.NoError(t, err)
	return sent
}

func TestPublicGetByTokenMarksViewed(t *testing.T) {
	repo := newFakeOfferRepo()
	pub, _ := newTestPublicService(t, repo)
	offer := sentOffer(t, repo)

	po, err := pub.GetByToken(context.Background(), "tok-fixed")
	require.NoError(t, err)
	require.NotNil(t, po)
	assert.Equal(t, offer.ID, po.ID)
	assert.Equal(t, "Arena tour", po.JobName)
	assert.Equal(t, "Backline ApS", po.CompanyName)
	assert.Equal(t, "1,250.00 DKK", po.FormattedTotal)

	stored := repo.offers[offer.ID]
	assert.Equal(t, StatusViewed, stored.Status)
	require.NotNil(t, stored.ViewedAt)
	firstView := *stored.ViewedAt

	// Second load is a cache hit and must not move viewed_at.
	_, err = pub.GetByToken(context.Background(), "tok-fixed")
	require.NoError(t, err)
	assert.Equal(t, firstView, *repo.offers[offer.ID].ViewedAt)
}

func TestPublicGetByTokenCaches(t *testing.T) {
	repo := newFakeOfferRepo()
	pub, mr := newTestPublicService(t, repo)
	sentOffer(t, repo)

	_, err := pub.GetByToken(context.Background(), "tok-fixed")
	require.NoError(t, err)
	assert.True(t, mr.Exists(publicCacheKey("tok-fixed")))

	// Served from cache even if the row vanishes underneath.
	for id := range repo.offers {
		delete(repo.offers, id)
	}
	po, err := pub.GetByToken(context.Background(), "tok-fixed")
	require.NoError(t, err)
	require.NotNil(t, po)
}

func TestPublicGetByTokenUnknown(t *testing.T) {
	pub, _ := newTestPublicService(t, newFakeOfferRepo())

	po, err := pub.GetByToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, po)

	po, err = pub.GetByToken(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, po)
}

func TestPublicGetByTokenHidesDrafts(t *testing.T) {
	repo := newFakeOfferRepo()
	pub, _ := newTestPublicService(t, repo)

	svc := newTestService(repo)
	offer, err := svc.Create(context.Background(), draftRequest())
	require.NoError(t, err)
	// Simulate a stale token on a never-sent offer.
	repo.offers[offer.ID].AccessToken = "tok-fixed"

	po, err := pub.GetByToken(context.Background(), "tok-fixed")
	require.NoError(t, err)
	assert.Nil(t, po)
}

func TestPublicInvalidateDropsCache(t *testing.T) {
	repo := newFakeOfferRepo()
	pub, mr := newTestPublicService(t, repo)
	sentOffer(t, repo)

	_, err := pub.GetByToken(context.Background(), "tok-fixed")
	require.NoError(t, err)
	require.True(t, mr.Exists(publicCacheKey("tok-fixed")))

	pub.Invalidate(context.Background(), "tok-fixed")
	assert.False(t, mr.Exists(publicCacheKey("tok-fixed")))
}
