package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/internal/infrastructure/memory"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/helpers"
)

// panicFollows fails the test on any gateway call.
type panicFollows struct {
	repository.FollowRepository
	t *testing.T
}

func (p panicFollows) Follow(context.Context, string, string) (bool, error) {
	p.t.Fatal("gateway must not be called")
	return false, nil
}

func TestFollow_SelfFollowRejectedWithoutGatewayCall(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bag, err := store.Bags().GetOrCreate(ctx, "u1", entity.Bag{Name: "Bag", ShareToken: "tok"})
	require.NoError(t, err)

	svc := NewFollowService(panicFollows{t: t}, store.Bags(), helpers.NewDiscardLogger())
	err = svc.Follow(ctx, "u1", FollowTarget{BagID: bag.ID, OwnerUserID: "u1"})
	require.ErrorIs(t, err, apperrors.ErrSelfFollow)
	assert.Equal(t, "Нельзя подписаться на свою косметичку", apperrors.From(err).Message)
}

func TestFollow_CallerSuppliedOwnerIsIgnored(t *testing.T) {
	e := newEnv(t, true)
	anna := e.signUp(t, "anna")
	boris := e.signUp(t, "boris")
	ctx := context.Background()
	annaBag, _ := e.acc.FetchBag(ctx, anna)

	err := e.acc.FollowBag(ctx, anna, FollowTarget{BagID: annaBag.ID, OwnerUserID: boris})
	assert.ErrorIs(t, err, apperrors.ErrSelfFollow)
	assert.Equal(t, 0, e.store.FollowEdgeCount())

	require.NoError(t, e.acc.FollowBag(ctx, boris, FollowTarget{BagID: annaBag.ID, OwnerUserID: boris}),
		"a wrong owner hint does not block a legitimate follow")
	assert.Equal(t, 1, e.store.FollowEdgeCount())
}

func TestFollow_SelfFollowResolvedFromBag(t *testing.T) {
	e := newEnv(t, true)
	uid := e.signUp(t, "anna")
	ctx := context.Background()
	bag, _ := e.acc.FetchBag(ctx, uid)

	err := e.acc.FollowBag(ctx, uid, FollowTarget{BagID: bag.ID})
	assert.ErrorIs(t, err, apperrors.ErrSelfFollow)
	assert.Equal(t, 0, e.store.FollowEdgeCount())
}

func TestFollow_IdempotentWithCounters(t *testing.T) {
	e := newEnv(t, true)
	anna := e.signUp(t, "anna")
	boris := e.signUp(t, "boris")
	ctx := context.Background()
	annaBag, _ := e.acc.FetchBag(ctx, anna)
	borisBag, _ := e.acc.FetchBag(ctx, boris)

	target := FollowTarget{BagID: annaBag.ID, OwnerUserID: anna}
	require.NoError(t, e.acc.FollowBag(ctx, boris, target))
	require.NoError(t, e.acc.FollowBag(ctx, boris, target), "duplicate follow is success")
	assert.Equal(t, 1, e.store.FollowEdgeCount())

	annaBag, _ = e.acc.FetchBag(ctx, anna)
	borisBag, _ = e.acc.FetchBag(ctx, boris)
	assert.Equal(t, 1, annaBag.FollowersCount)
	assert.Equal(t, 1, borisBag.FollowingCount)

	following, err := e.acc.IsFollowing(ctx, boris, annaBag.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, err := e.acc.GetFollowers(ctx, annaBag.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "boris", followers[0].Username)
	assert.Equal(t, borisBag.ID, followers[0].BagID)

	followed, err := e.acc.GetFollowing(ctx, boris)
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, annaBag.ID, followed[0].BagID)

	require.NoError(t, e.acc.UnfollowBag(ctx, boris, annaBag.ID))
	require.NoError(t, e.acc.UnfollowBag(ctx, boris, annaBag.ID))
	annaBag, _ = e.acc.FetchBag(ctx, anna)
	assert.Equal(t, 0, annaBag.FollowersCount)
}

func TestFollow_UnknownBag(t *testing.T) {
	e := newEnv(t, true)
	uid := e.signUp(t, "anna")
	err := e.acc.FollowBag(context.Background(), uid, FollowTarget{BagID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

var _ repository.FollowRepository = panicFollows{}
