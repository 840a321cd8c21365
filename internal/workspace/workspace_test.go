package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/infrastructure/memory"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/helpers"
)

// spyGateway counts calls to the mutating accessors and can fail them.
type spyGateway struct {
	*application.Accessors
	calls  map[string]int
	fail   map[string]error
	during func(op string)
}

func (g *spyGateway) hit(op string) error {
	g.calls[op]++
	if g.during != nil {
		g.during(op)
	}
	return g.fail[op]
}

func (g *spyGateway) AddProductToBag(ctx context.Context, userID string, in application.AddItemInput) (*entity.BagItem, error) {
	if err := g.hit("add_to_bag"); err != nil {
		return nil, err
	}
	return g.Accessors.AddProductToBag(ctx, userID, in)
}

func (g *spyGateway) AddToWishlist(ctx context.Context, userID string, in application.AddItemInput) (*entity.BagItem, error) {
	if err := g.hit("add_to_wishlist"); err != nil {
		return nil, err
	}
	return g.Accessors.AddToWishlist(ctx, userID, in)
}

func (g *spyGateway) FollowBag(ctx context.Context, userID string, target application.FollowTarget) error {
	if err := g.hit("follow"); err != nil {
		return err
	}
	return g.Accessors.FollowBag(ctx, userID, target)
}

func (g *spyGateway) RemoveProduct(ctx context.Context, userID, itemID string) error {
	if err := g.hit("remove"); err != nil {
		return err
	}
	return g.Accessors.RemoveProduct(ctx, userID, itemID)
}

type fixture struct {
	store *memory.Store
	gw    *spyGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := helpers.NewDiscardLogger()
	store := memory.NewStore()
	acc := application.NewAccessors(
		application.NewProfileService(store.Profiles(), logger),
		application.NewBagService(store.Bags(), store.BagItems(), store.Profiles(), store.Visits(), rdb, nil, nil, logger),
		application.NewPassportService(store.Passports(), nil, logger),
		application.NewVisitService(store.Visits(), nil, logger),
		application.NewFollowService(store.Follows(), store.Bags(), logger),
	)
	return &fixture{store: store, gw: &spyGateway{Accessors: acc, calls: map[string]int{}, fail: map[string]error{}}}
}

func (f *fixture) user(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()
	u := &entity.User{Email: username + "@example.com", Password: "hash"}
	require.NoError(t, f.store.Users().Create(ctx, u))
	require.NoError(t, f.store.Profiles().Create(ctx, &entity.Profile{ID: u.ID, DisplayName: username, Username: username, IsPublic: true}))
	return u.ID
}

func (f *fixture) loaded(t *testing.T, userID string) *Workspace {
	t.Helper()
	ws := New(userID, f.gw, helpers.NewDiscardLogger())
	require.NoError(t, ws.Load(context.Background()))
	return ws
}

func product(id string) application.AddItemInput {
	return application.AddItemInput{ProductID: id, Product: entity.ProductSnapshot{Name: "Product " + id, Brand: "Brand"}}
}

func TestLoad_HomeCountsMatchFilteredViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user(t, "anna")
	_, err := f.gw.Accessors.AddProductToBag(ctx, uid, product("a"))
	require.NoError(t, err)
	_, err = f.gw.Accessors.AddProductToBag(ctx, uid, product("b"))
	require.NoError(t, err)
	_, err = f.gw.Accessors.AddToWishlist(ctx, uid, product("c"))
	require.NoError(t, err)

	ws := f.loaded(t, uid)
	home := ws.Home()
	bag := ws.Bag()

	require.NotNil(t, home.Profile)
	assert.Equal(t, "anna", home.Profile.Username)
	require.NotNil(t, home.Bag)
	assert.Equal(t, len(bag.Owned), home.Stats.Owned)
	assert.Equal(t, len(bag.Wishlist), home.Stats.Wishlist)
	assert.Equal(t, 2, home.Stats.Owned)
	assert.Equal(t, 1, home.Stats.Wishlist)
	assert.True(t, bag.CanEdit)
}

func TestAddToBag_ReconcilesWithStoredItem(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)

	f.gw.during = func(string) {
		inBag, _ := ws.Membership("synthetic-1")
		assert.True(t, inBag, "optimistic item is visible while the call is in flight")
	}
	item, err := ws.AddToBag(context.Background(), product("synthetic-1"))
	require.NoError(t, err)

	items := ws.Items()
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, entity.StatusOwned, items[0].Status)
	assert.False(t, strings.HasPrefix(items[0].ID, PendingPrefix))

	notices := ws.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeInfo, notices[0].Level)
	assert.Empty(t, ws.TakeNotices())
}

func TestAddToBag_FailureRestoresAndNotifies(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	f.gw.fail["add_to_bag"] = errors.New("connection reset")

	_, err := ws.AddToBag(context.Background(), product("x"))
	require.Error(t, err)

	assert.Empty(t, ws.Items())
	notices := ws.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
	assert.Equal(t, apperrors.ErrInternal.Message, notices[0].Message)
}

func TestAddToWishlist_OwnedIsRefusedLocally(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	_, err := ws.AddToBag(context.Background(), product("p"))
	require.NoError(t, err)

	_, err = ws.AddToWishlist(context.Background(), product("p"))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyOwned)
	assert.Zero(t, f.gw.calls["add_to_wishlist"])

	inBag, inWishlist := ws.Membership("p")
	assert.True(t, inBag)
	assert.False(t, inWishlist)
}

func TestMoveToOwned_KeepsIdentity(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	wished, err := ws.AddToWishlist(context.Background(), product("p"))
	require.NoError(t, err)

	moved, err := ws.MoveToOwned(context.Background(), "p", nil)
	require.NoError(t, err)
	again, err := ws.MoveToOwned(context.Background(), "p", nil)
	require.NoError(t, err)

	assert.Equal(t, wished.ID, moved.ID)
	assert.Equal(t, wished.ID, again.ID)
	bag := ws.Bag()
	assert.Len(t, bag.Owned, 1)
	assert.Empty(t, bag.Wishlist)
}

func TestRemoveItem_FailureKeepsItem(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	item, err := ws.AddToBag(context.Background(), product("p"))
	require.NoError(t, err)

	f.gw.fail["remove"] = errors.New("timeout")
	require.Error(t, ws.RemoveItem(context.Background(), item.ID))
	assert.Len(t, ws.Items(), 1)

	delete(f.gw.fail, "remove")
	require.NoError(t, ws.RemoveItem(context.Background(), item.ID))
	assert.Empty(t, ws.Items())
}

func TestSavePassport_UpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	assert.Nil(t, ws.Passport())

	dry := entity.SkinDry
	first, err := ws.SavePassport(context.Background(), entity.PassportPatch{SkinType: &dry, SkinConcerns: []string{"акне"}})
	require.NoError(t, err)
	got := ws.Passport()
	require.NotNil(t, got)
	assert.Equal(t, entity.SkinDry, got.SkinType)
	assert.Equal(t, []string{"акне"}, got.SkinConcerns)

	notes := "пить воду"
	second, err := ws.SavePassport(context.Background(), entity.PassportPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, notes, ws.Passport().Notes)
	assert.Equal(t, 1, f.store.Passports().PassportCount())
}

func TestVisits_AddKeepsOrderAndDeleteRemoves(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2025, 4, d, 0, 0, 0, 0, time.UTC) }

	older, err := ws.AddVisit(ctx, application.VisitInput{VisitDate: day(3), DoctorName: "Иванова"})
	require.NoError(t, err)
	newer, err := ws.AddVisit(ctx, application.VisitInput{VisitDate: day(9), ClinicName: "Клиника"})
	require.NoError(t, err)

	visits := ws.Visits()
	require.Len(t, visits, 2)
	assert.Equal(t, newer.ID, visits[0].ID)
	assert.Equal(t, older.ID, visits[1].ID)
	assert.NotNil(t, ws.Visit(older.ID))

	require.NoError(t, ws.DeleteVisit(ctx, older.ID))
	for _, v := range ws.Visits() {
		assert.NotEqual(t, older.ID, v.ID)
	}
	assert.Equal(t, 1, ws.Home().Stats.Visits)
}

func TestFollow_OwnBagRejectedWithoutRemoteCall(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	own := ws.Bag().Bag

	err := ws.Follow(context.Background(), application.FollowTarget{BagID: own.ID})
	assert.ErrorIs(t, err, apperrors.ErrSelfFollow)
	assert.Zero(t, f.gw.calls["follow"])
	assert.Empty(t, ws.TakeNotices(), "inline errors are not toasts")
}

func TestFollow_ForeignBagTwiceCountsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anna := f.user(t, "anna")
	boris := f.user(t, "boris")
	borisBag, err := f.gw.Accessors.FetchBag(ctx, boris)
	require.NoError(t, err)
	ws := f.loaded(t, anna)

	owned, err := ws.OpenForeignBag(ctx, borisBag.ShareToken)
	require.NoError(t, err)
	require.False(t, owned)

	target := application.FollowTarget{BagID: borisBag.ID}
	require.NoError(t, ws.Follow(ctx, target))
	require.NoError(t, ws.Follow(ctx, target))

	view := ws.ForeignBag()
	require.NotNil(t, view)
	assert.True(t, view.IsFollowing)
	assert.False(t, view.CanEdit)
	assert.Equal(t, 1, view.Bag.FollowersCount)
	assert.Equal(t, 1, ws.Home().Stats.Following)

	followers, err := f.gw.GetFollowers(ctx, borisBag.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)

	require.NoError(t, ws.Unfollow(ctx, borisBag.ID))
	assert.False(t, ws.ForeignBag().IsFollowing)
	assert.Equal(t, 0, ws.Home().Stats.Following)

	ws.CloseForeignBag()
	assert.Nil(t, ws.ForeignBag())
}

func TestOpenForeignBag_OwnLinkStaysOwnBag(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)

	owned, err := ws.OpenForeignBag(context.Background(), ws.Bag().Bag.ShareToken)
	require.NoError(t, err)
	assert.True(t, owned)
	assert.Nil(t, ws.ForeignBag())
}

func TestAnnotateCatalog(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	ctx := context.Background()
	_, err := ws.AddToBag(ctx, product("111"))
	require.NoError(t, err)
	_, err = ws.AddToWishlist(ctx, product("222"))
	require.NoError(t, err)

	entries := ws.AnnotateCatalog([]entity.CatalogProduct{{Barcode: "111"}, {Barcode: "222"}, {Barcode: "333"}})
	require.Len(t, entries, 3)
	assert.True(t, entries[0].InBag)
	assert.False(t, entries[0].InWishlist)
	assert.True(t, entries[1].InWishlist)
	assert.False(t, entries[2].InBag || entries[2].InWishlist)
}

func TestManager_SignOutClearsEverything(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ctx := context.Background()
	mgr := NewManager(f.gw, helpers.NewDiscardLogger())
	events := application.NewSessionEvents(nil, helpers.NewDiscardLogger())
	detach := mgr.Attach(events)
	defer detach()

	ws, err := mgr.Ensure(ctx, uid)
	require.NoError(t, err)
	_, err = ws.AddToBag(ctx, product("p"))
	require.NoError(t, err)
	dry := entity.SkinDry
	_, err = ws.SavePassport(ctx, entity.PassportPatch{SkinType: &dry})
	require.NoError(t, err)
	_, err = ws.AddVisit(ctx, application.VisitInput{VisitDate: time.Now()})
	require.NoError(t, err)

	events.Publish(ctx, application.SessionEvent{Type: application.EventSignedOut, UserID: uid})

	home := ws.Home()
	assert.Nil(t, home.Profile)
	assert.Nil(t, home.Bag)
	assert.Empty(t, ws.Items())
	assert.Nil(t, ws.Passport())
	assert.Empty(t, ws.Visits())
	assert.False(t, ws.Loaded())
	assert.NotSame(t, ws, mgr.Get(uid), "a fresh workspace replaces the dropped one")
}

func TestManager_SessionEventRefreshesProfile(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ctx := context.Background()
	mgr := NewManager(f.gw, helpers.NewDiscardLogger())
	ws, err := mgr.Ensure(ctx, uid)
	require.NoError(t, err)

	p, err := f.store.Profiles().GetByID(ctx, uid)
	require.NoError(t, err)
	p.DisplayName = "Анна К."
	require.NoError(t, f.store.Profiles().Update(ctx, p))

	mgr.HandleSessionEvent(application.SessionEvent{Type: application.EventTokenRefreshed, UserID: uid})
	assert.Equal(t, "Анна К.", ws.Profile().DisplayName)
}

func TestReset_DiscardsInFlightRollback(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "anna")
	ws := f.loaded(t, uid)
	f.gw.fail["add_to_bag"] = errors.New("boom")
	f.gw.during = func(string) { ws.Reset() }

	_, err := ws.AddToBag(context.Background(), product("p"))
	require.Error(t, err)
	assert.Nil(t, ws.Home().Bag, "restore must not resurrect data after a reset")
	assert.Empty(t, ws.TakeNotices())
}
