package navigation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

func TestSelectTab_ClearsHistoryAndEdit(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Open(FollowingScreen{UserID: "u1"}))
	require.NoError(t, s.BeginEdit(EditProfile))

	require.NoError(t, s.SelectTab(ViewPassport))

	assert.Equal(t, PassportScreen{}, s.Current)
	assert.Empty(t, s.History)
	assert.Equal(t, EditNone, s.Edit)
}

func TestSelectTab_RejectsDetailViews(t *testing.T) {
	s := NewState()
	err := s.SelectTab(ViewProduct)
	assert.ErrorIs(t, err, ErrNotTopLevel)
	assert.Equal(t, HomeScreen{}, s.Current)
}

func TestOpen_ProductFromProductReplaces(t *testing.T) {
	s := NewState()
	require.NoError(t, s.SelectTab(ViewProducts))
	require.NoError(t, s.Open(ProductScreen{Barcode: "111"}))
	require.NoError(t, s.Open(ProductScreen{Barcode: "222"}))

	assert.Equal(t, ProductScreen{Barcode: "222"}, s.Current)
	s.Back()
	assert.Equal(t, ProductsScreen{}, s.Current)
	s.Back()
	assert.Equal(t, HomeScreen{}, s.Current, "empty history leads home")
}

func TestOpen_RequiresParams(t *testing.T) {
	s := NewState()
	assert.ErrorIs(t, s.Open(VisitScreen{}), ErrMissingParam)
	assert.ErrorIs(t, s.Open(HomeScreen{}), ErrNotDetail)
	assert.ErrorIs(t, s.Open(BagScreen{BagID: "b"}), ErrNotDetail)
}

func TestOpenBag_ForeignFlagFollowsHistory(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Open(FollowingScreen{UserID: "me"}))
	require.NoError(t, s.OpenBag("b2", "other", "me"))

	assert.True(t, s.ViewingOtherBag())
	assert.ErrorIs(t, s.BeginEdit(EditBagName), ErrReadOnlyBag)
	assert.True(t, apperrors.Is(s.BeginEdit(EditBagName), apperrors.ErrForbidden))
	require.NoError(t, s.BeginEdit(EditPassport))

	require.NoError(t, s.Open(FollowersScreen{BagID: "b2"}))
	s.Back()
	assert.Equal(t, BagScreen{BagID: "b2", OwnerUserID: "other"}, s.Current)
	assert.True(t, s.ViewingOtherBag())

	require.NoError(t, s.SelectTab(ViewBag))
	assert.False(t, s.ViewingOtherBag())
	assert.Equal(t, BagScreen{}, s.Current)
	require.NoError(t, s.BeginEdit(EditBagEmoji))
}

func TestForeignFlag_ClearedWhenLeavingTheBagScreen(t *testing.T) {
	s := NewState()
	require.NoError(t, s.OpenShared("b9", "other", "me"))
	require.NoError(t, s.SelectTab(ViewProducts))
	assert.False(t, s.ViewingOtherBag())
	require.NoError(t, s.BeginEdit(EditBagName))

	require.NoError(t, s.OpenShared("b9", "other", "me"))
	s.Back()
	assert.Equal(t, HomeScreen{}, s.Current)
	assert.False(t, s.ViewingOtherBag())

	require.NoError(t, s.OpenBag("b9", "other", "me"))
	require.NoError(t, s.Open(ProductScreen{Barcode: "42"}))
	assert.False(t, s.ViewingOtherBag())
	s.Back()
	assert.True(t, s.ViewingOtherBag(), "back onto the foreign bag restores the flag")
	s.Back()
	assert.Equal(t, HomeScreen{}, s.Current)
	assert.False(t, s.ViewingOtherBag())
}

func TestOpenBag_OwnBagIsNotForeign(t *testing.T) {
	s := NewState()
	require.NoError(t, s.OpenBag("mine", "me", "me"))
	assert.False(t, s.ViewingOtherBag())
	assert.Equal(t, BagScreen{}, s.Current)
}

func TestOpenShared_StartsFreshHistory(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Open(VisitScreen{VisitID: "v"}))
	require.NoError(t, s.OpenShared("b9", "other", "me"))

	assert.Empty(t, s.History)
	assert.True(t, s.ViewingOtherBag())

	s.ReturnToOwnBag()
	assert.False(t, s.ViewingOtherBag())
	assert.Equal(t, BagScreen{}, s.Current)
}

func TestBeginEdit_Unknown(t *testing.T) {
	s := NewState()
	assert.ErrorIs(t, s.BeginEdit("colour"), ErrUnknownEdit)
	assert.ErrorIs(t, s.BeginEdit(EditNone), ErrUnknownEdit)
}

func TestState_JSONRoundTrip(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Open(FollowingScreen{UserID: "me"}))
	require.NoError(t, s.OpenBag("b2", "other", "me"))
	require.NoError(t, s.Open(ProductScreen{Barcode: "42", Product: &entity.CatalogProduct{Barcode: "42", Name: "Cream"}}))
	seq := s.Catalog.Begin()
	s.Catalog.Complete(seq, CatalogQuery{Mode: CatalogAll}, []entity.CatalogProduct{{Barcode: "1"}})

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var got State
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, s.Current, got.Current)
	assert.Equal(t, s.History, got.History)
	assert.Equal(t, s.ForeignBag, got.ForeignBag)
	assert.Equal(t, s.Catalog, got.Catalog)
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode(Envelope{Kind: "settings"})
	assert.Error(t, err)
}

func TestCatalogSlice_StaleFetchIsDropped(t *testing.T) {
	var c CatalogSlice
	search := CatalogQuery{Mode: CatalogSearch, Term: "cream"}
	category := CatalogQuery{Mode: CatalogCategory, Category: "makeup"}

	first := c.Begin()
	second := c.Begin()

	assert.True(t, c.Complete(second, category, []entity.CatalogProduct{{Barcode: "m"}}))
	assert.False(t, c.Complete(first, search, []entity.CatalogProduct{{Barcode: "s"}}))
	assert.Equal(t, category, *c.Query)
	assert.Equal(t, "m", c.Products[0].Barcode)

	assert.False(t, c.NeedsReload(category))
	assert.True(t, c.NeedsReload(CatalogQuery{Mode: CatalogCategory, Category: "makeup", Page: 1}))
	c.Invalidate()
	assert.True(t, c.NeedsReload(category))
}
