package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/infrastructure/catalog"
	"github.com/oksasatya/cosmebag/internal/infrastructure/gemini"
	"github.com/oksasatya/cosmebag/internal/infrastructure/memory"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/helpers"
	"github.com/oksasatya/cosmebag/pkg/mailer/templates"
	"github.com/oksasatya/cosmebag/pkg/validation"
)

type fakeLookup struct {
	mu       sync.Mutex
	products map[string]entity.CatalogProduct
	searches int
}

func (f *fakeLookup) ProductByBarcode(_ context.Context, barcode string) (*entity.CatalogProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[barcode]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeLookup) Search(_ context.Context, term string, _ int) ([]entity.CatalogProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	out := make([]entity.CatalogProduct, 0, len(f.products))
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name+" "+p.Category), strings.ToLower(term)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return out, nil
}

func (f *fakeLookup) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

type server struct {
	engine *gin.Engine
	mr     *miniredis.Miniredis
	lookup *fakeLookup
	deps   Deps
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := helpers.NewDiscardLogger()
	store := memory.NewStore()
	lookup := &fakeLookup{products: map[string]entity.CatalogProduct{
		"111": {Barcode: "111", Name: "Hydrating serum", Brand: "CeraVe", Category: "skin care"},
		"222": {Barcode: "222", Name: "Night cream", Brand: "Vichy", Category: "skin care"},
		"333": {Barcode: "333", Name: "Matte lipstick", Brand: "NYX", Category: "makeup"},
	}}
	adviser, err := gemini.NewClient(context.Background(), "", "", logger)
	require.NoError(t, err)

	events := application.NewSessionEvents(nil, logger)
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	sessions := application.NewSessionService(store.Users(), store.Profiles(), jwt, rdb, nil, events, logger,
		application.SessionConfig{AutoConfirm: true, Brand: templates.Brand{AppName: "CosmeBag"}})
	bags := application.NewBagService(store.Bags(), store.BagItems(), store.Profiles(), store.Visits(), rdb, nil, nil, logger)
	accessors := application.NewAccessors(
		application.NewProfileService(store.Profiles(), logger),
		bags,
		application.NewPassportService(store.Passports(), adviser, logger),
		application.NewVisitService(store.Visits(), nil, logger),
		application.NewFollowService(store.Follows(), store.Bags(), logger),
	)
	spaces := workspace.NewManager(accessors, logger)
	t.Cleanup(spaces.Attach(sessions))

	deps := Deps{
		Redis:     rdb,
		Logger:    logger,
		Sessions:  sessions,
		Accessors: accessors,
		Catalog:   application.NewCatalogService(lookup, catalog.SamplesByCategory, logger),
		Scans:     application.NewRecentScans(rdb, time.Hour, logger),
		Nav:       navigation.NewStore(rdb, time.Hour),
		Spaces:    spaces,
	}

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	reg := NewRegistry(engine)
	AddModules(reg, deps)
	reg.RegisterAll()
	return &server{engine: engine, mr: mr, lookup: lookup, deps: deps}
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    struct {
		Notices []workspace.Notice `json:"notices"`
		Cached  bool               `json:"cached"`
	} `json:"meta"`
	Error struct {
		Code    apperrors.Code    `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// empty reports a missing or null data member.
func (e envelope) empty() bool {
	return len(e.Data) == 0 || string(e.Data) == "null"
}

func (e envelope) decode(t *testing.T, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, dest), string(e.Data))
}

// client keeps the session cookies between requests like a browser would.
type client struct {
	s       *server
	cookies map[string]*http.Cookie
}

func (s *server) anonymous() *client {
	return &client{s: s, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.s.engine.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (c *client) clone() *client {
	cp := &client{s: c.s, cookies: map[string]*http.Cookie{}}
	for k, v := range c.cookies {
		cp.cookies[k] = v
	}
	return cp
}

func (s *server) signUp(t *testing.T, username string) *client {
	t.Helper()
	c := s.anonymous()
	code, env := c.do(t, http.MethodPost, "/api/auth/sign-up", gin.H{
		"email":            username + "@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
		"display_name":     strings.ToUpper(username[:1]) + username[1:],
		"username":         username,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	require.Contains(t, c.cookies, helpers.AccessCookie)
	return c
}

type workspacePayload struct {
	Nav        navigation.State   `json:"nav"`
	Home       workspace.HomeView `json:"home"`
	Bag        workspace.BagView  `json:"bag"`
	ForeignBag *workspace.BagView `json:"foreign_bag"`
}

type navPayload struct {
	Nav        navigation.State   `json:"nav"`
	ForeignBag *workspace.BagView `json:"foreign_bag"`
}

func (c *client) workspace(t *testing.T, query string) workspacePayload {
	t.Helper()
	code, env := c.do(t, http.MethodGet, "/api/workspace"+query, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var p workspacePayload
	env.decode(t, &p)
	return p
}

func (c *client) nav(t *testing.T, method, path string, body any) (int, envelope, navPayload) {
	t.Helper()
	code, env := c.do(t, method, path, body)
	var p navPayload
	if code == http.StatusOK {
		env.decode(t, &p)
	}
	return code, env, p
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newServer(t)
	anon := s.anonymous()

	code, env := anon.do(t, http.MethodGet, "/api/workspace", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperrors.CodeUnauthorized, env.Error.Code)

	code, env = anon.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.empty())
}

func TestSignIn_WrongPasswordHasSpecificMessage(t *testing.T) {
	s := newServer(t)
	s.signUp(t, "anna")

	code, env := s.anonymous().do(t, http.MethodPost, "/api/auth/sign-in", gin.H{"email": "anna@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperrors.CodeInvalidCredentials, env.Error.Code)
	assert.Equal(t, apperrors.ErrInvalidCredentials.Message, env.Message)

	c := s.anonymous()
	code, _ = c.do(t, http.MethodPost, "/api/auth/sign-in", gin.H{"email": "ANNA@example.com ", "password": "secret1"})
	assert.Equal(t, http.StatusOK, code)
	code, env = c.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, env.empty())
}

func TestSignUp_ValidationDetails(t *testing.T) {
	s := newServer(t)
	code, env := s.anonymous().do(t, http.MethodPost, "/api/auth/sign-up", gin.H{
		"email": "anna@example.com", "password": "secret1", "confirm_password": "secret2", "username": "an",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.CodeValidation, env.Error.Code)
	assert.NotEmpty(t, env.Error.Details)
}

func TestBagFlow_AddWishlistMoveToOwned(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")

	ws := anna.workspace(t, "")
	require.NotNil(t, ws.Bag.Bag)
	assert.True(t, ws.Bag.CanEdit)
	assert.Equal(t, navigation.ViewHome, ws.Nav.Current.Kind())
	assert.Zero(t, ws.Home.Stats.Owned)

	code, env := anna.do(t, http.MethodPost, "/api/bag/items", gin.H{"product_id": "p1", "product": gin.H{"name": "Cream"}})
	require.Equal(t, http.StatusCreated, code, env.Message)
	require.Len(t, env.Meta.Notices, 1)
	assert.Equal(t, workspace.NoticeInfo, env.Meta.Notices[0].Level)

	code, env = anna.do(t, http.MethodPost, "/api/bag/wishlist", gin.H{"product_id": "p1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperrors.CodeAlreadyOwned, env.Error.Code)
	assert.Empty(t, env.Meta.Notices)

	code, _ = anna.do(t, http.MethodPost, "/api/bag/wishlist", gin.H{"product_id": "p2", "priority": 2})
	require.Equal(t, http.StatusCreated, code)

	var membership struct {
		InBag      bool `json:"in_bag"`
		InWishlist bool `json:"in_wishlist"`
	}
	_, env = anna.do(t, http.MethodGet, "/api/bag/membership/p2", nil)
	env.decode(t, &membership)
	assert.False(t, membership.InBag)
	assert.True(t, membership.InWishlist)

	code, env = anna.do(t, http.MethodPost, "/api/bag/wishlist/p2/own", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var item entity.BagItem
	env.decode(t, &item)
	assert.Equal(t, entity.StatusOwned, item.Status)

	_, env = anna.do(t, http.MethodGet, "/api/home", nil)
	var home workspace.HomeView
	env.decode(t, &home)
	assert.Equal(t, 2, home.Stats.Owned)
	assert.Equal(t, 0, home.Stats.Wishlist)

	_, env = anna.do(t, http.MethodGet, "/api/stats", nil)
	var stats entity.UserStats
	env.decode(t, &stats)
	assert.Equal(t, home.Stats.Owned, stats.Owned)

	code, env = anna.do(t, http.MethodDelete, "/api/bag/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	_, env = anna.do(t, http.MethodGet, "/api/bag", nil)
	var bag workspace.BagView
	env.decode(t, &bag)
	assert.Len(t, bag.Owned, 1)
	assert.Empty(t, bag.Wishlist)
}

func TestBagItems_BindingValidation(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")

	code, env := anna.do(t, http.MethodPost, "/api/bag/items", gin.H{"notes": "no product"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.CodeValidation, env.Error.Code)
	assert.Contains(t, env.Error.Details, "product_id")
}

func TestNavigation_HistoryAndEditor(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")

	_, _, p := anna.nav(t, http.MethodPost, "/api/nav/tab", gin.H{"view": "products"})
	assert.Equal(t, navigation.ViewProducts, p.Nav.Current.Kind())

	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/open", gin.H{"kind": "product", "data": gin.H{"barcode": "111"}})
	assert.Equal(t, navigation.ViewProduct, p.Nav.Current.Kind())
	assert.Len(t, p.Nav.History, 1)

	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/open", gin.H{"kind": "product", "data": gin.H{"barcode": "222"}})
	assert.Len(t, p.Nav.History, 1)
	assert.Equal(t, "222", p.Nav.Current.(navigation.ProductScreen).Barcode)

	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/back", nil)
	assert.Equal(t, navigation.ViewProducts, p.Nav.Current.Kind())
	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/back", nil)
	assert.Equal(t, navigation.ViewHome, p.Nav.Current.Kind())

	code, env, _ := anna.nav(t, http.MethodPost, "/api/nav/tab", gin.H{"view": "visit"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.CodeValidation, env.Error.Code)

	code, _, _ = anna.nav(t, http.MethodPost, "/api/nav/open", gin.H{"kind": "visit", "data": gin.H{"visit_id": "missing"}})
	assert.Equal(t, http.StatusNotFound, code)

	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/edit", gin.H{"mode": "profile"})
	assert.Equal(t, navigation.EditProfile, p.Nav.Edit)

	code, env = anna.do(t, http.MethodPatch, "/api/profile", gin.H{"display_name": "Anya"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var prof entity.Profile
	env.decode(t, &prof)
	assert.Equal(t, "Anya", prof.DisplayName)

	_, _, p = anna.nav(t, http.MethodGet, "/api/nav", nil)
	assert.Equal(t, navigation.EditNone, p.Nav.Edit)
}

func TestSharedBag_ReadOnlyUntilReturningHome(t *testing.T) {
	s := newServer(t)
	bob := s.signUp(t, "bobby")
	anna := s.signUp(t, "anna")

	code, _ := bob.do(t, http.MethodPost, "/api/bag/items", gin.H{"product_id": "b1", "product": gin.H{"name": "Toner"}})
	require.Equal(t, http.StatusCreated, code)
	bobBag := bob.workspace(t, "").Bag.Bag
	require.NotEmpty(t, bobBag.ShareToken)

	ws := anna.workspace(t, "?bag="+bobBag.ShareToken)
	require.NotNil(t, ws.Nav.ForeignBag)
	assert.Equal(t, bobBag.ID, ws.Nav.ForeignBag.BagID)
	require.NotNil(t, ws.ForeignBag)
	assert.False(t, ws.ForeignBag.CanEdit)
	assert.Len(t, ws.ForeignBag.Owned, 1)
	assert.Empty(t, ws.Nav.History)

	code, env := anna.do(t, http.MethodPatch, "/api/bag", gin.H{"name": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, apperrors.CodeForbidden, env.Error.Code)
	code, _ = anna.do(t, http.MethodPost, "/api/nav/edit", gin.H{"mode": "bag_name"})
	assert.Equal(t, http.StatusForbidden, code)

	for i := 0; i < 2; i++ {
		code, env = anna.do(t, http.MethodPost, "/api/bags/"+bobBag.ID+"/follow", nil)
		require.Equal(t, http.StatusOK, code, env.Message)
	}
	_, env = anna.do(t, http.MethodGet, "/api/bag", nil)
	var shown workspace.BagView
	env.decode(t, &shown)
	assert.Equal(t, bobBag.ID, shown.Bag.ID)
	assert.True(t, shown.IsFollowing)
	assert.Equal(t, 1, shown.Bag.FollowersCount)

	var followers []entity.Follower
	_, env = bob.do(t, http.MethodGet, "/api/bags/"+bobBag.ID+"/followers", nil)
	env.decode(t, &followers)
	assert.Len(t, followers, 1)

	_, _, p := anna.nav(t, http.MethodPost, "/api/nav/own-bag", nil)
	assert.Nil(t, p.Nav.ForeignBag)
	assert.Nil(t, p.ForeignBag)
	code, _ = anna.do(t, http.MethodPatch, "/api/bag", gin.H{"name": "Моя косметичка"})
	assert.Equal(t, http.StatusOK, code)

	code, env = bob.do(t, http.MethodPost, "/api/bags/"+bobBag.ID+"/follow", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.CodeSelfFollow, env.Error.Code)
}

func TestSharedBag_CatalogAddsStillReachOwnBag(t *testing.T) {
	s := newServer(t)
	bob := s.signUp(t, "bobby")
	anna := s.signUp(t, "anna")
	bobBag := bob.workspace(t, "").Bag.Bag

	ws := anna.workspace(t, "?bag="+bobBag.ShareToken)
	require.NotNil(t, ws.Nav.ForeignBag)

	_, _, p := anna.nav(t, http.MethodPost, "/api/nav/tab", gin.H{"view": "products"})
	assert.Nil(t, p.Nav.ForeignBag)
	assert.Nil(t, p.ForeignBag)

	code, env := anna.do(t, http.MethodPost, "/api/bag/items", gin.H{"product_id": "111"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, env = anna.do(t, http.MethodPost, "/api/bag/wishlist", gin.H{"product_id": "222"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, env = anna.do(t, http.MethodPost, "/api/bag/wishlist/222/own", nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	_, env = anna.do(t, http.MethodGet, "/api/bag", nil)
	var bag workspace.BagView
	env.decode(t, &bag)
	assert.NotEqual(t, bobBag.ID, bag.Bag.ID)
	assert.Len(t, bag.Owned, 2)

	var bobs workspace.BagView
	_, env = bob.do(t, http.MethodGet, "/api/bag", nil)
	env.decode(t, &bobs)
	assert.Empty(t, bobs.Owned, "nothing lands in the bag that was on screen")
}

func TestOpenBag_FromFollowingPushesHistory(t *testing.T) {
	s := newServer(t)
	bob := s.signUp(t, "bobby")
	anna := s.signUp(t, "anna")
	bobBag := bob.workspace(t, "").Bag.Bag
	annaBag := anna.workspace(t, "").Bag.Bag

	_, _, p := anna.nav(t, http.MethodPost, "/api/nav/open", gin.H{"kind": "following", "data": gin.H{"user_id": "me"}})
	assert.Equal(t, navigation.ViewFollowing, p.Nav.Current.Kind())

	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/open", gin.H{"kind": "bag", "data": gin.H{"bag_id": bobBag.ID}})
	require.NotNil(t, p.Nav.ForeignBag)
	require.NotNil(t, p.ForeignBag)
	assert.Len(t, p.Nav.History, 2)

	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/back", nil)
	assert.Equal(t, navigation.ViewFollowing, p.Nav.Current.Kind())
	assert.Nil(t, p.Nav.ForeignBag)
	assert.Nil(t, p.ForeignBag)

	_, _, p = anna.nav(t, http.MethodPost, "/api/nav/open", gin.H{"kind": "bag", "data": gin.H{"bag_id": annaBag.ID}})
	assert.Nil(t, p.Nav.ForeignBag, "own bag never sets the foreign flag")
}

func TestSharedLink_AffordancesFollowOwnership(t *testing.T) {
	s := newServer(t)
	bob := s.signUp(t, "bobby")
	bobBag := bob.workspace(t, "").Bag.Bag

	type shared struct {
		workspace.BagView
		ItemCount int `json:"item_count"`
	}
	var v shared

	code, env := s.anonymous().do(t, http.MethodGet, "/api/shared/bags/"+bobBag.ShareToken, nil)
	require.Equal(t, http.StatusOK, code)
	env.decode(t, &v)
	assert.False(t, v.CanEdit)
	assert.Equal(t, "bobby", v.OwnerUsername)

	_, env = bob.do(t, http.MethodGet, "/api/shared/bags/"+bobBag.ID, nil)
	env.decode(t, &v)
	assert.True(t, v.CanEdit)

	code, env = s.anonymous().do(t, http.MethodGet, "/api/shared/bags/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)
}

func TestCatalog_PageCachedPerSessionAndAnnotated(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")

	var entries []workspace.CatalogEntry
	code, env := anna.do(t, http.MethodGet, "/api/catalog/products?category=skincare", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	env.decode(t, &entries)
	require.Len(t, entries, 2)
	assert.False(t, env.Meta.Cached)
	assert.Equal(t, 1, s.lookup.searchCount())

	code, _ = anna.do(t, http.MethodPost, "/api/bag/items", gin.H{"product_id": entries[0].Barcode})
	require.Equal(t, http.StatusCreated, code)

	_, env = anna.do(t, http.MethodGet, "/api/catalog/products?mode=category&category=skincare&page=1", nil)
	env.decode(t, &entries)
	assert.True(t, env.Meta.Cached)
	assert.Equal(t, 1, s.lookup.searchCount())
	assert.True(t, entries[0].InBag)
	assert.False(t, entries[1].InBag)

	_, env = anna.do(t, http.MethodGet, "/api/catalog/products?q=lipstick", nil)
	env.decode(t, &entries)
	assert.False(t, env.Meta.Cached)
	assert.Equal(t, 2, s.lookup.searchCount())
	require.Len(t, entries, 1)
	assert.Equal(t, "333", entries[0].Barcode)
}

func TestCatalog_ScanRecordsAndOpensProduct(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")

	var scan struct {
		Product     *entity.CatalogProduct `json:"product"`
		RecentScans []entity.RecentScan    `json:"recent_scans"`
	}
	code, env := anna.do(t, http.MethodPost, "/api/catalog/scan", gin.H{"barcode": "111"})
	require.Equal(t, http.StatusOK, code, env.Message)
	env.decode(t, &scan)
	require.NotNil(t, scan.Product)
	assert.Equal(t, "Hydrating serum", scan.Product.Name)
	assert.Len(t, scan.RecentScans, 1)

	_, _, p := anna.nav(t, http.MethodGet, "/api/nav", nil)
	assert.Equal(t, navigation.ViewProduct, p.Nav.Current.Kind())

	code, env = anna.do(t, http.MethodPost, "/api/catalog/scan", gin.H{"barcode": "999"})
	require.Equal(t, http.StatusOK, code)
	env.decode(t, &scan)
	assert.Nil(t, scan.Product)
	assert.Equal(t, "Продукт не найден", env.Message)

	var scans []entity.RecentScan
	_, env = anna.do(t, http.MethodGet, "/api/catalog/scans", nil)
	env.decode(t, &scans)
	assert.Len(t, scans, 1)

	_, _ = anna.do(t, http.MethodDelete, "/api/catalog/scans", nil)
	_, env = anna.do(t, http.MethodGet, "/api/catalog/scans", nil)
	assert.True(t, env.empty(), "empty lists are omitted from the envelope")
}

func TestPassportAndVisits(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")

	code, env := anna.do(t, http.MethodPut, "/api/passport", gin.H{"skin_type": "weird"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Details, "skin_type")

	code, env = anna.do(t, http.MethodPut, "/api/passport", gin.H{"skin_type": "dry", "allergies": []string{"ланолин"}})
	require.Equal(t, http.StatusOK, code, env.Message)
	var passport entity.Passport
	_, env = anna.do(t, http.MethodGet, "/api/passport", nil)
	env.decode(t, &passport)
	assert.Equal(t, entity.SkinDry, passport.SkinType)
	assert.Equal(t, []string{"ланолин"}, passport.Allergies)

	var advice struct {
		Advice string `json:"advice"`
	}
	code, env = anna.do(t, http.MethodGet, "/api/passport/advice", nil)
	require.Equal(t, http.StatusOK, code)
	env.decode(t, &advice)
	assert.NotEmpty(t, advice.Advice)

	var first, second entity.Visit
	code, env = anna.do(t, http.MethodPost, "/api/visits", gin.H{"visit_date": "2025-03-10T00:00:00Z", "doctor_name": "Dr. Ivanova"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	env.decode(t, &first)
	_, env = anna.do(t, http.MethodPost, "/api/visits", gin.H{"visit_date": "2025-04-01T00:00:00Z", "procedures": []string{"peeling"}})
	env.decode(t, &second)

	var visits []entity.Visit
	_, env = anna.do(t, http.MethodGet, "/api/visits", nil)
	env.decode(t, &visits)
	require.Len(t, visits, 2)
	assert.Equal(t, second.ID, visits[0].ID)

	code, _ = anna.do(t, http.MethodGet, "/api/visits/"+first.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = anna.do(t, http.MethodDelete, "/api/visits/"+first.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = anna.do(t, http.MethodGet, "/api/visits/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = anna.do(t, http.MethodPost, "/api/visits", gin.H{"doctor_name": "no date"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Details, "visit_date")
}

func TestSignOut_ClearsSessionNavigationAndWorkspace(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")
	_, _, _ = anna.nav(t, http.MethodPost, "/api/nav/tab", gin.H{"view": "products"})
	require.NotEmpty(t, s.mr.Keys())
	stale := anna.clone()

	code, _ := anna.do(t, http.MethodPost, "/api/auth/sign-out", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, anna.cookies, helpers.AccessCookie)
	for _, k := range s.mr.Keys() {
		assert.False(t, strings.HasPrefix(k, "cosmebag:nav:"), k)
	}
	assert.Zero(t, s.deps.Spaces.Len())

	code, env := stale.do(t, http.MethodGet, "/api/workspace", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperrors.CodeUnauthorized, env.Error.Code)
}

func TestRefresh_RotatesSessionAndKeepsNavigation(t *testing.T) {
	s := newServer(t)
	anna := s.signUp(t, "anna")
	_, _, _ = anna.nav(t, http.MethodPost, "/api/nav/tab", gin.H{"view": "passport"})
	stale := anna.clone()

	code, env := anna.do(t, http.MethodPost, "/api/auth/refresh", nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	_, _, p := anna.nav(t, http.MethodGet, "/api/nav", nil)
	assert.Equal(t, navigation.ViewPassport, p.Nav.Current.Kind())

	code, _ = stale.do(t, http.MethodGet, "/api/nav", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
