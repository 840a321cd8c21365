// Package navigation is the per-session view controller: the current screen, a
// back stack, the foreign-bag flag, the catalog page cache and the editor slice.
package navigation

import (
	"encoding/json"
	"fmt"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

type ViewKind string

const (
	ViewHome      ViewKind = "home"
	ViewBag       ViewKind = "bag"
	ViewScan      ViewKind = "scan"
	ViewProducts  ViewKind = "products"
	ViewPassport  ViewKind = "passport"
	ViewProduct   ViewKind = "product"
	ViewVisit     ViewKind = "visit"
	ViewFollowers ViewKind = "followers"
	ViewFollowing ViewKind = "following"
)

// TopLevel reports whether v is reachable from the bottom navigation.
func (v ViewKind) TopLevel() bool {
	switch v {
	case ViewHome, ViewBag, ViewScan, ViewProducts, ViewPassport:
		return true
	}
	return false
}

// Screen is one of the concrete screen types below; each carries only its own data.
type Screen interface {
	Kind() ViewKind
}

type HomeScreen struct{}

// BagScreen shows the viewer's own bag when BagID is empty.
type BagScreen struct {
	BagID       string `json:"bag_id,omitempty"`
	OwnerUserID string `json:"owner_user_id,omitempty"`
}

type ScanScreen struct{}

type ProductsScreen struct{}

type PassportScreen struct{}

type ProductScreen struct {
	Barcode string                 `json:"barcode"`
	Product *entity.CatalogProduct `json:"product,omitempty"`
}

type VisitScreen struct {
	VisitID string `json:"visit_id"`
}

type FollowersScreen struct {
	BagID string `json:"bag_id"`
}

type FollowingScreen struct {
	UserID string `json:"user_id"`
}

func (HomeScreen) Kind() ViewKind      { return ViewHome }
func (BagScreen) Kind() ViewKind       { return ViewBag }
func (ScanScreen) Kind() ViewKind      { return ViewScan }
func (ProductsScreen) Kind() ViewKind  { return ViewProducts }
func (PassportScreen) Kind() ViewKind  { return ViewPassport }
func (ProductScreen) Kind() ViewKind   { return ViewProduct }
func (VisitScreen) Kind() ViewKind     { return ViewVisit }
func (FollowersScreen) Kind() ViewKind { return ViewFollowers }
func (FollowingScreen) Kind() ViewKind { return ViewFollowing }

// Foreign reports whether the screen shows somebody else's bag.
func (b BagScreen) Foreign() bool { return b.BagID != "" }

// TopLevelScreen returns the screen for a bottom navigation tab.
func TopLevelScreen(v ViewKind) (Screen, error) {
	switch v {
	case ViewHome:
		return HomeScreen{}, nil
	case ViewBag:
		return BagScreen{}, nil
	case ViewScan:
		return ScanScreen{}, nil
	case ViewProducts:
		return ProductsScreen{}, nil
	case ViewPassport:
		return PassportScreen{}, nil
	}
	return nil, ErrNotTopLevel
}

// Envelope is the wire form of a Screen: {"kind": "...", "data": {...}}.
type Envelope struct {
	Kind ViewKind        `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

func Encode(s Screen) (Envelope, error) {
	if s == nil {
		s = HomeScreen{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return Envelope{}, err
	}
	if string(b) == "{}" {
		b = nil
	}
	return Envelope{Kind: s.Kind(), Data: b}, nil
}

func Decode(e Envelope) (Screen, error) {
	switch e.Kind {
	case ViewHome:
		return HomeScreen{}, nil
	case ViewScan:
		return ScanScreen{}, nil
	case ViewProducts:
		return ProductsScreen{}, nil
	case ViewPassport:
		return PassportScreen{}, nil
	case ViewBag:
		return decodeAs[BagScreen](e.Data)
	case ViewProduct:
		return decodeAs[ProductScreen](e.Data)
	case ViewVisit:
		return decodeAs[VisitScreen](e.Data)
	case ViewFollowers:
		return decodeAs[FollowersScreen](e.Data)
	case ViewFollowing:
		return decodeAs[FollowingScreen](e.Data)
	}
	return nil, fmt.Errorf("unknown view %q", e.Kind)
}

func decodeAs[T Screen](data json.RawMessage) (Screen, error) {
	var v T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
	}
	return v, nil
}
