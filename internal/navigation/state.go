package navigation

import (
	"encoding/json"

	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

var (
	ErrNotTopLevel  = apperrors.Validation("Этот экран недоступен из нижнего меню")
	ErrNotDetail    = apperrors.Validation("Этот экран открывается только из меню")
	ErrReadOnlyBag  = apperrors.Forbidden("Чужую косметичку нельзя редактировать")
	ErrUnknownEdit  = apperrors.Validation("Неизвестный режим редактирования")
	ErrMissingParam = apperrors.Validation("Не указан идентификатор экрана")
)

// EditMode is the single active editor; at most one editor is open at a time.
type EditMode string

const (
	EditNone      EditMode = ""
	EditBagName   EditMode = "bag_name"
	EditBagEmoji  EditMode = "bag_emoji"
	EditBagImage  EditMode = "bag_image"
	EditProfile   EditMode = "profile"
	EditPassport  EditMode = "passport"
	EditVisitForm EditMode = "visit_form"
)

func (m EditMode) Valid() bool {
	switch m {
	case EditNone, EditBagName, EditBagEmoji, EditBagImage, EditProfile, EditPassport, EditVisitForm:
		return true
	}
	return false
}

// EditsBag reports whether the editor mutates the bag on screen.
func (m EditMode) EditsBag() bool {
	return m == EditBagName || m == EditBagEmoji || m == EditBagImage
}

// ForeignBag identifies the other user's bag being viewed.
type ForeignBag struct {
	BagID       string `json:"bag_id"`
	OwnerUserID string `json:"owner_user_id"`
}

// State is the navigation state of one session.
type State struct {
	Current    Screen
	History    []Screen
	ForeignBag *ForeignBag // set only while Current is a foreign bag screen
	Catalog    CatalogSlice
	Edit       EditMode
}

func NewState() *State {
	return &State{Current: HomeScreen{}}
}

// ViewingOtherBag reports whether bag mutation affordances must be hidden.
func (s *State) ViewingOtherBag() bool { return s.ForeignBag != nil }

// CanMutateBag is the inverse of ViewingOtherBag.
func (s *State) CanMutateBag() bool { return s.ForeignBag == nil }

// SelectTab switches to a top-level view, clearing history and ending any edit.
// Every tab leaves a foreign bag; the bag tab shows the viewer's own bag.
func (s *State) SelectTab(v ViewKind) error {
	scr, err := TopLevelScreen(v)
	if err != nil {
		return err
	}
	s.Current = scr
	s.History = nil
	s.Edit = EditNone
	s.ForeignBag = nil
	return nil
}

// Open pushes a detail screen and leaves any foreign bag; back restores it. Opening
// a product from a product replaces the current screen, so back returns to where
// the first product was opened from.
func (s *State) Open(scr Screen) error {
	if err := validateDetail(scr); err != nil {
		return err
	}
	s.Edit = EditNone
	s.ForeignBag = nil
	if scr.Kind() == ViewProduct && s.Current != nil && s.Current.Kind() == ViewProduct {
		s.Current = scr
		return nil
	}
	s.push(scr)
	return nil
}

func validateDetail(scr Screen) error {
	switch v := scr.(type) {
	case ProductScreen:
		if v.Barcode == "" {
			return ErrMissingParam
		}
	case VisitScreen:
		if v.VisitID == "" {
			return ErrMissingParam
		}
	case FollowersScreen:
		if v.BagID == "" {
			return ErrMissingParam
		}
	case FollowingScreen:
		if v.UserID == "" {
			return ErrMissingParam
		}
	default:
		return ErrNotDetail
	}
	return nil
}

// OpenBag opens a bag from the followers or following list. The viewer's own bag
// opens as the own bag; any other bag sets the foreign flag.
func (s *State) OpenBag(bagID, ownerUserID, viewerUserID string) error {
	if bagID == "" {
		return ErrMissingParam
	}
	s.Edit = EditNone
	if ownerUserID == viewerUserID {
		s.push(BagScreen{})
		s.ForeignBag = nil
		return nil
	}
	s.push(BagScreen{BagID: bagID, OwnerUserID: ownerUserID})
	s.ForeignBag = &ForeignBag{BagID: bagID, OwnerUserID: ownerUserID}
	return nil
}

// OpenShared lands on a bag reached through a share link. History starts empty so
// back leads home.
func (s *State) OpenShared(bagID, ownerUserID, viewerUserID string) error {
	if bagID == "" {
		return ErrMissingParam
	}
	s.History = nil
	s.Edit = EditNone
	if ownerUserID == viewerUserID {
		s.Current = BagScreen{}
		s.ForeignBag = nil
		return nil
	}
	s.Current = BagScreen{BagID: bagID, OwnerUserID: ownerUserID}
	s.ForeignBag = &ForeignBag{BagID: bagID, OwnerUserID: ownerUserID}
	return nil
}

// Back pops the history; with an empty history it goes home. The foreign flag is
// set again only when back lands on a foreign bag screen.
func (s *State) Back() {
	s.Edit = EditNone
	s.ForeignBag = nil
	if len(s.History) == 0 {
		s.Current = HomeScreen{}
		return
	}
	last := len(s.History) - 1
	s.Current = s.History[last]
	s.History = s.History[:last]
	if b, ok := s.Current.(BagScreen); ok && b.Foreign() {
		s.ForeignBag = &ForeignBag{BagID: b.BagID, OwnerUserID: b.OwnerUserID}
	}
}

// ReturnToOwnBag leaves a foreign bag for the viewer's own.
func (s *State) ReturnToOwnBag() {
	s.ForeignBag = nil
	s.Current = BagScreen{}
	s.History = nil
	s.Edit = EditNone
}

// BeginEdit opens an editor. Bag editors are refused while a foreign bag is shown.
func (s *State) BeginEdit(m EditMode) error {
	if !m.Valid() || m == EditNone {
		return ErrUnknownEdit
	}
	if m.EditsBag() && s.ViewingOtherBag() {
		return ErrReadOnlyBag
	}
	s.Edit = m
	return nil
}

func (s *State) EndEdit() { s.Edit = EditNone }

func (s *State) push(scr Screen) {
	if s.Current == nil {
		s.Current = HomeScreen{}
	}
	s.History = append(s.History, s.Current)
	s.Current = scr
}

type stateJSON struct {
	Current    Envelope     `json:"current"`
	History    []Envelope   `json:"history"`
	ForeignBag *ForeignBag  `json:"foreign_bag,omitempty"`
	Catalog    CatalogSlice `json:"catalog"`
	Edit       EditMode     `json:"edit"`
}

func (s State) MarshalJSON() ([]byte, error) {
	cur, err := Encode(s.Current)
	if err != nil {
		return nil, err
	}
	hist := make([]Envelope, 0, len(s.History))
	for _, h := range s.History {
		e, err := Encode(h)
		if err != nil {
			return nil, err
		}
		hist = append(hist, e)
	}
	return json.Marshal(stateJSON{Current: cur, History: hist, ForeignBag: s.ForeignBag, Catalog: s.Catalog, Edit: s.Edit})
}

func (s *State) UnmarshalJSON(b []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	cur, err := Decode(raw.Current)
	if err != nil {
		return err
	}
	hist := make([]Screen, 0, len(raw.History))
	for _, e := range raw.History {
		h, err := Decode(e)
		if err != nil {
			return err
		}
		hist = append(hist, h)
	}
	*s = State{Current: cur, History: hist, ForeignBag: raw.ForeignBag, Catalog: raw.Catalog, Edit: raw.Edit}
	return nil
}
