package workspace

import (
	"slices"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

// Family names a group of entities fetched together. Mutations reconcile the
// families they touch.
type Family uint8

const (
	FamilyProfile Family = 1 << iota
	FamilyBag
	FamilyItems
	FamilyPassport
	FamilyVisits
	FamilyForeign

	FamilyOwn = FamilyProfile | FamilyBag | FamilyItems | FamilyPassport | FamilyVisits
)

func (f Family) has(o Family) bool { return f&o != 0 }

// foreignBag is another user's bag opened from a share link or a follow list.
type foreignBag struct {
	bag       entity.PublicBag
	items     []entity.BagItem
	following bool
}

type state struct {
	profile  *entity.Profile
	bag      *entity.Bag
	items    []entity.BagItem
	passport *entity.Passport
	visits   []entity.Visit
	foreign  *foreignBag
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s state) clone() state {
	out := state{
		profile:  clonePtr(s.profile),
		bag:      clonePtr(s.bag),
		items:    slices.Clone(s.items),
		passport: clonePtr(s.passport),
		visits:   slices.Clone(s.visits),
	}
	if s.foreign != nil {
		f := *s.foreign
		f.items = slices.Clone(s.foreign.items)
		out.foreign = &f
	}
	return out
}

// copyFrom overwrites the families in fam with the values held by src.
func (s *state) copyFrom(src state, fam Family) {
	if fam.has(FamilyProfile) {
		s.profile = src.profile
	}
	if fam.has(FamilyBag) {
		s.bag = src.bag
	}
	if fam.has(FamilyItems) {
		s.items = src.items
	}
	if fam.has(FamilyPassport) {
		s.passport = src.passport
	}
	if fam.has(FamilyVisits) {
		s.visits = src.visits
	}
	if fam.has(FamilyForeign) {
		s.foreign = src.foreign
	}
}

func (s *state) itemIndex(match func(entity.BagItem) bool) int {
	return slices.IndexFunc(s.items, match)
}

func byProduct(productID string) func(entity.BagItem) bool {
	return func(it entity.BagItem) bool { return it.ProductID == productID }
}

func byItemID(id string) func(entity.BagItem) bool {
	return func(it entity.BagItem) bool { return it.ID == id }
}
