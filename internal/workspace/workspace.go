package workspace

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

// PendingPrefix marks ids of records created optimistically and not yet confirmed.
const PendingPrefix = "pending-"

// Workspace holds one user's screen data. Mutations are serialized; reads never
// wait for a remote call.
type Workspace struct {
	userID string
	gw     Gateway
	logger *logrus.Logger
	now    func() time.Time

	opMu sync.Mutex

	mu      sync.RWMutex
	gen     uint64
	loaded  bool
	st      state
	notices []Notice
}

func New(userID string, gw Gateway, logger *logrus.Logger) *Workspace {
	return &Workspace{userID: userID, gw: gw, logger: logger, now: time.Now}
}

func (w *Workspace) UserID() string { return w.userID }

func (w *Workspace) Loaded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// Load fetches every family of the user's own data.
func (w *Workspace) Load(ctx context.Context) error {
	err := w.reconcile(ctx, FamilyOwn)
	w.mu.Lock()
	if err == nil {
		w.loaded = true
	} else {
		w.notifyLocked(err)
	}
	w.mu.Unlock()
	return err
}

// RefreshProfile re-derives the profile after a session transition.
func (w *Workspace) RefreshProfile(ctx context.Context) error {
	return w.reconcile(ctx, FamilyProfile)
}

// Reset drops all user data; in-flight mutations finishing afterwards are discarded.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.loaded = false
	w.st = state{}
	w.notices = nil
}

// reconcile re-fetches the families in fam and commits those that loaded.
func (w *Workspace) reconcile(ctx context.Context, fam Family) error {
	w.mu.RLock()
	gen := w.gen
	next := w.st.clone()
	w.mu.RUnlock()

	var (
		errs []error
		done Family
	)
	fetch := func(f Family, fn func() error) {
		if !fam.has(f) {
			return
		}
		if err := fn(); err != nil {
			errs = append(errs, err)
			return
		}
		done |= f
	}

	fetch(FamilyProfile, func() (err error) {
		next.profile, err = w.gw.FetchProfile(ctx, w.userID)
		return err
	})
	fetch(FamilyBag, func() (err error) {
		next.bag, err = w.gw.FetchBag(ctx, w.userID)
		return err
	})
	fetch(FamilyItems, func() (err error) {
		if next.bag == nil {
			if next.bag, err = w.gw.FetchBag(ctx, w.userID); err != nil {
				return err
			}
			done |= FamilyBag
		}
		next.items, err = w.gw.FetchBagItems(ctx, next.bag.ID)
		return err
	})
	fetch(FamilyPassport, func() (err error) {
		next.passport, err = w.gw.FetchPassport(ctx, w.userID)
		return err
	})
	fetch(FamilyVisits, func() (err error) {
		next.visits, err = w.gw.FetchVisits(ctx, w.userID)
		return err
	})
	fetch(FamilyForeign, func() error {
		if next.foreign == nil {
			return nil
		}
		f, err := w.loadForeign(ctx, next.foreign.bag.ID)
		if err != nil {
			return err
		}
		next.foreign = f
		return nil
	})

	w.mu.Lock()
	if w.gen == gen {
		w.st.copyFrom(next, done)
	}
	w.mu.Unlock()
	return errors.Join(errs...)
}

func (w *Workspace) loadForeign(ctx context.Context, ref string) (*foreignBag, error) {
	pb, err := w.gw.ResolveSharedBag(ctx, ref)
	if err != nil {
		return nil, err
	}
	items, err := w.gw.FetchBagItems(ctx, pb.ID)
	if err != nil {
		return nil, err
	}
	following, err := w.gw.IsFollowing(ctx, w.userID, pb.ID)
	if err != nil {
		return nil, err
	}
	return &foreignBag{bag: *pb, items: items, following: following}, nil
}

// mutation is one user action: a local optimistic change, the remote call that
// makes it durable and the families to reconcile afterwards.
type mutation struct {
	op      string
	touches Family
	// local may refuse the action before any remote call by returning an error.
	local   func(*state) error
	remote  func(ctx context.Context) error
	success string
}

func (w *Workspace) apply(ctx context.Context, m mutation) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	w.mu.Lock()
	gen := w.gen
	snap := w.st.clone()
	if m.local != nil {
		if err := m.local(&w.st); err != nil {
			w.st.copyFrom(snap, m.touches)
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	if err := m.remote(ctx); err != nil {
		w.mu.Lock()
		if w.gen == gen {
			w.st.copyFrom(snap, m.touches)
			w.notifyLocked(err)
		}
		w.mu.Unlock()
		w.logFailure(m.op, err)
		return err
	}

	if m.success != "" {
		w.mu.Lock()
		if w.gen == gen {
			w.pushLocked(NoticeInfo, m.success)
		}
		w.mu.Unlock()
	}
	if err := w.reconcile(ctx, m.touches); err != nil {
		w.logger.WithError(err).WithField("op", m.op).WithField("user_id", w.userID).
			Warn("reconcile after mutation failed; keeping local state")
	}
	return nil
}

func (w *Workspace) logFailure(op string, err error) {
	entry := w.logger.WithError(err).WithField("op", op).WithField("user_id", w.userID)
	if inline(err) {
		entry.Debug("mutation rejected")
		return
	}
	entry.Error("mutation failed")
}

func pendingID() string { return PendingPrefix + uuid.NewString() }

// AddToBag adds a product as owned; a wishlisted product moves to owned.
func (w *Workspace) AddToBag(ctx context.Context, in application.AddItemInput) (*entity.BagItem, error) {
	var out *entity.BagItem
	err := w.apply(ctx, mutation{
		op:      "add_to_bag",
		touches: FamilyItems,
		local: func(s *state) error {
			if i := s.itemIndex(byProduct(in.ProductID)); i >= 0 {
				s.items[i].Status = entity.StatusOwned
				return nil
			}
			s.items = append(s.items, entity.BagItem{ID: pendingID(), ProductID: in.ProductID,
				Status: entity.StatusOwned, Product: in.Product, Notes: in.Notes, AddedAt: w.now()})
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.AddProductToBag(ctx, w.userID, in)
			return err
		},
		success: msgAddedToBag,
	})
	return out, err
}

// AddToWishlist wishlists a product. Owned products are refused without a remote call.
func (w *Workspace) AddToWishlist(ctx context.Context, in application.AddItemInput) (*entity.BagItem, error) {
	var out *entity.BagItem
	err := w.apply(ctx, mutation{
		op:      "add_to_wishlist",
		touches: FamilyItems,
		local: func(s *state) error {
			if i := s.itemIndex(byProduct(in.ProductID)); i >= 0 {
				if s.items[i].Status == entity.StatusOwned {
					return apperrors.ErrAlreadyOwned
				}
				return nil
			}
			s.items = append(s.items, entity.BagItem{ID: pendingID(), ProductID: in.ProductID,
				Status: entity.StatusWishlist, Product: in.Product, Notes: in.Notes, Priority: in.Priority, AddedAt: w.now()})
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.AddToWishlist(ctx, w.userID, in)
			return err
		},
		success: msgAddedToWishlist,
	})
	return out, err
}

func (w *Workspace) MoveToOwned(ctx context.Context, productID string, purchaseDate *time.Time) (*entity.BagItem, error) {
	var out *entity.BagItem
	err := w.apply(ctx, mutation{
		op:      "move_to_owned",
		touches: FamilyItems,
		local: func(s *state) error {
			if i := s.itemIndex(byProduct(productID)); i >= 0 && s.items[i].Status == entity.StatusWishlist {
				s.items[i].Status = entity.StatusOwned
				if purchaseDate != nil {
					d := *purchaseDate
					s.items[i].PurchaseDate = &d
				}
			}
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.MoveToOwned(ctx, w.userID, productID, purchaseDate)
			return err
		},
		success: msgMovedToOwned,
	})
	return out, err
}

func (w *Workspace) RemoveItem(ctx context.Context, itemID string) error {
	return w.apply(ctx, mutation{
		op:      "remove_item",
		touches: FamilyItems,
		local: func(s *state) error {
			s.items = slices.DeleteFunc(s.items, byItemID(itemID))
			return nil
		},
		remote: func(ctx context.Context) error {
			return w.gw.RemoveProduct(ctx, w.userID, itemID)
		},
		success: msgItemRemoved,
	})
}

func (w *Workspace) UpdateItem(ctx context.Context, itemID string, patch entity.ItemPatch) (*entity.BagItem, error) {
	var out *entity.BagItem
	err := w.apply(ctx, mutation{
		op:      "update_item",
		touches: FamilyItems,
		local: func(s *state) error {
			if i := s.itemIndex(byItemID(itemID)); i >= 0 {
				patch.Apply(&s.items[i])
			}
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.UpdateProduct(ctx, w.userID, itemID, patch)
			return err
		},
	})
	return out, err
}

func (w *Workspace) UpdateBag(ctx context.Context, patch entity.BagPatch) (*entity.Bag, error) {
	var out *entity.Bag
	err := w.apply(ctx, mutation{
		op:      "update_bag",
		touches: FamilyBag,
		local: func(s *state) error {
			if s.bag != nil {
				patch.Apply(s.bag)
			}
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.UpdateBag(ctx, w.userID, patch)
			return err
		},
		success: msgBagSaved,
	})
	return out, err
}

func (w *Workspace) SetBagImage(ctx context.Context, dataURL string) (*entity.Bag, error) {
	var out *entity.Bag
	err := w.apply(ctx, mutation{
		op:      "set_bag_image",
		touches: FamilyBag,
		local: func(s *state) error {
			if s.bag != nil {
				s.bag.CachedImage = dataURL
			}
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.SetBagImage(ctx, w.userID, dataURL)
			return err
		},
		success: msgBagSaved,
	})
	return out, err
}

func (w *Workspace) UpdateProfile(ctx context.Context, patch entity.ProfilePatch) (*entity.Profile, error) {
	var out *entity.Profile
	err := w.apply(ctx, mutation{
		op:      "update_profile",
		touches: FamilyProfile,
		local: func(s *state) error {
			if s.profile != nil {
				patch.Apply(s.profile)
			}
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.UpdateProfile(ctx, w.userID, patch)
			return err
		},
		success: msgProfileSaved,
	})
	return out, err
}

func (w *Workspace) SavePassport(ctx context.Context, patch entity.PassportPatch) (*entity.Passport, error) {
	var out *entity.Passport
	err := w.apply(ctx, mutation{
		op:      "save_passport",
		touches: FamilyPassport,
		local: func(s *state) error {
			if s.passport == nil {
				s.passport = &entity.Passport{UserID: w.userID, SkinType: entity.SkinNormal}
			}
			patch.Apply(s.passport)
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.SavePassport(ctx, w.userID, patch)
			return err
		},
		success: msgPassportSaved,
	})
	return out, err
}

func (w *Workspace) AddVisit(ctx context.Context, in application.VisitInput) (*entity.Visit, error) {
	var out *entity.Visit
	err := w.apply(ctx, mutation{
		op:      "add_visit",
		touches: FamilyVisits,
		local: func(s *state) error {
			s.visits = entity.InsertVisit(s.visits, entity.Visit{ID: pendingID(), UserID: w.userID,
				VisitDate: in.VisitDate, DoctorName: in.DoctorName, ClinicName: in.ClinicName,
				Procedures: in.Procedures, Recommendations: in.Recommendations, Attachments: in.Attachments,
				CreatedAt: w.now()})
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			out, err = w.gw.AddVisit(ctx, w.userID, in)
			return err
		},
		success: msgVisitAdded,
	})
	return out, err
}

func (w *Workspace) DeleteVisit(ctx context.Context, visitID string) error {
	return w.apply(ctx, mutation{
		op:      "delete_visit",
		touches: FamilyVisits,
		local: func(s *state) error {
			s.visits = slices.DeleteFunc(s.visits, func(v entity.Visit) bool { return v.ID == visitID })
			return nil
		},
		remote: func(ctx context.Context) error {
			return w.gw.DeleteVisit(ctx, w.userID, visitID)
		},
		success: msgVisitDeleted,
	})
}

// OpenForeignBag loads a bag by id or share token. It reports owned=true when the
// bag belongs to the viewer, in which case the own bag stays the one shown.
func (w *Workspace) OpenForeignBag(ctx context.Context, ref string) (owned bool, err error) {
	f, err := w.loadForeign(ctx, ref)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if f.bag.UserID == w.userID {
		w.st.foreign = nil
		return true, nil
	}
	w.st.foreign = f
	return false, nil
}

func (w *Workspace) CloseForeignBag() {
	w.mu.Lock()
	w.st.foreign = nil
	w.mu.Unlock()
}

// Follow subscribes to a bag. Following one's own bag is refused before any remote call.
func (w *Workspace) Follow(ctx context.Context, target application.FollowTarget) error {
	return w.apply(ctx, mutation{
		op:      "follow",
		touches: FamilyBag | FamilyForeign,
		local: func(s *state) error {
			if target.OwnerUserID == w.userID || (s.bag != nil && s.bag.ID == target.BagID) {
				return apperrors.ErrSelfFollow
			}
			if f := s.foreign; f != nil && f.bag.ID == target.BagID {
				if target.OwnerUserID == "" {
					target.OwnerUserID = f.bag.UserID
				}
				if target.OwnerUserID == w.userID {
					return apperrors.ErrSelfFollow
				}
				if !f.following {
					f.following = true
					f.bag.FollowersCount++
					if s.bag != nil {
						s.bag.FollowingCount++
					}
				}
			}
			return nil
		},
		remote: func(ctx context.Context) error {
			return w.gw.FollowBag(ctx, w.userID, target)
		},
		success: msgFollowed,
	})
}

// Unfollow is idempotent.
func (w *Workspace) Unfollow(ctx context.Context, bagID string) error {
	return w.apply(ctx, mutation{
		op:      "unfollow",
		touches: FamilyBag | FamilyForeign,
		local: func(s *state) error {
			if f := s.foreign; f != nil && f.bag.ID == bagID && f.following {
				f.following = false
				f.bag.FollowersCount = max(0, f.bag.FollowersCount-1)
				if s.bag != nil {
					s.bag.FollowingCount = max(0, s.bag.FollowingCount-1)
				}
			}
			return nil
		},
		remote: func(ctx context.Context) error {
			return w.gw.UnfollowBag(ctx, w.userID, bagID)
		},
		success: msgUnfollowed,
	})
}
