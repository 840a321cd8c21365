package navigation

import (
	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

type CatalogMode string

const (
	CatalogAll      CatalogMode = "all"
	CatalogCategory CatalogMode = "category"
	CatalogSearch   CatalogMode = "search"
)

// CatalogQuery identifies one catalog page.
type CatalogQuery struct {
	Mode     CatalogMode `json:"mode"`
	Category string      `json:"category,omitempty"`
	Term     string      `json:"term,omitempty"`
	Page     int         `json:"page"`
}

// CatalogSlice caches the last committed catalog page. Every fetch takes a sequence
// number from Begin and only the latest issued one may commit.
type CatalogSlice struct {
	Query    *CatalogQuery           `json:"query,omitempty"`
	Products []entity.CatalogProduct `json:"products,omitempty"`
	Seq      uint64                  `json:"seq"`
}

// NeedsReload reports whether q differs from the cached page.
func (c *CatalogSlice) NeedsReload(q CatalogQuery) bool {
	return c.Query == nil || *c.Query != q
}

// Begin issues the sequence number for a new fetch.
func (c *CatalogSlice) Begin() uint64 {
	c.Seq++
	return c.Seq
}

// Complete commits a fetch result unless a newer fetch was issued since.
func (c *CatalogSlice) Complete(seq uint64, q CatalogQuery, products []entity.CatalogProduct) bool {
	if seq != c.Seq {
		return false
	}
	c.Query = &q
	c.Products = products
	return true
}

// Invalidate drops the cached page so the next visit reloads.
func (c *CatalogSlice) Invalidate() {
	c.Query = nil
	c.Products = nil
}
