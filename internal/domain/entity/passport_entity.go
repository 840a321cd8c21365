package entity

import (
	"sort"
	"time"
)

type SkinType string

const (
	SkinNormal      SkinType = "normal"
	SkinDry         SkinType = "dry"
	SkinOily        SkinType = "oily"
	SkinCombination SkinType = "combination"
	SkinSensitive   SkinType = "sensitive"
)

func (s SkinType) Valid() bool {
	switch s {
	case SkinNormal, SkinDry, SkinOily, SkinCombination, SkinSensitive:
		return true
	}
	return false
}

// Passport is a user's aesthetic passport, at most one per user.
type Passport struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	SkinType     SkinType  `json:"skin_type"`
	SkinConcerns []string  `json:"skin_concerns"`
	Allergies    []string  `json:"allergies"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PassportPatch struct {
	SkinType     *SkinType `json:"skin_type"`
	SkinConcerns []string  `json:"skin_concerns"`
	Allergies    []string  `json:"allergies"`
	Notes        *string   `json:"notes"`
}

// Apply merges the patch. Nil slices mean unchanged; an empty slice clears the list.
func (p PassportPatch) Apply(ps *Passport) {
	if p.SkinType != nil {
		ps.SkinType = *p.SkinType
	}
	if p.SkinConcerns != nil {
		ps.SkinConcerns = append([]string(nil), p.SkinConcerns...)
	}
	if p.Allergies != nil {
		ps.Allergies = append([]string(nil), p.Allergies...)
	}
	if p.Notes != nil {
		ps.Notes = *p.Notes
	}
}

type AttachmentKind string

const (
	AttachmentBefore AttachmentKind = "before"
	AttachmentAfter  AttachmentKind = "after"
)

func (k AttachmentKind) Valid() bool {
	return k == AttachmentBefore || k == AttachmentAfter
}

type VisitAttachment struct {
	Kind    AttachmentKind `json:"kind"`
	URL     string         `json:"url"`
	Caption string         `json:"caption,omitempty"`
}

// Visit is a recorded cosmetologist appointment. Visits are created and deleted, never edited.
type Visit struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	VisitDate       time.Time         `json:"visit_date"`
	DoctorName      string            `json:"doctor_name"`
	ClinicName      string            `json:"clinic_name"`
	Procedures      []string          `json:"procedures"`
	Recommendations string            `json:"recommendations"`
	Attachments     []VisitAttachment `json:"attachments"`
	CreatedAt       time.Time         `json:"created_at"`
}

// SortVisits orders visits newest visit date first, breaking ties by creation time.
func SortVisits(visits []Visit) {
	sort.SliceStable(visits, func(i, j int) bool {
		if !visits[i].VisitDate.Equal(visits[j].VisitDate) {
			return visits[i].VisitDate.After(visits[j].VisitDate)
		}
		return visits[i].CreatedAt.After(visits[j].CreatedAt)
	})
}

// InsertVisit returns visits with v placed at its newest-first position.
func InsertVisit(visits []Visit, v Visit) []Visit {
	out := make([]Visit, 0, len(visits)+1)
	inserted := false
	for _, cur := range visits {
		if !inserted && !v.VisitDate.Before(cur.VisitDate) {
			out = append(out, v)
			inserted = true
		}
		out = append(out, cur)
	}
	if !inserted {
		out = append(out, v)
	}
	return out
}
