package entity

import "time"

// Activity is a wellness list item owned by exactly one user.
// Completed is only changed through toggle/complete; the remaining
// fields only through edit.
type Activity struct {
	ID          string
	UserID      string
	Title       string
	Category    Category
	Time        time.Time
	Description string
	Note        string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActivityPatch carries the edit-able fields; nil means unchanged.
type ActivityPatch struct {
	Title       *string
	Category    *Category
	Time        *time.Time
	Description *string
	Note        *string
}

// Empty reports whether the patch changes nothing.
func (p ActivityPatch) Empty() bool {
	return p.Title == nil && p.Category == nil && p.Time == nil && p.Description == nil && p.Note == nil
}

// Apply copies the set fields of p onto a.
func (p ActivityPatch) Apply(a *Activity) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Note != nil {
		a.Note = *p.Note
	}
}
