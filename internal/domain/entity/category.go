package entity

import "strings"

// Category is the fixed set of wellness areas an activity belongs to.
// The value is the human readable form used on the wire.
type Category string

const (
	CategoryNutrition         Category = "Nutrition"
	CategorySelfcare          Category = "Selfcare"
	CategoryExercise          Category = "Exercise"
	CategoryHobbies           Category = "Hobbies"
	CategoryStressManagement  Category = "Stress Management"
	CategoryMedicalCheckups   Category = "Medical Checkups"
	CategoryHydration         Category = "Hydration"
	CategoryHealth            Category = "Health"
	CategoryEmotionalWellness Category = "Emotional Wellness"
	CategorySocialWellness    Category = "Social Wellness"
)

var categories = []Category{
	CategoryNutrition,
	CategorySelfcare,
	CategoryExercise,
	CategoryHobbies,
	CategoryStressManagement,
	CategoryMedicalCheckups,
	CategoryHydration,
	CategoryHealth,
	CategoryEmotionalWellness,
	CategorySocialWellness,
}

// Categories returns every valid category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory accepts the wire form ("Stress Management") or the
// database label ("Stress_Management"). Matching is case-sensitive.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ReplaceAll(s, "_", " "))
	if c.Valid() {
		return c, true
	}
	return "", false
}

// Valid reports whether c is a member of the enumeration.
func (c Category) Valid() bool {
	for _, k := range categories {
		if k == c {
			return true
		}
	}
	return false
}

// DBValue returns the postgres enum label for c.
func (c Category) DBValue() string {
	return strings.ReplaceAll(string(c), " ", "_")
}

func (c Category) String() string { return string(c) }
