package models

import "time"

// CourseLevel orders catalog courses by difficulty.
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

// Valid returns true when the level is a supported value.
func (l CourseLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

// Next returns the level one step up. Advanced has no higher level and
// stays advanced.
func (l CourseLevel) Next() CourseLevel {
	switch l {
	case LevelBeginner:
		return LevelIntermediate
	case LevelIntermediate:
		return LevelAdvanced
	default:
		return LevelAdvanced
	}
}

// Course is a read-only catalog entry used to build offers.
type Course struct {
	ID          string      `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description string      `db:"description" json:"description"`
	Level       CourseLevel `db:"level" json:"level"`
	Price       int         `db:"price" json:"price"`
	Active      bool        `db:"active" json:"active"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}
