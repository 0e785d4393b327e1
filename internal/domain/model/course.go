package model

import "time"

// Course is the read-only projection the purchase engine needs: identity,
// display name and pricing. Lesson/quiz content lives outside this core.
type Course struct {
	ID           string
	Title        string
	Price        int64 // minor units
	Currency     string
	InstructorID string
	Published    bool
	CreatedAt    time.Time
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }
