package models

import "time"

// Project carries the assignment side of the user/project relation.
// The foreign key lives here, not on User, and is unique: a project points
// at no more than one assignee at a time.
type Project struct {
	ID             string
	Name           string
	AssignedUserID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
