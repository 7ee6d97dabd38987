package subject

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("subject not found")
	ErrNameRequired = errors.New("name is required")
	ErrNameTaken    = errors.New("subject already exists")
)

// Subject is a teachable topic in the catalog (e.g. Mathematics).
type Subject struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Filter defines parameters for listing subjects.
type Filter struct {
	Keyword  string
	Page     int
	PageSize int
}
