// Package storeutil holds query helpers shared by the stores.
package storeutil

import "go.mongodb.org/mongo-driver/mongo/options"

const (
	DefaultLimit int64 = 20
	MaxLimit     int64 = 100
)

// Pager is a 1-based page request.
type Pager struct {
	Page  int64
	Limit int64
}

// Normalize fills defaults for non-positive values and caps Limit at
// MaxLimit.
func (p Pager) Normalize() Pager {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// FindOptions returns skip and limit for a normalized pager.
func (p Pager) FindOptions() *options.FindOptions {
	return options.Find().SetSkip((p.Page - 1) * p.Limit).SetLimit(p.Limit)
}

// Pages is how many pages total documents fill.
func (p Pager) Pages(total int64) int64 {
	if p.Limit < 1 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
