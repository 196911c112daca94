package entity

import (
	"fmt"
	"github.com/gosimple/slug"
	"time"
)

// Listing is a product offered on the marketplace. Its Id is also the id of
// the ownership token minted for it.
type Listing struct {
	Id             uint64    `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	Price          uint64    `json:"price"`
	ForSale        bool      `json:"forSale"`
	ForRent        bool      `json:"forRent"`
	Renter         string    `json:"renter"`
	ExpirationTime time.Time `json:"expirationTime"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.Id)
}

func CreateListingSlug(id uint64) string {
	return slug.Make(fmt.Sprintf("listing-%d", id))
}

func (l Listing) IsRented() bool {
	return l.Renter != ""
}

// ListingPatch is a partial listing update. Nil fields are left untouched.
type ListingPatch struct {
	Id             uint64     `json:"-"`
	Owner          *string    `json:"owner,omitempty"`
	ForSale        *bool      `json:"forSale,omitempty"`
	Renter         *string    `json:"renter,omitempty"`
	ForRent        *bool      `json:"forRent,omitempty"`
	ExpirationTime *time.Time `json:"expirationTime,omitempty"`
}

func (p ListingPatch) Slug() string {
	return CreateListingSlug(p.Id)
}

func (p ListingPatch) Apply(l Listing) Listing {
	if p.Owner != nil {
		l.Owner = *p.Owner
	}
	if p.ForSale != nil {
		l.ForSale = *p.ForSale
	}
	if p.Renter != nil {
		l.Renter = *p.Renter
	}
	if p.ForRent != nil {
		l.ForRent = *p.ForRent
	}
	if p.ExpirationTime != nil {
		l.ExpirationTime = *p.ExpirationTime
	}

	return l
}

// Merge overlays next onto p.
func (p ListingPatch) Merge(next ListingPatch) ListingPatch {
	if next.Owner != nil {
		p.Owner = next.Owner
	}
	if next.ForSale != nil {
		p.ForSale = next.ForSale
	}
	if next.Renter != nil {
		p.Renter = next.Renter
	}
	if next.ForRent != nil {
		p.ForRent = next.ForRent
	}
	if next.ExpirationTime != nil {
		p.ExpirationTime = next.ExpirationTime
	}

	return p
}
