package marketplace

import "github.com/ZilDuck/zilliqa-marketplace/internal/entity"

// listingStore is append-only. A listing id is its position in the store and
// is allocated once, then shared with the token registry.
type listingStore struct {
	listings []entity.Listing
}

func newListingStore() *listingStore {
	return &listingStore{listings: make([]entity.Listing, 0)}
}

func (s *listingStore) append(l entity.Listing) uint64 {
	l.Id = uint64(len(s.listings))
	s.listings = append(s.listings, l)

	return l.Id
}

func (s *listingStore) get(id uint64) (entity.Listing, error) {
	if id >= s.count() {
		return entity.Listing{}, ErrNotFound
	}

	return s.listings[id], nil
}

func (s *listingStore) put(l entity.Listing) error {
	if l.Id >= s.count() {
		return ErrNotFound
	}
	s.listings[l.Id] = l

	return nil
}

func (s *listingStore) count() uint64 {
	return uint64(len(s.listings))
}

func (s *listingStore) page(offset, limit uint64) []entity.Listing {
	if offset >= s.count() {
		return []entity.Listing{}
	}
	end := s.count()
	if limit != 0 && limit < end-offset {
		end = offset + limit
	}

	page := make([]entity.Listing, end-offset)
	copy(page, s.listings[offset:end])

	return page
}

// truncate drops every listing from id onward. Only used to undo an append.
func (s *listingStore) truncate(id uint64) {
	if id < s.count() {
		s.listings = s.listings[:id]
	}
}

type referralLedger struct {
	counts map[string]uint64
}

func newReferralLedger() *referralLedger {
	return &referralLedger{counts: make(map[string]uint64)}
}

func (r *referralLedger) increment(referrer string) uint64 {
	r.counts[referrer]++

	return r.counts[referrer]
}

func (r *referralLedger) count(referrer string) uint64 {
	return r.counts[referrer]
}

func (r *referralLedger) restore(referrer string, previous uint64) {
	if previous == 0 {
		delete(r.counts, referrer)
		return
	}
	r.counts[referrer] = previous
}
