// Package address manages a session's saved delivery addresses and the
// country, state and city lookups used to fill them in.
package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/sirupsen/logrus"
)

// ErrInvalid is returned when a required address field is blank.
var ErrInvalid = errors.New("invalid address")

// Address is one saved delivery address. IDs are millisecond timestamps.
type Address struct {
	ID             int64      `json:"id"`
	StreetAddress  string     `json:"street_address"`
	CountryName    string     `json:"country_name"`
	StateName      string     `json:"state_name"`
	CityName       string     `json:"city_name"`
	BuildingNumber string     `json:"building_number"`
	FloorNumber    string     `json:"floor_number"`
	FlatNumber     string     `json:"flat_number"`
	Phone          string     `json:"phone"`
	PostalCode     string     `json:"postal_code"`
	IsDefault      bool       `json:"is_default"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Validate checks the fields the address form requires.
func (a Address) Validate() error {
	var missing []string
	if strings.TrimSpace(a.StreetAddress) == "" {
		missing = append(missing, "street_address")
	}
	if strings.TrimSpace(a.CountryName) == "" {
		missing = append(missing, "country_name")
	}
	if strings.TrimSpace(a.CityName) == "" {
		missing = append(missing, "city_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// Book is the address list persisted under user_addresses. It is not safe
// for concurrent use.
type Book struct {
	blobs     blob.Store
	log       logrus.FieldLogger
	addresses []Address
	now       func() time.Time
}

type Option func(*Book)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(fn func() time.Time) Option {
	return func(b *Book) { b.now = fn }
}

// Load builds a Book hydrated from blobs. A corrupt blob is logged and
// yields an empty book.
func Load(ctx context.Context, blobs blob.Store, log logrus.FieldLogger, opts ...Option) (*Book, error) {
	b := &Book{
		blobs: blobs,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.Reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload replaces the in-memory list with the persisted one.
func (b *Book) Reload(ctx context.Context) error {
	raw, err := blob.ReadOr(ctx, b.blobs, blob.KeyAddresses, "[]")
	if err != nil {
		return fmt.Errorf("failed to read addresses: %w", err)
	}
	var list []Address
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		b.log.WithError(err).Warn("discarding unreadable address list")
		list = nil
	}
	if list == nil {
		list = []Address{}
	}
	b.addresses = list
	return nil
}

// List returns a copy of the saved addresses.
func (b *Book) List() []Address {
	out := make([]Address, len(b.addresses))
	copy(out, b.addresses)
	return out
}

// Get returns the address with id, or nil.
func (b *Book) Get(id int64) *Address {
	if i := b.index(id); i >= 0 {
		a := b.addresses[i]
		return &a
	}
	return nil
}

// Add stores a with a fresh id and creation time.
func (b *Book) Add(ctx context.Context, a Address) (Address, error) {
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	now := b.now().UTC()
	a.ID = b.nextID(now)
	a.CreatedAt = &now
	a.UpdatedAt = nil

	next := append(b.List(), a)
	if a.IsDefault {
		next = onlyDefault(next, a.ID)
	}
	if err := b.persist(ctx, next); err != nil {
		return Address{}, err
	}
	b.log.WithField("address_id", a.ID).Debug("address added")
	return a, nil
}

// Update replaces the address with id by a, keeping the id and creation
// time. ok is false when no such address exists.
func (b *Book) Update(ctx context.Context, id int64, a Address) (updated Address, ok bool, err error) {
	i := b.index(id)
	if i < 0 {
		return Address{}, false, nil
	}
	if err := a.Validate(); err != nil {
		return Address{}, true, err
	}
	now := b.now().UTC()
	a.ID = id
	a.CreatedAt = b.addresses[i].CreatedAt
	a.UpdatedAt = &now

	next := b.List()
	next[i] = a
	if a.IsDefault {
		next = onlyDefault(next, id)
	}
	if err := b.persist(ctx, next); err != nil {
		return Address{}, true, err
	}
	return a, true, nil
}

// Delete removes the address with id. Deleting an absent id is a no-op.
func (b *Book) Delete(ctx context.Context, id int64) error {
	i := b.index(id)
	if i < 0 {
		return nil
	}
	next := make([]Address, 0, len(b.addresses)-1)
	next = append(next, b.addresses[:i]...)
	next = append(next, b.addresses[i+1:]...)
	return b.persist(ctx, next)
}

// Reset replaces the list with an empty one.
func (b *Book) Reset(ctx context.Context) error {
	return b.persist(ctx, []Address{})
}

func (b *Book) index(id int64) int {
	for i, a := range b.addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// nextID returns the current millisecond, bumped past any id already in use.
func (b *Book) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	for _, a := range b.addresses {
		if a.ID >= id {
			id = a.ID + 1
		}
	}
	return id
}

func onlyDefault(list []Address, id int64) []Address {
	for i := range list {
		list[i].IsDefault = list[i].ID == id
	}
	return list
}

func (b *Book) persist(ctx context.Context, next []Address) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal addresses failed: %w", err)
	}
	if err := b.blobs.Write(ctx, blob.KeyAddresses, string(data)); err != nil {
		return fmt.Errorf("failed to persist addresses: %w", err)
	}
	b.addresses = next
	return nil
}
