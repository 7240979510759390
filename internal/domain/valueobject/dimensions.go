package valueobject

import (
	"strings"

	"github.com/google/uuid"
)

// Dimensions tags a posting with the property-management entities it
// belongs to. All tags are optional; the zero value is an untagged posting.
// Immutable once attached to a posting.
type Dimensions struct {
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	TenantID   *uuid.UUID
	VendorID   *uuid.UUID
	OwnerID    *uuid.UUID
}

// IsZero reports whether no tag is set.
func (d Dimensions) IsZero() bool {
	return d.PropertyID == nil && d.UnitID == nil && d.TenantID == nil && d.VendorID == nil && d.OwnerID == nil
}

// Key returns a canonical string for map keys and dimensional-balance rows.
// Unset tags render as empty segments so distinct subsets never collide.
func (d Dimensions) Key() string {
	seg := func(id *uuid.UUID) string {
		if id == nil {
			return ""
		}
		return id.String()
	}
	return strings.Join([]string{
		seg(d.PropertyID), seg(d.UnitID), seg(d.TenantID), seg(d.VendorID), seg(d.OwnerID),
	}, "|")
}

// Matches reports whether every tag set on filter matches the same tag on d.
// Used for subset-sum queries over postings.
func (d Dimensions) Matches(filter Dimensions) bool {
	match := func(have, want *uuid.UUID) bool {
		return want == nil || (have != nil && *have == *want)
	}
	return match(d.PropertyID, filter.PropertyID) &&
		match(d.UnitID, filter.UnitID) &&
		match(d.TenantID, filter.TenantID) &&
		match(d.VendorID, filter.VendorID) &&
		match(d.OwnerID, filter.OwnerID)
}

// WithOwner returns dimensions tagged with an owner.
func WithOwner(ownerID uuid.UUID) Dimensions {
	return Dimensions{OwnerID: &ownerID}
}

// WithProperty returns dimensions tagged with a property.
func WithProperty(propertyID uuid.UUID) Dimensions {
	return Dimensions{PropertyID: &propertyID}
}

// WithTenant returns dimensions tagged with a tenant.
func WithTenant(tenantID uuid.UUID) Dimensions {
	return Dimensions{TenantID: &tenantID}
}

// WithVendor returns dimensions tagged with a vendor.
func WithVendor(vendorID uuid.UUID) Dimensions {
	return Dimensions{VendorID: &vendorID}
}
