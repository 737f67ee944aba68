package visibility

import (
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

// Aggregate is the document and ownership state a listing's visibility is
// derived from. It is always computed from current rows, never cached.
type Aggregate struct {
	Total         int64
	Approved      int64
	Pending       int64
	Rejected      int64
	OwnerVerified bool
	OwnerActive   bool
	Status        enums.ListingStatus
}

func (a Aggregate) HasDocuments() bool {
	return a.Total > 0
}

func (a Aggregate) AllApproved() bool {
	return a.Total == a.Approved
}

// VisibleToCustomers requires at least one document, all of them approved,
// a verified and active owner, and an active listing.
func (a Aggregate) VisibleToCustomers() bool {
	return a.HasDocuments() &&
		a.AllApproved() &&
		a.OwnerVerified &&
		a.OwnerActive &&
		a.Status == enums.ListingStatusActive
}

// EnsureListingVisible hides listings customers may not see behind a not found,
// so their existence does not leak. Providers and admins pass through.
func EnsureListingVisible(role enums.Role, agg Aggregate) error {
	if role != enums.RoleCustomer {
		return nil
	}
	if !agg.VisibleToCustomers() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return nil
}

// ProviderBrowsableStatuses are the statuses a provider sees on listings they
// do not own.
var ProviderBrowsableStatuses = []enums.ListingStatus{
	enums.ListingStatusActive,
	enums.ListingStatusInactive,
}

// EnsureListingVisibleTo applies EnsureListingVisible and then the provider
// rule: owners see every status, other providers only browsable ones.
func EnsureListingVisibleTo(role enums.Role, isOwner bool, agg Aggregate) error {
	if err := EnsureListingVisible(role, agg); err != nil {
		return err
	}
	if role != enums.RoleProvider || isOwner {
		return nil
	}
	for _, status := range ProviderBrowsableStatuses {
		if agg.Status == status {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
}

// SQL fragments over the documents alias "d" used by grouped listing queries.
const (
	CountTotal = "COUNT(d.id)"
	// CountWithStatus takes the status as a bound parameter.
	CountWithStatus = "COUNT(CASE WHEN d.verification_status = ? THEN 1 END)"
	// CustomerHaving keeps groups with at least one document, all approved.
	CustomerHaving = "COUNT(d.id) > 0 AND COUNT(d.id) = COUNT(CASE WHEN d.verification_status = ? THEN 1 END)"
)
