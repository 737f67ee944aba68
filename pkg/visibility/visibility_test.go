package visibility

import (
	"testing"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

func visibleAggregate() Aggregate {
	return Aggregate{
		Total:         2,
		Approved:      2,
		OwnerVerified: true,
		OwnerActive:   true,
		Status:        enums.ListingStatusActive,
	}
}

func TestVisibleToCustomers(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Aggregate)
		want   bool
	}{
		{name: "all approved", mutate: func(*Aggregate) {}, want: true},
		{name: "no documents", mutate: func(a *Aggregate) { a.Total, a.Approved = 0, 0 }, want: false},
		{name: "one pending", mutate: func(a *Aggregate) { a.Approved, a.Pending = 1, 1 }, want: false},
		{name: "one rejected", mutate: func(a *Aggregate) { a.Approved, a.Rejected = 1, 1 }, want: false},
		{name: "owner unverified", mutate: func(a *Aggregate) { a.OwnerVerified = false }, want: false},
		{name: "owner inactive", mutate: func(a *Aggregate) { a.OwnerActive = false }, want: false},
		{name: "listing inactive", mutate: func(a *Aggregate) { a.Status = enums.ListingStatusInactive }, want: false},
		{name: "listing maintenance", mutate: func(a *Aggregate) { a.Status = enums.ListingStatusMaintenance }, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := visibleAggregate()
			tc.mutate(&agg)
			if got := agg.VisibleToCustomers(); got != tc.want {
				t.Fatalf("VisibleToCustomers() = %v, want %v for %+v", got, tc.want, agg)
			}
		})
	}
}

func TestAllApprovedIsVacuousWithoutDocuments(t *testing.T) {
	agg := Aggregate{}
	if !agg.AllApproved() {
		t.Fatal("zero of zero approved should count as all approved")
	}
	if agg.HasDocuments() {
		t.Fatal("expected no documents")
	}
}

func TestEnsureListingVisible(t *testing.T) {
	hidden := visibleAggregate()
	hidden.Pending, hidden.Approved = 1, 1

	err := EnsureListingVisible(enums.RoleCustomer, hidden)
	if err == nil {
		t.Fatal("expected not found for customer")
	}
	if errors.As(err).Code() != errors.CodeNotFound {
		t.Fatalf("expected not found code, got %s", errors.As(err).Code())
	}

	for _, role := range []enums.Role{enums.RoleProvider, enums.RoleAdmin} {
		if err := EnsureListingVisible(role, hidden); err != nil {
			t.Fatalf("role %s should see hidden listing: %v", role, err)
		}
	}
	if err := EnsureListingVisible(enums.RoleCustomer, visibleAggregate()); err != nil {
		t.Fatalf("visible listing should pass: %v", err)
	}
}

func TestEnsureListingVisibleToAppliesProviderStatusRule(t *testing.T) {
	maintenance := visibleAggregate()
	maintenance.Status = enums.ListingStatusMaintenance

	cases := []struct {
		name    string
		role    enums.Role
		isOwner bool
		agg     Aggregate
		visible bool
	}{
		{name: "other provider maintenance", role: enums.RoleProvider, agg: maintenance, visible: false},
		{name: "owner maintenance", role: enums.RoleProvider, isOwner: true, agg: maintenance, visible: true},
		{name: "admin maintenance", role: enums.RoleAdmin, agg: maintenance, visible: true},
		{name: "customer maintenance", role: enums.RoleCustomer, agg: maintenance, visible: false},
		{name: "other provider active", role: enums.RoleProvider, agg: visibleAggregate(), visible: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureListingVisibleTo(tc.role, tc.isOwner, tc.agg)
			if tc.visible && err != nil {
				t.Fatalf("expected visible, got %v", err)
			}
			if !tc.visible && (err == nil || errors.As(err).Code() != errors.CodeNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}
