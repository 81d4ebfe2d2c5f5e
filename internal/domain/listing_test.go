package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingStatusIsValid(t *testing.T) {
	valid := []ListingStatus{
		ListingStatusDraft, ListingStatusPendingApproval, ListingStatusActive,
		ListingStatusRejected, ListingStatusExpired, ListingStatusClosed,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "status %q should be valid", s)
	}
	assert.False(t, ListingStatus("published").IsValid())
	assert.False(t, ListingStatus("").IsValid())
}

func TestListingStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ListingStatus
		to      ListingStatus
		allowed bool
	}{
		{"draft to active", ListingStatusDraft, ListingStatusActive, true},
		{"draft to pending approval", ListingStatusDraft, ListingStatusPendingApproval, true},
		{"draft to rejected", ListingStatusDraft, ListingStatusRejected, false},
		{"pending approval to active", ListingStatusPendingApproval, ListingStatusActive, true},
		{"pending approval to rejected", ListingStatusPendingApproval, ListingStatusRejected, true},
		{"pending approval to closed", ListingStatusPendingApproval, ListingStatusClosed, false},
		{"active to expired", ListingStatusActive, ListingStatusExpired, true},
		{"active to closed", ListingStatusActive, ListingStatusClosed, true},
		{"active to draft", ListingStatusActive, ListingStatusDraft, false},
		{"rejected is terminal", ListingStatusRejected, ListingStatusActive, false},
		{"expired is terminal", ListingStatusExpired, ListingStatusActive, false},
		{"closed is terminal", ListingStatusClosed, ListingStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestListingTransitionTo(t *testing.T) {
	l := &Listing{Status: ListingStatusPendingApproval}

	err := l.TransitionTo(ListingStatusActive)
	assert.NoError(t, err)
	assert.Equal(t, ListingStatusActive, l.Status)

	err = l.TransitionTo(ListingStatusPendingApproval)
	assert.Error(t, err)
	assert.Equal(t, EINVALID, ErrorCode(err))
	// Status is unchanged after a refused transition.
	assert.Equal(t, ListingStatusActive, l.Status)
}

func TestListingIsVisible(t *testing.T) {
	assert.True(t, (&Listing{Status: ListingStatusActive}).IsVisible())
	assert.False(t, (&Listing{Status: ListingStatusPendingApproval}).IsVisible())
	assert.False(t, (&Listing{Status: ListingStatusExpired}).IsVisible())
}
