package chancellery

import (
	"context"
	"testing"

	"github.com/orgportal/chancellery/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeStatusAppendsExactlyOneHistoryEntry(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindDecree)

	doc, err := svc.Create(ctx, CreateRequest{
		Name:         "Order #1",
		DocumentDate: date(t, "2024-01-10"),
		TypeID:       typeID(t, db, models.KindDecree),
	}, "alice")
	require.NoError(t, err)

	comment := "submitted"
	pending := statusID(t, db, models.StatusPendingApproval)
	newStatus, err := svc.ChangeStatus(ctx, doc.ID, pending, &comment, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, newStatus.Code)

	entries, err := svc.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	last := entries[1]
	require.NotNil(t, last.FromStatusID)
	assert.Equal(t, statusID(t, db, models.StatusDraft), *last.FromStatusID)
	assert.Equal(t, pending, last.ToStatusID)
	assert.Equal(t, "alice", last.ChangedBy)
	require.NotNil(t, last.Comment)
	assert.Equal(t, "submitted", *last.Comment)
}

func TestChangeStatusUnknownTargetIsNotFound(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindDecree)

	doc, err := svc.Create(ctx, CreateRequest{
		Name:         "Order",
		DocumentDate: date(t, "2024-01-10"),
		TypeID:       typeID(t, db, models.KindDecree),
	}, "alice")
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, doc.ID, 999999, nil, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeStatusOnTerminalDocumentConflicts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindDecree)

	doc, err := svc.Create(ctx, CreateRequest{
		Name:         "Order",
		DocumentDate: date(t, "2024-01-10"),
		TypeID:       typeID(t, db, models.KindDecree),
	}, "alice")
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, doc.ID, statusID(t, db, models.StatusCancelled), nil, "alice")
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, doc.ID, statusID(t, db, models.StatusDraft), nil, "alice")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestChangeStatusToCurrentStatusConflicts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindDecree)

	doc, err := svc.Create(ctx, CreateRequest{
		Name:         "Order",
		DocumentDate: date(t, "2024-01-10"),
		TypeID:       typeID(t, db, models.KindDecree),
	}, "alice")
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, doc.ID, statusID(t, db, models.StatusDraft), nil, "alice")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdjacencyTableForbidsSkippingStates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindDecree)

	doc, err := svc.Create(ctx, CreateRequest{
		Name:         "Order",
		DocumentDate: date(t, "2024-01-10"),
		TypeID:       typeID(t, db, models.KindDecree),
	}, "alice")
	require.NoError(t, err)

	// draft -> executed skips the whole approval path
	_, err = svc.ChangeStatus(ctx, doc.ID, statusID(t, db, models.StatusExecuted), nil, "alice")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestFullLifecyclePath(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindDecree)

	doc, err := svc.Create(ctx, CreateRequest{
		Name:         "Order",
		DocumentDate: date(t, "2024-01-10"),
		TypeID:       typeID(t, db, models.KindDecree),
	}, "alice")
	require.NoError(t, err)

	path := []string{
		models.StatusPendingApproval,
		models.StatusApproved,
		models.StatusInExecution,
		models.StatusExecuted,
	}
	for _, code := range path {
		_, err := svc.ChangeStatus(ctx, doc.ID, statusID(t, db, code), nil, "alice")
		require.NoError(t, err, "transition to %s", code)
	}

	entries, err := svc.History(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, entries, len(path)+1)

	got, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExecuted, got.Status.Code)
	assert.True(t, got.Status.IsTerminal)
}

func TestCancelFromAnyNonTerminalStatus(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindReport)
	cancelled := statusID(t, db, models.StatusCancelled)

	for _, from := range []string{models.StatusDraft, models.StatusPendingApproval, models.StatusApproved, models.StatusInExecution} {
		doc, err := svc.Create(ctx, CreateRequest{
			Name:         "Report",
			DocumentDate: date(t, "2024-01-10"),
			TypeID:       typeID(t, db, models.KindReport),
		}, "alice")
		require.NoError(t, err)

		// Walk to the starting status, then cancel
		for _, step := range pathTo(from) {
			_, err := svc.ChangeStatus(ctx, doc.ID, statusID(t, db, step), nil, "alice")
			require.NoError(t, err)
		}
		_, err = svc.ChangeStatus(ctx, doc.ID, cancelled, nil, "alice")
		require.NoError(t, err, "cancel from %s", from)
	}
}

// pathTo returns the legal transition chain from draft to the given status
func pathTo(code string) []string {
	switch code {
	case models.StatusDraft:
		return nil
	case models.StatusPendingApproval:
		return []string{models.StatusPendingApproval}
	case models.StatusApproved:
		return []string{models.StatusPendingApproval, models.StatusApproved}
	case models.StatusInExecution:
		return []string{models.StatusPendingApproval, models.StatusApproved, models.StatusInExecution}
	}
	return nil
}

func TestRejectedDocumentCanBeResubmitted(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := newTestService(t, db, models.KindDecree)

	doc, err := svc.Create(ctx, CreateRequest{
		Name:         "Order",
		DocumentDate: date(t, "2024-01-10"),
		TypeID:       typeID(t, db, models.KindDecree),
	}, "alice")
	require.NoError(t, err)

	pending := statusID(t, db, models.StatusPendingApproval)
	_, err = svc.ChangeStatus(ctx, doc.ID, pending, nil, "alice")
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, doc.ID, statusID(t, db, models.StatusRejected), nil, "boss")
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, doc.ID, pending, nil, "alice")
	require.NoError(t, err)

	entries, err := svc.History(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
