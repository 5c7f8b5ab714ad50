package services

import (
	"parcel-dispatch-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoNeighbourhoods() []*domain.Parcel {
	return []*domain.Parcel{
		parcelAt(1, "A", domain.EndOfDay, nil),
		parcelAt(2, "B", domain.EndOfDay, nil),
		parcelAt(3, "C", domain.EndOfDay, nil),
		parcelAt(4, "E", domain.EndOfDay, nil),
		parcelAt(5, "F", domain.EndOfDay, nil),
	}
}

func TestSplitToFitKeepsAFittingCluster(t *testing.T) {
	work := twoNeighbourhoods()
	q := NewLoadQueue([][]*domain.Parcel{{parcelAt(9, "D", domain.EndOfDay, nil)}})

	kept, err := NewClusterSplitter(sixStops(), seeded()).SplitToFit(3, q, work)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(kept), 3)
	assert.NotEmpty(t, kept)

	pending := q.Pending()
	require.Len(t, pending, 1+len(work)-len(kept))
	assert.Equal(t, domain.ParcelID(9), pending[len(pending)-1].ID, "returned parcels go ahead of the queue")

	all := append(ids(kept), ids(pending[:len(pending)-1])...)
	assert.ElementsMatch(t, []domain.ParcelID{1, 2, 3, 4, 5}, all)
}

func TestSplitToFitFitsWithoutSplitting(t *testing.T) {
	work := twoNeighbourhoods()
	q := NewLoadQueue(nil)

	kept, err := NewClusterSplitter(sixStops(), seeded()).SplitToFit(5, q, work)
	require.NoError(t, err)
	assert.Len(t, kept, 5)
	assert.True(t, q.Empty())
}

func TestSplitToFitNeverSplitsCoDelivery(t *testing.T) {
	work := twoNeighbourhoods()
	work[0].Note = domain.MustShipWith{Parcels: []domain.ParcelID{2}}

	_, err := NewClusterSplitter(sixStops(), seeded()).SplitToFit(3, NewLoadQueue(nil), work)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestSplitToFitWithoutRoom(t *testing.T) {
	_, err := NewClusterSplitter(sixStops(), seeded()).SplitToFit(0, NewLoadQueue(nil), twoNeighbourhoods())
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestPartitionSingleAddressHalves(t *testing.T) {
	work := []*domain.Parcel{
		parcelAt(1, "A", domain.EndOfDay, nil),
		parcelAt(2, "A", domain.EndOfDay, nil),
		parcelAt(3, "A", domain.EndOfDay, nil),
	}

	clusters, err := NewClusterSplitter(sixStops(), seeded()).Partition(work)
	require.NoError(t, err)
	assert.Equal(t, []domain.ParcelID{1, 2}, ids(clusters[0]))
	assert.Equal(t, []domain.ParcelID{3}, ids(clusters[1]))
}
