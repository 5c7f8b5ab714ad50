package services

import (
	"fmt"
	"math/rand/v2"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"slices"
)

const defaultMaxClusterIterations = 100

// ClusterSplitter breaks a parcel set that does not fit on a vehicle into
// two geographically coherent halves.
type ClusterSplitter struct {
	Dist          ports.DistanceProvider
	Rand          *rand.Rand
	MaxIterations int
}

func NewClusterSplitter(dist ports.DistanceProvider, rng *rand.Rand) *ClusterSplitter {
	return &ClusterSplitter{Dist: dist, Rand: rng, MaxIterations: defaultMaxClusterIterations}
}

// Partition runs 2-medoids clustering over the parcel addresses.
//
// Seeds are two parcels with distinct addresses picked at random. Each parcel
// joins the nearer medoid (the first on ties), then each cluster's medoid
// becomes the member address with the smallest total distance to the rest of
// the cluster. This repeats until the medoids stop changing. Clusters are
// returned largest first. Sets with fewer than two distinct addresses, or
// that collapse into a single cluster, are halved in input order.
func (s *ClusterSplitter) Partition(parcels []*domain.Parcel) ([2][]*domain.Parcel, error) {
	var out [2][]*domain.Parcel

	addrs := uniqueStreets(parcels)
	if len(addrs) < 2 {
		return halve(parcels), nil
	}

	perm := s.Rand.Perm(len(addrs))
	medoids := [2]string{addrs[perm[0]], addrs[perm[1]]}

	iterations := s.MaxIterations
	if iterations <= 0 {
		iterations = defaultMaxClusterIterations
	}

	for it := 0; it < iterations; it++ {
		out = [2][]*domain.Parcel{}
		for _, p := range parcels {
			d0, err := s.Dist.Distance(p.Address.Street, medoids[0])
			if err != nil {
				return out, fmt.Errorf("partition: %w", err)
			}
			d1, err := s.Dist.Distance(p.Address.Street, medoids[1])
			if err != nil {
				return out, fmt.Errorf("partition: %w", err)
			}
			if d1 < d0 {
				out[1] = append(out[1], p)
			} else {
				out[0] = append(out[0], p)
			}
		}

		next := medoids
		for k := range out {
			if len(out[k]) == 0 {
				continue
			}
			m, err := s.medoid(out[k])
			if err != nil {
				return out, err
			}
			next[k] = m
		}

		if next == medoids {
			break
		}
		medoids = next
	}

	if len(out[0]) == 0 || len(out[1]) == 0 {
		return halve(parcels), nil
	}

	if len(out[1]) > len(out[0]) {
		out[0], out[1] = out[1], out[0]
	}
	return out, nil
}

func (s *ClusterSplitter) medoid(cluster []*domain.Parcel) (string, error) {
	best := ""
	bestSum := 0.0
	for _, candidate := range uniqueStreets(cluster) {
		sum := 0.0
		for _, p := range cluster {
			d, err := s.Dist.Distance(candidate, p.Address.Street)
			if err != nil {
				return "", fmt.Errorf("partition: medoid: %w", err)
			}
			sum += d
		}
		if best == "" || sum < bestSum {
			best, bestSum = candidate, sum
		}
	}
	return best, nil
}

// SplitToFit shrinks work until it fits in capacity free slots. Each round
// keeps the cluster that fits (the larger one when both do) and moves the
// other to the parcels returned to the queue; when neither fits it keeps the
// larger and splits again. Returned parcels are re-queued at the front.
// Sets carrying a co-delivery note are never split.
func (s *ClusterSplitter) SplitToFit(capacity int, queue *LoadQueue, work []*domain.Parcel) ([]*domain.Parcel, error) {
	if len(work) <= capacity {
		return work, nil
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("split to fit: no free capacity for %d parcels: %w", len(work), domain.ErrInfeasible)
	}
	if hasCoDelivery(work) {
		return nil, fmt.Errorf("split to fit: %d co-delivered parcels exceed capacity %d: %w", len(work), capacity, domain.ErrInfeasible)
	}

	var returned []*domain.Parcel
	for capacity < len(work) {
		clusters, err := s.Partition(work)
		if err != nil {
			return nil, fmt.Errorf("split to fit: %w", err)
		}

		switch {
		case capacity >= len(clusters[0]):
			work = clusters[0]
			returned = append(returned, clusters[1]...)
		case capacity >= len(clusters[1]):
			work = clusters[1]
			returned = append(returned, clusters[0]...)
		default:
			work = clusters[0]
			returned = append(returned, clusters[1]...)
		}
	}

	queue.PushFront(returned)
	return work, nil
}

func hasCoDelivery(parcels []*domain.Parcel) bool {
	return slices.ContainsFunc(parcels, (*domain.Parcel).HasCoDeliveryNote)
}

func uniqueStreets(parcels []*domain.Parcel) []string {
	seen := make(map[string]struct{}, len(parcels))
	out := make([]string, 0, len(parcels))
	for _, p := range parcels {
		if _, ok := seen[p.Address.Street]; ok {
			continue
		}
		seen[p.Address.Street] = struct{}{}
		out = append(out, p.Address.Street)
	}
	return out
}

func halve(parcels []*domain.Parcel) [2][]*domain.Parcel {
	mid := (len(parcels) + 1) / 2
	return [2][]*domain.Parcel{slices.Clone(parcels[:mid]), slices.Clone(parcels[mid:])}
}
