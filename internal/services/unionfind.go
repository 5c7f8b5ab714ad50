package services

import (
	"parcel-dispatch-service/internal/domain"
	"slices"
)

// Disjoint-set forest over parcel ids with path compression and union by size.
type unionFind struct {
	parent map[domain.ParcelID]domain.ParcelID
	size   map[domain.ParcelID]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[domain.ParcelID]domain.ParcelID),
		size:   make(map[domain.ParcelID]int),
	}
}

func (u *unionFind) add(id domain.ParcelID) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
		u.size[id] = 1
	}
}

func (u *unionFind) find(id domain.ParcelID) domain.ParcelID {
	u.add(id)
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for id != root {
		next := u.parent[id]
		u.parent[id] = root
		id = next
	}
	return root
}

func (u *unionFind) union(a, b domain.ParcelID) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

// sets returns the disjoint sets, each sorted by id, ordered by smallest member.
func (u *unionFind) sets() [][]domain.ParcelID {
	byRoot := make(map[domain.ParcelID][]domain.ParcelID)
	for id := range u.parent {
		r := u.find(id)
		byRoot[r] = append(byRoot[r], id)
	}

	out := make([][]domain.ParcelID, 0, len(byRoot))
	for _, members := range byRoot {
		slices.Sort(members)
		out = append(out, members)
	}
	slices.SortFunc(out, func(a, b []domain.ParcelID) int { return int(a[0] - b[0]) })
	return out
}
