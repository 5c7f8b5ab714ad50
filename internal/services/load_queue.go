package services

import (
	"parcel-dispatch-service/internal/domain"
	"slices"
)

// LoadQueue holds the parcels still waiting for a vehicle as an ordered list
// of buckets. Work is always taken from the front bucket.
type LoadQueue struct {
	buckets [][]*domain.Parcel
}

func NewLoadQueue(buckets [][]*domain.Parcel) *LoadQueue {
	q := &LoadQueue{}
	for _, b := range buckets {
		if len(b) > 0 {
			q.buckets = append(q.buckets, slices.Clone(b))
		}
	}
	return q
}

func (q *LoadQueue) Empty() bool { return len(q.buckets) == 0 }

// Len counts pending parcels across all buckets.
func (q *LoadQueue) Len() int {
	n := 0
	for _, b := range q.buckets {
		n += len(b)
	}
	return n
}

// Pending returns every pending parcel in queue order.
func (q *LoadQueue) Pending() []*domain.Parcel {
	out := make([]*domain.Parcel, 0, q.Len())
	for _, b := range q.buckets {
		out = append(out, b...)
	}
	return out
}

// Next pops the next unit of work. When the front parcel belongs to a group
// or has priority 0, every parcel of the front bucket sharing its group and
// priority is taken together; otherwise the front parcel is taken alone.
func (q *LoadQueue) Next() []*domain.Parcel {
	if q.Empty() {
		return nil
	}

	front := q.buckets[0]
	zero := front[0]
	priority := zero.PriorityOr(-1)

	var work []*domain.Parcel
	if zero.Group != nil || priority == 0 {
		rest := front[:0:0]
		for _, p := range front {
			if sameGroup(p.Group, zero.Group) && p.PriorityOr(-1) == priority {
				work = append(work, p)
			} else {
				rest = append(rest, p)
			}
		}
		q.buckets[0] = rest
	} else {
		work = []*domain.Parcel{zero}
		q.buckets[0] = front[1:]
	}

	q.compact()
	return work
}

// PushFront re-queues parcels ahead of everything else.
func (q *LoadQueue) PushFront(parcels []*domain.Parcel) {
	if len(parcels) == 0 {
		return
	}
	q.buckets = append([][]*domain.Parcel{slices.Clone(parcels)}, q.buckets...)
}

// Remove drops a parcel from whichever bucket holds it.
func (q *LoadQueue) Remove(p *domain.Parcel) bool {
	for i, b := range q.buckets {
		if j := slices.Index(b, p); j >= 0 {
			q.buckets[i] = slices.Delete(b, j, j+1)
			q.compact()
			return true
		}
	}
	return false
}

// HasDeadline reports whether any pending parcel carries a real deadline.
func (q *LoadQueue) HasDeadline() bool {
	for _, b := range q.buckets {
		for _, p := range b {
			if p.HasDeadline() {
				return true
			}
		}
	}
	return false
}

func (q *LoadQueue) compact() {
	q.buckets = slices.DeleteFunc(q.buckets, func(b []*domain.Parcel) bool { return len(b) == 0 })
}

func sameGroup(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
