package services

import (
	"cmp"
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"slices"
)

// Number of load-order priority levels (0 through 5).
const PriorityLevels = 6

const (
	priorityDeadlineDelayed = iota
	priorityDeadline
	priorityPlain
	priorityDelayed
	priorityLeftover
	priorityLeftoverNoted
)

// WorkList is the ordered set of parcels the resolver has taken ownership of.
type WorkList struct {
	parcels []*domain.Parcel
	ids     map[domain.ParcelID]struct{}
}

func NewWorkList() *WorkList {
	return &WorkList{ids: make(map[domain.ParcelID]struct{})}
}

// Add appends a parcel. Adding a parcel twice is a programming error.
func (w *WorkList) Add(p *domain.Parcel) error {
	if _, ok := w.ids[p.ID]; ok {
		return fmt.Errorf("work list: parcel %d: %w", p.ID, domain.ErrDuplicateAssignment)
	}
	w.ids[p.ID] = struct{}{}
	w.parcels = append(w.parcels, p)
	return nil
}

func (w *WorkList) Contains(id domain.ParcelID) bool {
	_, ok := w.ids[id]
	return ok
}

func (w *WorkList) Parcels() []*domain.Parcel { return w.parcels }

func (w *WorkList) Len() int { return len(w.parcels) }

// ConstraintResolver turns raw parcel notes into priorities, vehicle pins
// and co-delivery groups, and orders the result for loading.
type ConstraintResolver struct {
	Repo     ports.ParcelRepository
	Reporter ports.Reporter
	// Split delayed parcels that carry deadlines into groups whose
	// delay and deadline windows are mutually satisfiable.
	GroupDelayedWithDeadline bool
}

func NewConstraintResolver(repo ports.ParcelRepository, reporter ports.Reporter) *ConstraintResolver {
	if reporter == nil {
		reporter = ports.NopReporter{}
	}
	return &ConstraintResolver{Repo: repo, Reporter: reporter, GroupDelayedWithDeadline: true}
}

// Resolve runs every resolution step in order and returns the load queue.
func (r *ConstraintResolver) Resolve(fleet *domain.Fleet) (*LoadQueue, error) {
	r.Reporter.Progress("Merging parcels that share an address...")
	r.MergeAddresses()

	work, err := r.ConstraintSet()
	if err != nil {
		return nil, fmt.Errorf("resolve constraints: %w", err)
	}
	r.Reporter.Info("Constraint set holds %d parcels", work.Len())

	AssignPriorities(work.Parcels())
	ApplyVehiclePins(work.Parcels())

	if r.GroupDelayedWithDeadline {
		r.Reporter.Progress("Grouping delayed parcels with deadlines...")
		if err := r.GroupDelayed(work.Parcels()); err != nil {
			return nil, fmt.Errorf("resolve constraints: %w", err)
		}
	}

	if err := AssignDelayedWithoutDeadline(work.Parcels(), fleet); err != nil {
		return nil, fmt.Errorf("resolve constraints: %w", err)
	}

	r.Reporter.Progress("Merging co-delivery groups...")
	if err := r.MergeCoDeliveryGroups(work); err != nil {
		return nil, fmt.Errorf("resolve constraints: %w", err)
	}

	if err := r.AddLeftovers(work); err != nil {
		return nil, fmt.Errorf("resolve constraints: %w", err)
	}

	buckets, err := GroupAndSort(work.Parcels())
	if err != nil {
		return nil, fmt.Errorf("resolve constraints: %w", err)
	}
	return NewLoadQueue(buckets[:]), nil
}

// MergeAddresses aligns parcels bound for the same street. A constraint note
// is copied onto a bare parcel; two bare parcels are linked as a co-delivery
// pair. Either way both deadlines become the earlier one. Address
// corrections are never copied or compared.
func (r *ConstraintResolver) MergeAddresses() {
	parcels := r.Repo.All()
	for _, a := range parcels {
		for _, b := range parcels {
			if a.ID == b.ID || a.Address.Street != b.Address.Street {
				continue
			}

			earliest := domain.MinClock(a.Deadline, b.Deadline)
			switch {
			case a.HasConstraintNote() && b.Note == nil:
				b.Note = domain.CloneNote(a.Note)
				a.Deadline, b.Deadline = earliest, earliest
			case a.Note == nil && b.Note == nil:
				a.Note = domain.MustShipWith{Parcels: []domain.ParcelID{b.ID}}
				b.Note = domain.MustShipWith{Parcels: []domain.ParcelID{a.ID}}
				a.Deadline, b.Deadline = earliest, earliest
			}
		}
	}
}

// ConstraintSet collects parcels with a constraint note or a real deadline.
// A repository that hands out the same id twice is rejected.
func (r *ConstraintResolver) ConstraintSet() (*WorkList, error) {
	w := NewWorkList()
	for _, p := range r.Repo.All() {
		if p.HasConstraintNote() || p.HasDeadline() {
			if err := w.Add(p); err != nil {
				return nil, fmt.Errorf("constraint set: %w", err)
			}
		}
	}
	return w, nil
}

// AssignPriorities ranks parcels by deadline and delayed availability.
func AssignPriorities(parcels []*domain.Parcel) {
	for _, p := range parcels {
		var prio int
		switch {
		case p.HasDeadline() && p.IsDelayed():
			prio = priorityDeadlineDelayed
		case p.HasDeadline():
			prio = priorityDeadline
		case !p.IsDelayed():
			prio = priorityPlain
		default:
			prio = priorityDelayed
		}
		p.Priority = &prio
	}
}

// ApplyVehiclePins assigns pinned parcels to their vehicle index.
func ApplyVehiclePins(parcels []*domain.Parcel) {
	for _, p := range parcels {
		if pin, ok := p.Note.(domain.PinnedToVehicle); ok {
			v := pin.Vehicle
			p.Vehicle = &v
		}
	}
}

// AssignDelayedWithoutDeadline sends delayed parcels without a deadline to
// the first vehicle that has no driver, else to the last vehicle.
func AssignDelayedWithoutDeadline(parcels []*domain.Parcel, fleet *domain.Fleet) error {
	if fleet == nil || fleet.Len() == 0 {
		return fmt.Errorf("assign delayed parcels: %w", domain.ErrEmptyFleet)
	}

	target := fleet.Vehicles[fleet.Len()-1]
	for _, v := range fleet.Vehicles {
		if !v.HasDriver() {
			target = v
			break
		}
	}

	for _, p := range parcels {
		if p.IsDelayed() && !p.HasDeadline() {
			id := target.ID
			p.Vehicle = &id
		}
	}
	return nil
}

// GroupDelayed clusters unassigned delayed parcels with deadlines so that
// in every group the latest delay is no later than the earliest deadline.
// Parcels are placed greedily in (delay, deadline, id) order into the first
// group they keep satisfiable. New group ids start after the highest id in
// the repository. Parcels already grouped or pinned are left alone.
func (r *ConstraintResolver) GroupDelayed(parcels []*domain.Parcel) error {
	var candidates []*domain.Parcel
	for _, p := range parcels {
		if p.PriorityOr(-1) != priorityDeadlineDelayed || p.Vehicle != nil || p.Group != nil {
			continue
		}
		until, _ := p.DelayedUntil()
		if until > p.Deadline {
			return fmt.Errorf("group delayed parcels: parcel %d arrives at %s after its %s deadline: %w",
				p.ID, until, p.Deadline, domain.ErrValidation)
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil
	}

	slices.SortStableFunc(candidates, func(a, b *domain.Parcel) int {
		ua, _ := a.DelayedUntil()
		ub, _ := b.DelayedUntil()
		return cmp.Or(cmp.Compare(ua, ub), cmp.Compare(a.Deadline, b.Deadline), cmp.Compare(a.ID, b.ID))
	})

	type window struct {
		latestDelay domain.Clock
		earliestDue domain.Clock
		members     []*domain.Parcel
	}
	var windows []*window

	for _, p := range candidates {
		until, _ := p.DelayedUntil()
		placed := false
		for _, w := range windows {
			if domain.MaxClock(w.latestDelay, until) <= domain.MinClock(w.earliestDue, p.Deadline) {
				w.latestDelay = domain.MaxClock(w.latestDelay, until)
				w.earliestDue = domain.MinClock(w.earliestDue, p.Deadline)
				w.members = append(w.members, p)
				placed = true
				break
			}
		}
		if !placed {
			windows = append(windows, &window{latestDelay: until, earliestDue: p.Deadline, members: []*domain.Parcel{p}})
		}
	}

	next := r.nextGroupID()
	for _, w := range windows {
		for _, p := range w.members {
			g := next
			p.Group = &g
		}
		r.Reporter.Info("Delayed group %d: %d parcels, departs %s, first due %s", next, len(w.members), w.latestDelay, w.earliestDue)
		next++
	}
	return nil
}

// MergeCoDeliveryGroups unions every must-ship-with set into disjoint
// groups, pulls referenced parcels into the work list, and gives every
// member the group's lowest priority. Members without a priority count as
// leftovers (4).
func (r *ConstraintResolver) MergeCoDeliveryGroups(work *WorkList) error {
	uf := newUnionFind()
	for _, p := range work.Parcels() {
		w, ok := p.Note.(domain.MustShipWith)
		if !ok {
			continue
		}
		uf.add(p.ID)
		for _, id := range w.Parcels {
			uf.union(p.ID, id)
		}
	}

	sets := uf.sets()
	if len(sets) == 0 {
		return nil
	}

	next := r.nextGroupID()
	for _, ids := range sets {
		members := make([]*domain.Parcel, 0, len(ids))
		for _, id := range ids {
			p, ok := r.Repo.Search(id)
			if !ok {
				return fmt.Errorf("merge co-delivery groups: parcel %d: %w", id, domain.ErrUnknownParcel)
			}
			if !work.Contains(id) {
				if err := work.Add(p); err != nil {
					return fmt.Errorf("merge co-delivery groups: %w", err)
				}
			}
			members = append(members, p)
		}

		minPriority := priorityLeftover
		for _, p := range members {
			minPriority = min(minPriority, p.PriorityOr(priorityLeftover))
		}

		for _, p := range members {
			g, prio := next, minPriority
			p.Group = &g
			p.Priority = &prio
		}
		r.Reporter.Info("Co-delivery group %d: %v at priority %d", next, ids, minPriority)
		next++
	}
	return nil
}

// AddLeftovers appends every parcel not yet in the work list with priority 4,
// or 5 when it carries a note.
func (r *ConstraintResolver) AddLeftovers(work *WorkList) error {
	for _, p := range r.Repo.All() {
		if work.Contains(p.ID) {
			continue
		}
		prio := priorityLeftover
		if p.Note != nil {
			prio = priorityLeftoverNoted
		}
		p.Priority = &prio
		if err := work.Add(p); err != nil {
			return fmt.Errorf("add leftover parcels: %w", err)
		}
	}
	return nil
}

// GroupAndSort buckets parcels by priority. Within a bucket, parcels of
// larger groups come first, then lower group ids, then ungrouped parcels in
// their original order.
func GroupAndSort(parcels []*domain.Parcel) ([PriorityLevels][]*domain.Parcel, error) {
	var buckets [PriorityLevels][]*domain.Parcel
	for _, p := range parcels {
		prio := p.PriorityOr(-1)
		if prio < 0 || prio >= PriorityLevels {
			return buckets, fmt.Errorf("group and sort: parcel %d has priority %d: %w", p.ID, prio, domain.ErrValidation)
		}
		buckets[prio] = append(buckets[prio], p)
	}

	for _, bucket := range buckets {
		freq := make(map[int]int)
		for _, p := range bucket {
			if p.Group != nil {
				freq[*p.Group]++
			}
		}

		slices.SortStableFunc(bucket, func(a, b *domain.Parcel) int {
			if c := cmp.Compare(groupFrequency(freq, b), groupFrequency(freq, a)); c != 0 {
				return c
			}
			switch {
			case a.Group == nil && b.Group == nil:
				return 0
			case a.Group == nil:
				return 1
			case b.Group == nil:
				return -1
			}
			return cmp.Compare(*a.Group, *b.Group)
		})
	}
	return buckets, nil
}

func groupFrequency(freq map[int]int, p *domain.Parcel) int {
	if p.Group == nil {
		return 0
	}
	return freq[*p.Group]
}

func (r *ConstraintResolver) nextGroupID() int {
	next := 0
	for _, p := range r.Repo.All() {
		if p.Group != nil && *p.Group >= next {
			next = *p.Group + 1
		}
	}
	return next
}
