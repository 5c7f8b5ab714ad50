package distance

import (
	"fmt"
	"parcel-dispatch-service/internal/domain"
)

type MockPair struct {
	From, To string
	Miles    float64
}

// MockDistanceProvider answers distances from a fixed list of symmetric pairs.
// An address is known once it appears in any pair; the distance from a known
// address to itself is zero.
type MockDistanceProvider struct {
	m     map[string]float64
	known map[string]struct{}
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	p := &MockDistanceProvider{
		m:     make(map[string]float64, 2*len(pairs)),
		known: make(map[string]struct{}),
	}
	for _, pair := range pairs {
		p.m[pair.From+"|"+pair.To] = pair.Miles
		p.m[pair.To+"|"+pair.From] = pair.Miles
		p.known[pair.From] = struct{}{}
		p.known[pair.To] = struct{}{}
	}
	return p
}

func (p *MockDistanceProvider) Distance(origin, destination string) (float64, error) {
	if _, ok := p.known[origin]; !ok {
		return 0, fmt.Errorf("mock distance: %q: %w", origin, domain.ErrUnknownAddress)
	}
	if _, ok := p.known[destination]; !ok {
		return 0, fmt.Errorf("mock distance: %q: %w", destination, domain.ErrUnknownAddress)
	}
	if origin == destination {
		return 0, nil
	}

	d, ok := p.m[origin+"|"+destination]
	if !ok {
		return 0, fmt.Errorf("mock distance: missing pair %q -> %q: %w", origin, destination, domain.ErrUnknownAddress)
	}
	return d, nil
}
