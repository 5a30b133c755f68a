// Package pool rotates turns across equivalent model backends.
package pool

import (
	"sync/atomic"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

// Pool is a fixed, ordered set of backends consumed round-robin. Backends
// are never removed; failures are handled by the caller.
type Pool struct {
	backends []domain.ModelBackend
	cursor   atomic.Uint64
}

// New returns domain.ErrPoolEmpty when no backend is given. Callers should
// treat that as a configuration error.
func New(backends ...domain.ModelBackend) (*Pool, error) {
	if len(backends) == 0 {
		return nil, domain.ErrPoolEmpty
	}

	list := make([]domain.ModelBackend, len(backends))
	copy(list, backends)
	return &Pool{backends: list}, nil
}

// Next returns the next backend in rotation. Safe for concurrent use.
func (p *Pool) Next() domain.ModelBackend {
	n := p.cursor.Add(1) - 1
	return p.backends[n%uint64(len(p.backends))]
}

func (p *Pool) Len() int {
	return len(p.backends)
}

// Names lists backend names in rotation order.
func (p *Pool) Names() []string {
	out := make([]string, 0, len(p.backends))
	for _, b := range p.backends {
		out = append(out, b.Name())
	}
	return out
}
