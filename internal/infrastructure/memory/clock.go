package memory

import (
	"sync"
	"time"

	"github.com/jhoicas/commerce-core/internal/application/ports"
)

var _ ports.Clock = (*Clock)(nil)

// Clock reloj controlable para tests y simulaciones.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock construye el reloj anclado en start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance mueve el reloj hacia adelante.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set fija el reloj en t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
