package memory

import (
	"time"

	"github.com/jhoicas/commerce-core/internal/application/ports"
)

var _ ports.Settings = (*Settings)(nil)

// Settings configuración estática para tests y modo sin Viper.
type Settings struct {
	Backorders     bool
	LowStock       int64
	TTL            time.Duration
	AbandonWindow  time.Duration
	ExpiryWindow   time.Duration
	Retention      time.Duration
	SweepEvery     time.Duration
	SweepScheduled bool
}

// DefaultSettings valores razonables para tests.
func DefaultSettings() *Settings {
	return &Settings{
		Backorders:    false,
		LowStock:      5,
		TTL:           30 * time.Minute,
		AbandonWindow: 24 * time.Hour,
		ExpiryWindow:  72 * time.Hour,
		Retention:     30 * 24 * time.Hour,
		SweepEvery:    5 * time.Minute,
	}
}

func (s *Settings) BackordersAllowed() bool          { return s.Backorders }
func (s *Settings) LowStockThreshold() int64         { return s.LowStock }
func (s *Settings) ReservationTTL() time.Duration    { return s.TTL }
func (s *Settings) CartAbandonWindow() time.Duration { return s.AbandonWindow }
func (s *Settings) CartExpiryWindow() time.Duration  { return s.ExpiryWindow }
func (s *Settings) CartRetention() time.Duration     { return s.Retention }
func (s *Settings) SweepInterval() time.Duration     { return s.SweepEvery }
func (s *Settings) AutoSweep() bool                  { return s.SweepScheduled }
