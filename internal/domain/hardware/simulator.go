// Package hardware simulates an interrupt-raising camera device.
//
// Each capture produces an Artifact, keeps it in a bounded log, raises
// IRQ_IMAGE_CAPTURED to the camera driver over the bus and records an event.
package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/task"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/ring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

const (
	// Source is the bus address of the camera device
	Source = "hardware_camera"
	// Driver is the bus address interrupts are delivered to
	Driver = "driver_camera"
	// MsgImageCaptured is the interrupt raised for each capture
	MsgImageCaptured = "IRQ_IMAGE_CAPTURED"
)

// Bus sends interrupt messages
type Bus interface {
	Send(source, destination, msgType string, payload any) types.IPCMessage
}

// EventLog records operator events
type EventLog interface {
	LogEvent(message string, severity types.Severity) types.Event
}

// Config holds capture cadence and retention
type Config struct {
	Interval time.Duration
	Warmup   time.Duration
	Capacity int
}

// DefaultConfig returns the standard camera settings
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Second,
		Warmup:   5 * time.Second,
		Capacity: 10,
	}
}

// Frame describes one catalog image
type Frame struct {
	Label       string
	Description string
	URL         string
}

// Catalog is cycled through in order, one frame per capture
var Catalog = []Frame{
	{"Active Nucleus", "Central region with intense activity - H2O, CH4 detected", "/images/active-nucleus.png"},
	{"Expanding Coma", "Gas and dust cloud around the nucleus - active jets", "/images/expanding-coma.png"},
	{"Gas Jet", "Sublimated gas jet emission - velocity 800 m/s", "/images/gas-jet.png"},
	{"Infrared Spectrum", "Thermal analysis of the comet - NH3 detected", "/images/infrared-spectrum.png"},
	{"Interstellar Nucleus and Coma", "Full view of the interstellar object - organic molecules", "/images/interstellar-nucleus-coma.png"},
}

// Simulator periodically captures artifacts
type Simulator struct {
	cfg       Config
	bus       Bus
	events    EventLog
	artifacts *ring.Log[types.Artifact]
	now       func() time.Time
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu      sync.Mutex
	seq     int
	handles []*task.Handle
}

// NewSimulator creates a camera simulator
func NewSimulator(cfg Config, bus Bus, events EventLog, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		cfg:       cfg,
		bus:       bus,
		events:    events,
		artifacts: ring.New[types.Artifact](cfg.Capacity),
		now:       time.Now,
		logger:    logger,
	}
}

// WithMetrics adds metrics tracking to the simulator
func (s *Simulator) WithMetrics(metrics *monitoring.Metrics) *Simulator {
	s.metrics = metrics
	return s
}

// Start schedules the warm-up capture and the periodic captures
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handles != nil {
		return
	}
	s.handles = []*task.Handle{
		task.After(ctx, s.cfg.Warmup, func() { s.Capture() }),
		task.Every(ctx, s.cfg.Interval, func() { s.Capture() }),
	}
	s.events.LogEvent("Hardware started - camera active", types.SeveritySuccess)
}

// Stop cancels all pending captures
func (s *Simulator) Stop() {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}

// Capture takes one image and raises its interrupt
func (s *Simulator) Capture() types.Artifact {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	frame := Catalog[(seq-1)%len(Catalog)]
	artifactID := fmt.Sprintf("3I_ATLAS_%03d", seq)
	artifact := types.Artifact{
		ID:          artifactID,
		Filename:    artifactID + ".png",
		Timestamp:   s.now(),
		Description: frame.Description,
		Label:       frame.Label,
		URL:         frame.URL,
	}

	s.artifacts.Append(artifact)
	s.metrics.IncArtifact()

	s.logger.Debug("Image captured",
		zap.String("id", artifact.ID),
		zap.String("label", artifact.Label),
	)

	s.bus.Send(Source, Driver, MsgImageCaptured, types.IRQPayload{Artifact: artifact})
	s.events.LogEvent(fmt.Sprintf("Image captured: %s", artifact.Label), types.SeverityInfo)

	return artifact
}

// RecentArtifacts returns up to limit of the newest artifacts, oldest first
func (s *Simulator) RecentArtifacts(limit int) []types.Artifact {
	return s.artifacts.Recent(limit)
}
