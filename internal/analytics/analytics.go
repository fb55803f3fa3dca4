// Package analytics serves the precomputed delivery analytics snapshot. The
// numbers are produced out of band by the reporting pipeline and dropped as a
// YAML file; this package loads the file, watches it for changes, and hands
// out the latest snapshot. No computation happens here.
package analytics

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// DelayBreakdown splits observed delivery delay across pipeline stages, as
// percentages.
type DelayBreakdown struct {
	Embossing    float64 `yaml:"embossing" json:"embossing"`
	QualityCheck float64 `yaml:"quality_check" json:"qualityCheck"`
	Dispatch     float64 `yaml:"dispatch" json:"dispatch"`
	Transit      float64 `yaml:"transit" json:"transit"`
	Delivery     float64 `yaml:"delivery" json:"delivery"`
}

// Snapshot is one precomputed analytics report.
type Snapshot struct {
	TotalCards            int            `yaml:"total_cards" json:"totalCards"`
	CardsInTransit        int            `yaml:"cards_in_transit" json:"cardsInTransit"`
	CardsDelivered        int            `yaml:"cards_delivered" json:"cardsDelivered"`
	CardsWithIssues       int            `yaml:"cards_with_issues" json:"cardsWithIssues"`
	AverageDaysToDelivery float64        `yaml:"average_days_to_delivery" json:"averageTimeToDelivery"`
	DelayBreakdown        DelayBreakdown `yaml:"delay_breakdown" json:"delayBreakdown"`
}

// Loader reads a YAML snapshot file and watches it for changes.
type Loader struct {
	path    string
	mu      sync.RWMutex
	current Snapshot
	watcher *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	snap, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = snap
	return l, nil
}

// Current returns the latest snapshot.
func (l *Loader) Current() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch starts a background goroutine that hot-reloads the snapshot on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("analytics watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("analytics watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					snap, err := l.load()
					if err != nil {
						// Keep serving the old snapshot.
						continue
					}
					l.mu.Lock()
					l.current = snap
					l.mu.Unlock()
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the snapshot file.
func (l *Loader) Reload() (Snapshot, error) {
	snap, err := l.load()
	if err != nil {
		return Snapshot{}, err
	}
	l.mu.Lock()
	l.current = snap
	l.mu.Unlock()
	return snap, nil
}

func (l *Loader) load() (Snapshot, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read analytics %s: %w", l.path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse analytics %s: %w", l.path, err)
	}
	return snap, nil
}
