package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFlockFormed       BookmarkType = "flock_formed"
	BookmarkFlockScattered    BookmarkType = "flock_scattered"
	BookmarkContainmentBreach BookmarkType = "containment_breach"
	BookmarkStableFlock       BookmarkType = "stable_flock"
	BookmarkPopulationStopped BookmarkType = "population_stopped"
)

// Bookmark thresholds.
const (
	formedPolarization    = 0.8 // polarization that counts as an aligned flock
	scatterSpreadFactor   = 2.0 // spread above this multiple of the rolling mean
	stableCVSquared       = 0.01
	stableWindowsRequired = 5
	minBookmarkHistory    = 5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Population  string       `json:"population"`
	Tick        int32        `json:"tick"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"population", b.Population,
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in one population's windows.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	wasAligned         bool
	wasBreached        bool
	stopped            bool
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < minBookmarkHistory {
		historySize = minBookmarkHistory
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	if bd.stopped {
		return nil
	}
	if !stats.Active {
		bd.stopped = true
		return []Bookmark{{
			Type:        BookmarkPopulationStopped,
			Population:  stats.Population,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population stopped after %d dispatch failures in window", stats.DispatchFailures),
		}}
	}

	var bookmarks []Bookmark
	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkFlockFormed,
		bd.checkFlockScattered,
		bd.checkContainmentBreach,
		bd.checkStableFlock,
	} {
		if b := check(stats); b != nil {
			b.Population = stats.Population
			b.Tick = stats.WindowEndTick
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the stored windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

// checkFlockFormed fires when polarization first rises above the aligned
// threshold, and again after each time it drops back below.
func (bd *BookmarkDetector) checkFlockFormed(stats WindowStats) *Bookmark {
	aligned := stats.Polarization >= formedPolarization
	defer func() { bd.wasAligned = aligned }()

	if !aligned || bd.wasAligned || len(bd.getHistory()) == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFlockFormed,
		Description: fmt.Sprintf("Polarization reached %.2f", stats.Polarization),
	}
}

func (bd *BookmarkDetector) checkFlockScattered(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	spreads := make([]float64, len(history))
	for i, h := range history {
		spreads[i] = h.Spread
	}
	avg := stat.Mean(spreads, nil)
	if avg == 0 {
		return nil
	}

	if stats.Spread > avg*scatterSpreadFactor {
		return &Bookmark{
			Type:        BookmarkFlockScattered,
			Description: fmt.Sprintf("Spread %.1f is %.1fx average (%.1f)", stats.Spread, stats.Spread/avg, avg),
		}
	}
	return nil
}

// checkContainmentBreach fires on the first window with agents outside the
// legal region or inside the avoided centre, and again after a clean window.
func (bd *BookmarkDetector) checkContainmentBreach(stats WindowStats) *Bookmark {
	breached := stats.OutOfBounds > 0 || stats.InCenter > 0
	defer func() { bd.wasBreached = breached }()

	if !breached || bd.wasBreached {
		return nil
	}
	return &Bookmark{
		Type: BookmarkContainmentBreach,
		Description: fmt.Sprintf("%d agents out of bounds, %d in centre of %d",
			stats.OutOfBounds, stats.InCenter, stats.Count),
	}
}

func (bd *BookmarkDetector) checkStableFlock(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Recent windows including this one
	recent := append(history[len(history)-3:len(history):len(history)], stats)
	spreads := make([]float64, len(recent))
	pols := make([]float64, len(recent))
	for i, h := range recent {
		spreads[i] = h.Spread
		pols[i] = h.Polarization
	}

	if cvSquared(spreads) < stableCVSquared && cvSquared(pols) < stableCVSquared {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == stableWindowsRequired { // trigger exactly once per stable run
		return &Bookmark{
			Type: BookmarkStableFlock,
			Description: fmt.Sprintf("Stable flock with polarization %.2f and spread %.1f over %d windows",
				stats.Polarization, stats.Spread, stableWindowsRequired),
		}
	}
	return nil
}

// cvSquared returns the squared coefficient of variation.
func cvSquared(x []float64) float64 {
	mean, variance := stat.PopMeanVariance(x, nil)
	if mean == 0 {
		return 0
	}
	return variance / (mean * mean)
}
