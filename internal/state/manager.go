package state

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sync"
	"time"
)

var defaultMessages = map[IndexingState]string{
	StateStandby: "Ready.",
	StateIndexed: "Index up-to-date.",
	StateError:   "An error occurred.",
}

const (
	graphDegradedSuffix    = " (Graph indexing degraded)"
	graphUnavailableSuffix = " (Graph indexing unavailable)"
)

var graphDegradedPattern = regexp.MustCompile(`\s*\(Graph indexing degraded\)`)

// status holds every tracked field. It is a comparable value so that
// mutators can detect "nothing changed" by comparing before and after.
type status struct {
	system    IndexingState
	message   string
	processed int
	total     int
	unit      string

	vector        VectorStatus
	vectorMessage string
	vectorErr     ErrorContext

	graph          GraphStatus
	graphMessage   string
	graphProcessed int
	graphTotal     int
	graphErr       ErrorContext

	health SystemHealth

	discovery    FileDiscoveryMetrics
	hasDiscovery bool
}

// Detail carries the optional arguments of SetVectorStatus and SetGraphStatus.
// Zero values mean "not supplied".
type Detail struct {
	Message         string
	Err             error
	Category        ErrorCategory
	RetrySuggestion string
}

// GraphUpdate carries the optional arguments of ReportGraphIndexingProgress.
type GraphUpdate struct {
	Status  GraphStatus
	Message string
	Err     error
}

// Manager aggregates indexing progress and backend health.
//
// Every public method applies its mutations, recomputes SystemHealth, and
// then notifies subscribers synchronously with the resulting snapshot, but
// only if something observable changed. Subscribers run after the lock is
// released and may call back into the Manager.
type Manager struct {
	mu          sync.Mutex
	s           status
	subscribers map[int]func(StatusSnapshot)
	nextSubID   int
	disposed    bool

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces the time source used for error timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager in Standby with both backends idle.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		s: status{
			system: StateStandby,
			unit:   UnitBlocks,
			vector: VectorIdle,
			graph:  GraphIdle,
			health: HealthHealthy,
		},
		subscribers: make(map[int]func(StatusSnapshot)),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnProgressUpdate registers fn to receive a snapshot after every change.
// The returned function unsubscribes; it is safe to call more than once.
func (m *Manager) OnProgressUpdate(fn func(StatusSnapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || fn == nil {
		return func() {}
	}

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Dispose releases all subscribers. Later mutations still update state but
// notify nobody.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disposed = true
	m.subscribers = nil
}

// GetCurrentStatus returns the flat snapshot.
func (m *Manager) GetCurrentStatus() StatusSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.snapshot()
}

// GetComponentStatus returns the snapshot nested per backend.
func (m *Manager) GetComponentStatus() ComponentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.s
	return ComponentStatus{
		Vector: VectorComponent{
			Status:         s.vector,
			Message:        s.vectorMessage,
			ProcessedItems: s.processed,
			TotalItems:     s.total,
			Unit:           s.unit,
			Error:          s.vectorErr,
		},
		Graph: GraphComponent{
			Status:         s.graph,
			Message:        s.graphMessage,
			ProcessedItems: s.graphProcessed,
			TotalItems:     s.graphTotal,
			Error:          s.graphErr,
		},
		System: SystemComponent{
			State:   s.system,
			Health:  s.health,
			Message: s.message,
		},
	}
}

// SetSystemState transitions the lifecycle state. An empty message selects
// the state's default message, or keeps the current one if the state has
// none. Nothing happens if neither state nor message changes.
func (m *Manager) SetSystemState(next IndexingState, message string) {
	m.update(func(s *status) bool {
		effective := message
		if effective == "" {
			if def, ok := defaultMessages[next]; ok {
				effective = def
			} else {
				effective = s.message
			}
		}
		if next == s.system && effective == s.message {
			return false
		}

		prev := s.system
		s.system = next
		s.message = effective

		if next != StateIndexing {
			s.processed, s.total = 0, 0
			s.unit = UnitBlocks
			s.graphProcessed, s.graphTotal = 0, 0
		}

		switch next {
		case StateStandby:
			s.setVector(VectorIdle)
			if s.graph != GraphDisabled && s.graph != GraphError {
				s.setGraph(GraphIdle)
			}
		case StateIndexed:
			s.setVector(VectorIndexed)
			if s.graph == GraphIndexing {
				s.setGraph(GraphIndexed)
			}
		case StateError:
			s.setVector(VectorError)
		}

		// A finished scan keeps its funnel visible until the next scan.
		if next != StateIndexing && next != StateIndexed {
			s.discovery = FileDiscoveryMetrics{}
			s.hasDiscovery = false
		}

		m.logger.Debug("index_state_changed",
			slog.String("from", string(prev)),
			slog.String("to", string(next)),
			slog.String("message", effective))
		return true
	})
}

// ReportBlockIndexingProgress records vector progress in block units and
// forces the system into Indexing.
func (m *Manager) ReportBlockIndexingProgress(processed, total int) {
	m.update(func(s *status) bool {
		s.processed, s.total = processed, total
		s.unit = UnitBlocks
		s.system = StateIndexing
		s.setVector(VectorIndexing)
		s.message = s.blockMessage()
		return true
	})
}

// ReportFileQueueProgress records vector progress in file units while files
// are being queued, and forces the system into Indexing.
func (m *Manager) ReportFileQueueProgress(processed, total int, currentFile string) {
	m.update(func(s *status) bool {
		s.processed, s.total = processed, total
		s.unit = UnitFiles
		s.system = StateIndexing
		s.setVector(VectorIndexing)
		if currentFile != "" {
			s.message = fmt.Sprintf("Processing %d / %d files. Current: %s", processed, total, currentFile)
		} else {
			s.message = fmt.Sprintf("Processing %d / %d files.", processed, total)
		}
		return true
	})
}

// ReportFileDiscoveryMetrics replaces the discovery funnel snapshot.
func (m *Manager) ReportFileDiscoveryMetrics(metrics FileDiscoveryMetrics) {
	m.update(func(s *status) bool {
		s.discovery = metrics
		s.hasDiscovery = true
		return true
	})
}

// ReportGraphIndexingProgress records graph progress. It never changes the
// system state; if the system is Indexing while the graph is indexing, the
// status message is rewritten to the combined percentage.
func (m *Manager) ReportGraphIndexingProgress(processed, total int, update GraphUpdate) {
	m.update(func(s *status) bool {
		prev := s.graph
		s.graphProcessed, s.graphTotal = processed, total
		if update.Status != "" {
			s.setGraph(update.Status)
		}
		if update.Message != "" {
			s.graphMessage = update.Message
		}
		if update.Err != nil {
			m.recordGraphError(s, update.Err, "", "", prev != s.graph)
		}
		if s.system == StateIndexing && s.graph == GraphIndexing {
			s.message = s.combinedMessage()
		}
		return true
	})
}

// SetGraphStatus updates graph health out of band, e.g. after a connection
// probe. When an error is supplied while indexing, the status message gets a
// single "(Graph indexing degraded)" suffix.
func (m *Manager) SetGraphStatus(next GraphStatus, d Detail) {
	m.update(func(s *status) bool {
		prev := s.graph
		s.setGraph(next)
		s.graphMessage = d.Message
		if d.Err != nil {
			m.recordGraphError(s, d.Err, d.Category, d.RetrySuggestion, prev != s.graph)
			if s.system == StateIndexing {
				s.message = graphDegradedPattern.ReplaceAllString(s.message, "") + graphDegradedSuffix
			}
		}
		return true
	})
}

// SetVectorStatus updates vector health out of band. For the error status
// without an explicit message, the error text becomes the message.
func (m *Manager) SetVectorStatus(next VectorStatus, d Detail) {
	m.update(func(s *status) bool {
		prev := s.vector
		s.setVector(next)

		msg := d.Message
		if msg == "" && next == VectorError && d.Err != nil {
			msg = d.Err.Error()
		}
		s.vectorMessage = msg

		if d.Err != nil {
			if m.recordError(&s.vectorErr, d.Err, d.Category, d.RetrySuggestion, prev != s.vector) {
				m.logger.Warn("vector_backend_error",
					slog.String("error", s.vectorErr.Message),
					slog.String("category", string(s.vectorErr.Category)))
			}
		} else if d.Category != "" {
			s.vectorErr.Category = d.Category
			if d.RetrySuggestion != "" {
				s.vectorErr.RetrySuggestion = d.RetrySuggestion
			}
		}
		return true
	})
}

// GetGraphConsecutiveFailures returns the number of consecutive graph failures.
func (m *Manager) GetGraphConsecutiveFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.graphErr.ConsecutiveFailures
}

// ResetGraphConsecutiveFailures clears the failure counter and last error.
// A graph in error or connection-failed drops back to idle.
func (m *Manager) ResetGraphConsecutiveFailures() {
	m.update(func(s *status) bool {
		s.graphErr = ErrorContext{}
		if s.graph == GraphError || s.graph == GraphConnectionFailed {
			s.graph = GraphIdle
		}
		return true
	})
}

// IsSystemDegraded reports whether exactly one backend is unhealthy.
func (m *Manager) IsSystemDegraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.health == HealthDegraded
}

// IsSystemFailed reports whether both backends are unhealthy.
func (m *Manager) IsSystemFailed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.health == HealthFailed
}

// update runs fn under the lock, recomputes health and notifies subscribers
// if the status changed. fn returns false to abort without notification.
func (m *Manager) update(fn func(s *status) bool) {
	m.mu.Lock()
	before := m.s
	if !fn(&m.s) {
		m.mu.Unlock()
		return
	}
	m.s.health = deriveHealth(m.s.vector, m.s.graph)
	if m.s == before {
		m.mu.Unlock()
		return
	}

	snap := m.s.snapshot()
	subs := make([]func(StatusSnapshot), 0, len(m.subscribers))
	for id := 0; id < m.nextSubID; id++ {
		if sub, ok := m.subscribers[id]; ok {
			subs = append(subs, sub)
		}
	}
	m.mu.Unlock()

	for _, sub := range subs {
		m.notify(sub, snap)
	}
}

func (m *Manager) notify(sub func(StatusSnapshot), snap StatusSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("status_subscriber_panicked", slog.Any("panic", r))
		}
	}()
	sub(snap)
}

// recordGraphError stores err as the last graph error. Missing category or
// suggestion are filled in by CategorizeError.
func (m *Manager) recordGraphError(s *status, err error, category ErrorCategory, suggestion string, changed bool) {
	if !m.recordError(&s.graphErr, err, category, suggestion, changed) {
		return
	}
	m.logger.Warn("graph_backend_error",
		slog.String("error", s.graphErr.Message),
		slog.String("status", string(s.graph)),
		slog.String("category", string(s.graphErr.Category)),
		slog.Int("consecutive_failures", s.graphErr.ConsecutiveFailures))
}

// recordError fills e from err and stamps it. Unless the backend status
// changed, a repeat of the error already stored keeps its original timestamp
// and reports false.
func (m *Manager) recordError(e *ErrorContext, err error, category ErrorCategory, suggestion string, changed bool) bool {
	c := CategorizeError(err)
	msg := err.Error()
	category = firstNonEmpty(category, c.Category)
	suggestion = firstString(suggestion, c.RetrySuggestion)
	if !changed && !e.Timestamp.IsZero() && e.Message == msg && e.Category == category && e.RetrySuggestion == suggestion {
		return false
	}
	e.Message = msg
	e.Category = category
	e.RetrySuggestion = suggestion
	e.Timestamp = m.now()
	return true
}

// setVector changes the vector status and maintains its failure counter.
func (s *status) setVector(next VectorStatus) {
	if next == s.vector {
		return
	}
	switch next {
	case VectorError:
		s.vectorErr.ConsecutiveFailures++
	case VectorIndexed, VectorIdle:
		s.vectorErr.ConsecutiveFailures = 0
	}
	s.vector = next
}

// setGraph changes the graph status. Entering an error-like status counts a
// failure; entering indexed or idle clears the count.
func (s *status) setGraph(next GraphStatus) {
	if next == s.graph {
		return
	}
	switch {
	case next.IsFailure():
		s.graphErr.ConsecutiveFailures++
	case next == GraphIndexed || next == GraphIdle:
		s.graphErr.ConsecutiveFailures = 0
	}
	s.graph = next
}

func (s *status) blockMessage() string {
	switch {
	case s.graph == GraphIndexing:
		return s.combinedMessage()
	case s.graph.IsFailure():
		return fmt.Sprintf("Indexing %d%% complete (%d / %d blocks found)%s",
			int(math.Round(percent(s.processed, s.total))), s.processed, s.total, graphUnavailableSuffix)
	default:
		return fmt.Sprintf("Indexed %d / %d blocks found", s.processed, s.total)
	}
}

// combinedMessage reports the unweighted mean of the vector and graph percentages.
func (s *status) combinedMessage() string {
	combined := (percent(s.processed, s.total) + percent(s.graphProcessed, s.graphTotal)) / 2
	return fmt.Sprintf("Indexing %d%% complete (vector: %d / %d %s, graph: %d / %d)",
		int(math.Round(combined)), s.processed, s.total, s.unit, s.graphProcessed, s.graphTotal)
}

func (s *status) snapshot() StatusSnapshot {
	snap := StatusSnapshot{
		SystemStatus:    s.system,
		Message:         s.message,
		ProcessedItems:  s.processed,
		TotalItems:      s.total,
		CurrentItemUnit: s.unit,

		VectorStatus:          s.vector,
		VectorMessage:         s.vectorMessage,
		VectorError:           s.vectorErr.Message,
		VectorErrorCategory:   s.vectorErr.Category,
		VectorRetrySuggestion: s.vectorErr.RetrySuggestion,

		GraphStatus:              s.graph,
		GraphMessage:             s.graphMessage,
		GraphProcessedItems:      s.graphProcessed,
		GraphTotalItems:          s.graphTotal,
		GraphError:               s.graphErr.Message,
		GraphErrorCategory:       s.graphErr.Category,
		GraphRetrySuggestion:     s.graphErr.RetrySuggestion,
		GraphErrorTimestamp:      s.graphErr.Timestamp,
		GraphConsecutiveFailures: s.graphErr.ConsecutiveFailures,

		SystemHealth: s.health,
	}
	if s.hasDiscovery {
		d := s.discovery
		snap.FileDiscovery = &d
	}
	return snap
}

func deriveHealth(v VectorStatus, g GraphStatus) SystemHealth {
	vectorDown := v == VectorError
	graphDown := g.IsFailure()
	switch {
	case vectorDown && graphDown:
		return HealthFailed
	case vectorDown || graphDown:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

func percent(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(processed) / float64(total) * 100
}

func firstNonEmpty(a, b ErrorCategory) ErrorCategory {
	if a != "" {
		return a
	}
	return b
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
