package policystore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	cedar "github.com/cedar-policy/cedar-go"
	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/constants"
)

// DirectoryStore scans a directory for .cedar files and atomically
// republishes a combined PolicySet on a fixed interval (spec.md §4.5, §9).
// Readers never lock: PolicySet reads an atomic.Pointer.
type DirectoryStore struct {
	dir      string
	interval time.Duration
	log      logr.Logger

	snapshot atomic.Pointer[cedar.PolicySet]
	loaded   atomic.Bool

	stop chan struct{}
}

// NewDirectoryStore validates the refresh interval, performs a synchronous
// initial load, and starts the background refresh worker. Construction
// failure (bad interval, unreadable directory on first load) is fatal per
// spec.md §7 ("Store errors at construction -> fatal; the process exits.").
func NewDirectoryStore(dir string, interval time.Duration, log logr.Logger) (*DirectoryStore, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("policystore: refresh interval must be greater than 0")
	}
	if interval < constants.MinPolicyRefreshInterval {
		return nil, fmt.Errorf("policystore: refresh interval must be at least %s", constants.MinPolicyRefreshInterval)
	}

	s := &DirectoryStore{
		dir:      dir,
		interval: interval,
		log:      log.WithName("directory-store").WithValues("dir", dir),
		stop:     make(chan struct{}),
	}

	if err := s.reload(); err != nil {
		return nil, fmt.Errorf("policystore: initial load of %s: %w", dir, err)
	}
	s.loaded.Store(true)

	go s.refreshLoop()

	return s, nil
}

func (s *DirectoryStore) InitialLoadComplete() bool { return s.loaded.Load() }

func (s *DirectoryStore) PolicySet() (*cedar.PolicySet, error) {
	ps := s.snapshot.Load()
	if ps == nil {
		return cedar.NewPolicySet(), nil
	}
	return ps, nil
}

func (s *DirectoryStore) Name() string {
	return fmt.Sprintf("DirectoryStore(%s)", s.dir)
}

// Close stops the background refresh worker.
func (s *DirectoryStore) Close() { close(s.stop) }

// refreshLoop rescans on a fixed timer and, when available, on filesystem
// change notifications (internal/constants.MinPolicyRefreshInterval still
// bounds how often a burst of fsnotify events can trigger a reload, since
// the timer and the watcher both funnel into the same debounced reload).
func (s *DirectoryStore) refreshLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	watcher, err := fsnotify.NewWatcher()
	var events chan fsnotify.Event
	if err != nil {
		s.log.Error(err, "fsnotify unavailable, falling back to interval-only refresh")
	} else {
		defer watcher.Close()
		if err := watcher.Add(s.dir); err != nil {
			s.log.Error(err, "failed watching policy directory, falling back to interval-only refresh")
		} else {
			events = watcher.Events
		}
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.safeReload()
		case <-events:
			debounce.Reset(constants.MinPolicyRefreshInterval)
		case <-debounce.C:
			s.safeReload()
		}
	}
}

// safeReload logs and retains the prior snapshot on transient errors
// (spec.md §5, §7): the background task must never panic or stop refreshing.
func (s *DirectoryStore) safeReload() {
	if err := s.reload(); err != nil {
		s.log.Error(err, "error refreshing policy store, retaining prior snapshot")
	}
}

func (s *DirectoryStore) reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	ps := cedar.NewPolicySet()
	seen := map[cedar.PolicyID]bool{}
	loadedCount := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), constants.CedarFileExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		local, err := cedar.NewPolicySetFromBytes(entry.Name(), data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}

		for _, p := range local.Map() {
			id := policyID(p)
			if seen[id] {
				return fmt.Errorf("duplicate policy id %q (from %s)", id, path)
			}
			seen[id] = true
			ps.Add(id, p)
			loadedCount++
		}
	}

	s.snapshot.Store(ps)
	s.log.V(1).Info("loaded policies", "count", loadedCount)
	return nil
}

// policyID derives a policy's id from its "@id(...)" annotation, or
// generates a fresh one (spec.md §4.5).
func policyID(p *cedar.Policy) cedar.PolicyID {
	if v, ok := p.Annotations()[constants.PolicyIDAnnotation]; ok {
		return cedar.PolicyID(v)
	}
	return cedar.PolicyID(uuid.New().String())
}
