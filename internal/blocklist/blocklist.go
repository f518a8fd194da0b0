// Package blocklist matches root domains against the malicious and benign domain lists.
package blocklist

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mikey/mailguard/internal/core"
	"go.uber.org/zap"
)

// Snapshot is an immutable pair of domain sets
type Snapshot struct {
	malicious map[string]struct{}
	benign    map[string]struct{}
}

// NewSnapshot builds a snapshot from domain lists, lowercasing and trimming each entry
func NewSnapshot(malicious, benign []string) *Snapshot {
	return &Snapshot{malicious: toSet(malicious), benign: toSet(benign)}
}

// Sizes returns the number of malicious and benign domains
func (s *Snapshot) Sizes() (malicious, benign int) {
	return len(s.malicious), len(s.benign)
}

// Source produces blocklist snapshots
type Source interface {
	Load() (*Snapshot, error)
}

// FileSource reads one domain per line from two files. Blank lines and lines starting
// with '#' are ignored. A missing file yields an empty list.
type FileSource struct {
	MaliciousPath string
	BenignPath    string
	// ExtraBenign is merged into the benign list
	ExtraBenign []string
	Logger      *zap.Logger
}

// Load reads both files
func (f *FileSource) Load() (*Snapshot, error) {
	malicious, err := f.readList(f.MaliciousPath)
	if err != nil {
		return nil, err
	}
	benign, err := f.readList(f.BenignPath)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(malicious, append(benign, f.ExtraBenign...)), nil
}

func (f *FileSource) readList(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if f.Logger != nil {
			f.Logger.Warn("Blocklist file not found, using empty list", zap.String("path", path))
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open blocklist %s: %w", path, err)
	}
	defer file.Close()

	var domains []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist %s: %w", path, err)
	}
	return domains, nil
}

// Matcher assesses root domains against the current snapshot. Lookups are lock free;
// Reload swaps in a complete new snapshot.
type Matcher struct {
	snapshot atomic.Pointer[Snapshot]
	source   Source
	reloadMu sync.Mutex
	logger   *zap.Logger
}

// NewMatcher creates a matcher and performs the initial load. A failing source leaves the
// matcher with empty lists.
func NewMatcher(source Source, logger *zap.Logger) *Matcher {
	m := &Matcher{source: source, logger: logger}
	m.snapshot.Store(NewSnapshot(nil, nil))
	if err := m.Reload(); err != nil {
		logger.Error("Failed to load blocklists, continuing with empty lists", zap.Error(err))
	}
	return m
}

// NewStaticMatcher creates a matcher over a fixed snapshot
func NewStaticMatcher(snapshot *Snapshot) *Matcher {
	m := &Matcher{logger: zap.NewNop()}
	m.snapshot.Store(snapshot)
	return m
}

// Reload rebuilds the snapshot from the source. On error the current snapshot is kept.
func (m *Matcher) Reload() error {
	if m.source == nil {
		return nil
	}
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	snap, err := m.source.Load()
	if err != nil {
		return err
	}
	m.snapshot.Store(snap)

	malicious, benign := snap.Sizes()
	m.logger.Info("Blocklists loaded",
		zap.Int("malicious_domains", malicious),
		zap.Int("benign_domains", benign))
	return nil
}

// Snapshot returns the current snapshot
func (m *Matcher) Snapshot() *Snapshot {
	return m.snapshot.Load()
}

// Assess classifies hosts by exact match on the root domain
func (m *Matcher) Assess(hosts []string) core.BlocklistAssessment {
	snap := m.snapshot.Load()
	all := toSet(hosts)

	assessment := core.BlocklistAssessment{
		Status:         core.BlocklistUnknown,
		Hosts:          sortedKeys(all),
		MaliciousHosts: []string{},
		BenignHosts:    []string{},
	}
	for _, host := range assessment.Hosts {
		if _, ok := snap.malicious[host]; ok {
			assessment.MaliciousHosts = append(assessment.MaliciousHosts, host)
		}
		if _, ok := snap.benign[host]; ok {
			assessment.BenignHosts = append(assessment.BenignHosts, host)
		}
	}

	switch {
	case len(assessment.MaliciousHosts) > 0:
		assessment.Status = core.BlocklistMalicious
	case len(assessment.BenignHosts) > 0:
		assessment.Status = core.BlocklistBenign
	}

	if assessment.Status != core.BlocklistUnknown {
		m.logger.Debug("Blocklist hit",
			zap.String("status", string(assessment.Status)),
			zap.Strings("malicious", assessment.MaliciousHosts),
			zap.Strings("benign", assessment.BenignHosts))
	}
	return assessment
}

func toSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
