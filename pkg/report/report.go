// Package report keeps per-wallet progress and renders it as a CSV file that is
// rewritten after every wallet.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/lisanmuaddib/base-minter/pkg/action"
)

// Outcome is the final result of one (wallet, target) pair.
type Outcome struct {
	RunID   string
	Address string
	Wallet  string
	Target  string
	Status  action.Status
	TxHash  string
	Error   string
	At      time.Time
}

// Stats maps wallet addresses to the set of target labels they completed. Labels
// are only ever added.
type Stats struct {
	mu    sync.RWMutex
	order []string
	done  map[string]map[string]struct{}
}

// NewStats creates empty stats.
func NewStats() *Stats {
	return &Stats{done: make(map[string]map[string]struct{})}
}

// AddWallet registers address so it appears in the report even if nothing completes.
func (s *Stats) AddWallet(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.done[address]; ok {
		return
	}
	s.order = append(s.order, address)
	s.done[address] = make(map[string]struct{})
}

// MarkDone records label as completed for address.
func (s *Stats) MarkDone(address, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels, ok := s.done[address]
	if !ok {
		s.order = append(s.order, address)
		labels = make(map[string]struct{})
		s.done[address] = labels
	}
	labels[label] = struct{}{}
}

// Done reports whether address completed label.
func (s *Stats) Done(address, label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.done[address][label]
	return ok
}

// Labels returns the sorted labels completed by address.
func (s *Stats) Labels(address string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.done[address]))
	for l := range s.done[address] {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Addresses returns the registered addresses in registration order.
func (s *Stats) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.order...)
}

// Writer renders Stats to a CSV file with one boolean column per target.
type Writer struct {
	path    string
	columns []string
}

// NewWriter creates dir if needed and returns a writer for dir/report.csv.
func NewWriter(dir string, columns []string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Writer{
		path:    filepath.Join(dir, "report.csv"),
		columns: append([]string(nil), columns...),
	}, nil
}

// Path returns the report file path.
func (w *Writer) Path() string {
	return w.path
}

// Write regenerates the whole report from stats. The file is replaced atomically so
// a crash mid-write keeps the previous report.
func (w *Writer) Write(stats *Stats) error {
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".report-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	header := append([]string{"Address"}, w.columns...)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, addr := range stats.Addresses() {
		row := make([]string, 0, len(w.columns)+1)
		row = append(row, addr)
		for _, col := range w.columns {
			row = append(row, strconv.FormatBool(stats.Done(addr, col)))
		}
		if err := cw.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to replace report: %w", err)
	}
	return nil
}
