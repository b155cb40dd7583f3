package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultCheckTimeout = 3 * time.Second

// Check reports on one dependency.
type Check func(ctx context.Context) error

// Report is the readiness result. Checks maps each dependency to "ok" or its error.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Service encapsulates health-related checks.
type Service struct {
	timeout time.Duration
	names   []string
	checks  map[string]Check
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{timeout: defaultCheckTimeout, checks: map[string]Check{}}
}

// Register adds a named readiness check. Registering a name twice replaces it.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	if _, ok := s.checks[name]; !ok {
		s.names = append(s.names, name)
		sort.Strings(s.names)
	}
	s.checks[name] = check
}

// Status returns the liveness payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// Ready runs every check concurrently, each bounded by the service timeout.
func (s *Service) Ready(ctx context.Context) Report {
	report := Report{OK: true, Checks: make(map[string]string, len(s.names))}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range s.names {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			result := "ok"
			if err := check(cctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			report.Checks[name] = result
			if result != "ok" {
				report.OK = false
			}
			mu.Unlock()
		}(name, s.checks[name])
	}
	wg.Wait()
	return report
}
