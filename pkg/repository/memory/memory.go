package memory

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
)

// Memory is an in-process repository. Notices are kept in their raw stored
// form with protobuf timestamps, as a remote document store would hand
// them over.
type Memory struct {
	mu       sync.RWMutex
	profiles map[types.UserID]*session.Profile
	notices  map[types.NoticeID]notice.Record

	watchMu  sync.Mutex
	watchers map[int]*watcher
	nextID   int

	// Call counter for tracking method invocations
	callCounts map[string]int
	callMu     sync.RWMutex

	eb *goerr.Builder
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		profiles:   make(map[types.UserID]*session.Profile),
		notices:    make(map[types.NoticeID]notice.Record),
		watchers:   make(map[int]*watcher),
		callCounts: make(map[string]int),
		eb:         goerr.NewBuilder(goerr.TV(errutil.RepositoryKey, "memory")),
	}
}

// incrementCallCount safely increments the call counter for a method
func (r *Memory) incrementCallCount(methodName string) {
	r.callMu.Lock()
	defer r.callMu.Unlock()
	r.callCounts[methodName]++
}

// GetCallCount returns the number of times a method has been called
func (r *Memory) GetCallCount(methodName string) int {
	r.callMu.RLock()
	defer r.callMu.RUnlock()
	return r.callCounts[methodName]
}

// TotalCallCount returns the number of calls across all methods
func (r *Memory) TotalCallCount() int {
	r.callMu.RLock()
	defer r.callMu.RUnlock()

	var total int
	for _, v := range r.callCounts {
		total += v
	}
	return total
}

// ResetCallCounts clears all call counters
func (r *Memory) ResetCallCounts() {
	r.callMu.Lock()
	defer r.callMu.Unlock()
	r.callCounts = make(map[string]int)
}
