package payroll

import "sync"

// =============================================================================
// PER-CONTRACTOR LOCKING - Single writer per contractor aggregate
// =============================================================================

// ContractorLocks serializes all mutating operations for a single contractor
// while allowing contractors to proceed independently of each other. Mutations
// take the write lock for the duration of the mutation plus its dependent
// recomputation; reads take the read lock so they observe a consistent
// snapshot. There is no global lock: a failure for one contractor never
// blocks others.
type ContractorLocks struct {
	mu    sync.Mutex
	locks map[ContractorID]*sync.RWMutex
}

func NewContractorLocks() *ContractorLocks {
	return &ContractorLocks{locks: make(map[ContractorID]*sync.RWMutex)}
}

func (cl *ContractorLocks) lockFor(id ContractorID) *sync.RWMutex {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	l, ok := cl.locks[id]
	if !ok {
		l = &sync.RWMutex{}
		cl.locks[id] = l
	}
	return l
}

// Lock acquires the contractor's exclusive lock. Returns the unlock func.
func (cl *ContractorLocks) Lock(id ContractorID) func() {
	l := cl.lockFor(id)
	l.Lock()
	return l.Unlock
}

// RLock acquires the contractor's shared lock. Returns the unlock func.
func (cl *ContractorLocks) RLock(id ContractorID) func() {
	l := cl.lockFor(id)
	l.RLock()
	return l.RUnlock
}
