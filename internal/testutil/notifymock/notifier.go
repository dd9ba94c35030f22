package notifymock

import "sync"

// Notifier records fully-funded notifications for assertions.
type Notifier struct {
	mu    sync.Mutex
	Calls []uint64
}

func (n *Notifier) LoanFullyFunded(loanID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, loanID)
}

func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Calls)
}
