package chat

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Member is one registered name and the outbox bound to it.
type Member struct {
	Name string
	Out  *Outbox
}

// Registry maps screen names to the outboxes of live sessions.
// Every read and write goes through mu, so TryRegister is an atomic
// check-and-insert with respect to all other sessions.
type Registry struct {
	mu      sync.RWMutex
	members map[string]*Outbox
}

func NewRegistry() *Registry {
	return &Registry{members: make(map[string]*Outbox)}
}

// TryRegister binds name to out if no session holds it yet.
func (r *Registry) TryRegister(name string, out *Outbox) bool {
	return r.Register(name, out) == nil
}

// Register binds name to out. Greeting lines are queued on out before the
// name becomes visible to other sessions, so they always precede the first
// routed message. If they cannot all be queued the name stays free and the
// outbox error is returned; a name already held yields ErrNameTaken.
func (r *Registry) Register(name string, out *Outbox, greeting ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[name]; exists {
		return ErrNameTaken
	}
	if len(greeting) > 0 {
		if err := out.SendAll(greeting...); err != nil {
			return fmt.Errorf("greet %s: %w", name, err)
		}
	}
	r.members[name] = out
	ConnectedClients.Set(float64(len(r.members)))
	return nil
}

// Unregister releases name. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[name]; !exists {
		return
	}
	delete(r.members, name)
	ConnectedClients.Set(float64(len(r.members)))
}

func (r *Registry) Lookup(name string) (*Outbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, ok := r.members[name]
	return out, ok
}

// Snapshot copies the current membership, sorted by name.
func (r *Registry) Snapshot() []Member {
	r.mu.RLock()
	members := lo.MapToSlice(r.members, func(name string, out *Outbox) Member {
		return Member{Name: name, Out: out}
	})
	r.mu.RUnlock()

	slices.SortFunc(members, func(a, b Member) int { return strings.Compare(a.Name, b.Name) })
	return members
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
