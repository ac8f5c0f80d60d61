package ws

import (
	"sync"
	"time"
)

// ConnInfo is the registry record for one live connection. It exists
// only for the connection's lifetime; on restart clients reconnect
// and rejoin.
type ConnInfo struct {
	ConnID      string
	UserID      string
	UserName    string
	UserEmail   string
	UserRole    string
	CompanyID   int
	GroupID     int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Registry tracks one record per live connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]ConnInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]ConnInfo)}
}

// Register stores the record for a new connection.
func (r *Registry) Register(info ConnInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[info.ConnID] = info
}

// Unregister removes and returns the record, if present.
func (r *Registry) Unregister(connID string) (ConnInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	return info, ok
}

// Get returns the record for a connection.
func (r *Registry) Get(connID string) (ConnInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.conns[connID]
	return info, ok
}

// SetCompany records the company scope joined by the connection.
func (r *Registry) SetCompany(connID string, companyID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.conns[connID]; ok {
		info.CompanyID = companyID
		r.conns[connID] = info
	}
}

// SetGroup records the group scope joined by the connection.
func (r *Registry) SetGroup(connID string, groupID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.conns[connID]; ok {
		info.GroupID = groupID
		r.conns[connID] = info
	}
}

// ListByCompany returns the records scoped to a company.
func (r *Registry) ListByCompany(companyID int) []ConnInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ConnInfo
	for _, info := range r.conns {
		if info.CompanyID == companyID {
			out = append(out, info)
		}
	}
	return out
}

// ListByGroup returns the records scoped to a group.
func (r *Registry) ListByGroup(groupID int) []ConnInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ConnInfo
	for _, info := range r.conns {
		if info.GroupID == groupID {
			out = append(out, info)
		}
	}
	return out
}
