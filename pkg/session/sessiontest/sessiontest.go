// Package sessiontest provides in-memory fakes for the session property store
// and the service directory.
package sessiontest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harun/sessionboot/pkg/session"
)

// PropertyStore is an in-memory session.PropertyPublisher
type PropertyStore struct {
	mu      sync.Mutex
	props   map[string]session.Property
	log     []string
	failing map[string]error
}

// NewPropertyStore creates an empty store
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{
		props:   make(map[string]session.Property),
		failing: make(map[string]error),
	}
}

// Fail makes every mutation of name return err
func (s *PropertyStore) Fail(name string, err error) *PropertyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[name] = err
	return s
}

func (s *PropertyStore) Set(ctx context.Context, p session.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, "set "+p.Name)
	if err := s.failing[p.Name]; err != nil {
		return err
	}
	s.props[p.Name] = p
	return nil
}

func (s *PropertyStore) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, "remove "+name)
	if err := s.failing[name]; err != nil {
		return err
	}
	delete(s.props, name)
	return nil
}

// Get returns the stored property
func (s *PropertyStore) Get(name string) (session.Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.props[name]
	return p, ok
}

// Names returns the currently published names, sorted
func (s *PropertyStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.props))
	for name := range s.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Log returns every mutation as "set NAME" or "remove NAME", in order
func (s *PropertyStore) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// Call is one recorded Directory.Call
type Call struct {
	Service string
	Path    string
	Method  string
	Args    []interface{}
}

// Directory is a scripted session.ServiceDirectory. Registered names stay
// listed until Unregister is called, typically from an OnCall hook.
type Directory struct {
	mu      sync.Mutex
	owners  map[string]string
	calls   []Call
	onCall  func(Call)
	listErr error
	listed  int
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{owners: make(map[string]string)}
}

// Register lists name, owned by owner. An empty owner makes name its own owner.
func (d *Directory) Register(name, owner string) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	if owner == "" {
		owner = name
	}
	d.owners[name] = owner
	return d
}

// Unregister removes name
func (d *Directory) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.owners, name)
}

// UnregisterOwner removes every name owned by the owner of name
func (d *Directory) UnregisterOwner(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	owner := d.owners[name]
	for n, o := range d.owners {
		if o == owner {
			delete(d.owners, n)
		}
	}
}

// FailList makes NameOwners return err
func (d *Directory) FailList(err error) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listErr = err
	return d
}

// OnCall registers fn to run for every Call, after it is recorded
func (d *Directory) OnCall(fn func(Call)) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onCall = fn
	return d
}

func (d *Directory) NameOwners(ctx context.Context) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listed++
	if d.listErr != nil {
		return nil, d.listErr
	}
	owners := make(map[string]string, len(d.owners))
	for name, owner := range d.owners {
		owners[name] = owner
	}
	return owners, nil
}

func (d *Directory) Call(ctx context.Context, service, path, method string, args ...interface{}) error {
	call := Call{Service: service, Path: path, Method: method, Args: args}

	d.mu.Lock()
	d.calls = append(d.calls, call)
	_, ok := d.owners[service]
	hook := d.onCall
	d.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if !ok {
		return fmt.Errorf("service %s is not registered", service)
	}
	return nil
}

// Calls returns the recorded calls in order
func (d *Directory) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallsTo returns the calls addressed to service
func (d *Directory) CallsTo(service string) []Call {
	var matched []Call
	for _, c := range d.Calls() {
		if c.Service == service {
			matched = append(matched, c)
		}
	}
	return matched
}

// Listed returns how many times the directory was listed
func (d *Directory) Listed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listed
}
