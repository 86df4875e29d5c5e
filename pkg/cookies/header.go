package cookies

import "sync"

// HeaderStore is the ambient context: it reads a raw Cookie header string and
// keeps writes in memory only. Nothing it records is sent anywhere.
type HeaderStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*HeaderStore)(nil)

func FromHeader(raw string) *HeaderStore {
	s := &HeaderStore{values: map[string]string{}}
	for _, c := range parseHeader(raw) {
		if _, seen := s.values[c.Name]; !seen {
			s.values[c.Name] = c.Value
		}
	}
	return s
}

func (s *HeaderStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *HeaderStore) Set(name, value string, _ ...Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

func (s *HeaderStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}
