package cookies

import (
	"net/http"
	"strings"
	"sync"
)

// RequestStore is the server context: reads come from the inbound request and
// from writes made earlier in the same request, writes go out as Set-Cookie.
type RequestStore struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	policy  Policy
	values  map[string]string
	deleted map[string]struct{}
}

var _ Store = (*RequestStore)(nil)

// FromRequest binds a store to one request/response pair. A nil request yields
// an empty store and a nil writer drops outgoing cookies.
func FromRequest(w http.ResponseWriter, r *http.Request, policy Policy) *RequestStore {
	s := &RequestStore{
		w:       w,
		policy:  policy,
		values:  map[string]string{},
		deleted: map[string]struct{}{},
	}
	if r != nil {
		for _, c := range r.Cookies() {
			if _, seen := s.values[c.Name]; !seen {
				s.values[c.Name] = c.Value
			}
		}
	}
	return s
}

func (s *RequestStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, gone := s.deleted[name]; gone {
		return "", false
	}
	v, ok := s.values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *RequestStore) Set(name, value string, opts ...Option) {
	o := s.policy.Build(opts...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	delete(s.deleted, name)
	s.emit(o.cookie(name, value))
}

func (s *RequestStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	s.deleted[name] = struct{}{}
	s.emit(expired(name, s.policy.Defaults()))
}

// Policy returns the defaults this store writes with.
func (s *RequestStore) Policy() Policy {
	return s.policy
}

// emit replaces any Set-Cookie already queued for the same name so the
// response carries one final value per cookie.
func (s *RequestStore) emit(c *http.Cookie) {
	if s.w == nil {
		return
	}
	line := c.String()
	if line == "" {
		return
	}
	h := s.w.Header()
	var kept []string
	for _, existing := range h.Values("Set-Cookie") {
		if setCookieName(existing) == c.Name {
			continue
		}
		kept = append(kept, existing)
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	h.Add("Set-Cookie", line)
}

func setCookieName(line string) string {
	name, _, _ := strings.Cut(line, "=")
	return strings.TrimSpace(name)
}
