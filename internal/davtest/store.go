// Package davtest provides an in-memory CalDAV collection for exercising the
// client without a real server.
package davtest

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/emersion/go-ical"
)

// Object is one stored calendar resource
type Object struct {
	Path     string
	ETag     string
	Data     []byte
	Modified time.Time
}

// Store keeps calendar resources keyed by request path
type Store struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{objects: make(map[string]*Object)}
}

func generateETag(data []byte) string {
	hash := sha1.Sum(data)
	return `"` + hex.EncodeToString(hash[:]) + `"`
}

// Get returns the object at path
func (s *Store) Get(path string) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	return obj, ok
}

// Put stores data at path and reports whether it replaced an object
func (s *Store) Put(path string, data []byte) (replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, replaced = s.objects[path]
	s.objects[path] = &Object{
		Path:     path,
		ETag:     generateETag(data),
		Data:     bytes.Clone(data),
		Modified: time.Now(),
	}
	return replaced
}

// Delete removes the object at path and reports whether it existed
func (s *Store) Delete(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[path]; !ok {
		return false
	}
	delete(s.objects, path)
	return true
}

// Len returns the number of stored objects
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Objects returns all objects sorted by path
func (s *Store) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Object, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Match reports whether obj holds a component named comp that overlaps
// [start, end). Zero bounds are open. Objects that cannot be parsed never match.
func (o *Object) Match(comp string, start, end time.Time) bool {
	cal, err := ical.NewDecoder(bytes.NewReader(o.Data)).Decode()
	if err != nil {
		return false
	}
	for _, child := range cal.Children {
		if child.Name != comp {
			continue
		}
		if start.IsZero() && end.IsZero() {
			return true
		}
		if overlaps(child, start, end) {
			return true
		}
	}
	return false
}

func overlaps(comp *ical.Component, start, end time.Time) bool {
	dtstart, err := comp.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	if err != nil || dtstart.IsZero() {
		// components without a start match any range
		return true
	}
	dtend := dtstart
	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		if t, err := prop.DateTime(time.UTC); err == nil {
			dtend = t
		}
	}
	if !end.IsZero() && !dtstart.Before(end) {
		return false
	}
	if !start.IsZero() && !dtend.After(start) && !dtstart.Equal(start) {
		return false
	}
	return true
}
