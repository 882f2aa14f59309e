// Package catalog loads and serves the clip manifest.
//
// The manifest is a JSON document with a top-level "clips" key holding an
// ordered list of {name, file} entries. Names are unique and act as the
// lookup key; order is preserved for display.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/telagraphic/sfx-board/logger"
)

// Clip describes one named, independently playable audio item.
// Clips are immutable once loaded.
type Clip struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// manifest mirrors the on-disk manifest document
type manifest struct {
	Clips []Clip `json:"clips"`
}

// LoadError reports a manifest that could not be fetched or parsed
type LoadError struct {
	Source string
	Reason string
	cause  error
}

func (e *LoadError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("loading manifest %s: %s: %v", e.Source, e.Reason, e.cause)
	}
	return fmt.Sprintf("loading manifest %s: %s", e.Source, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.cause }

// Service holds the manifest location and the currently loaded clip list.
// Load replaces the list atomically; readers always see a full snapshot.
type Service struct {
	source string
	client *http.Client

	mu    sync.RWMutex
	clips []Clip
	index map[string]Clip
}

// NewService creates a catalog service for the given manifest location,
// which may be a local file path or an http(s) URL.
func NewService(source string) *Service {
	return &Service{
		source: source,
		client: http.DefaultClient,
		index:  map[string]Clip{},
	}
}

// Source returns the manifest location the service was created with
func (s *Service) Source() string {
	return s.source
}

// Load fetches the manifest and replaces the in-memory clip list.
// It fails with a *LoadError when the manifest is unreachable, not valid
// JSON, or contains duplicate clip names. A well-formed document with no
// clips yields an empty catalog.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return &LoadError{Source: s.source, Reason: "invalid JSON", cause: err}
	}

	index := make(map[string]Clip, len(m.Clips))
	for _, clip := range m.Clips {
		if clip.Name == "" || clip.File == "" {
			return &LoadError{Source: s.source, Reason: fmt.Sprintf("entry %+v is missing name or file", clip)}
		}
		if _, dup := index[clip.Name]; dup {
			return &LoadError{Source: s.source, Reason: fmt.Sprintf("duplicate clip name %q", clip.Name)}
		}
		index[clip.Name] = clip
	}

	s.mu.Lock()
	s.clips = m.Clips
	s.index = index
	s.mu.Unlock()

	logger.WithComponent("catalog").Debug("Manifest loaded", "source", s.source, "clips", len(m.Clips))
	return nil
}

// Clips returns the loaded clips in manifest order
func (s *Service) Clips() []Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Clip, len(s.clips))
	copy(out, s.clips)
	return out
}

// Lookup returns the clip with the given name
func (s *Service) Lookup(name string) (Clip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clip, ok := s.index[name]
	return clip, ok
}

// Len returns the number of loaded clips
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clips)
}

// fetch reads the raw manifest bytes from a file or over HTTP
func (s *Service) fetch(ctx context.Context) ([]byte, error) {
	if isHTTP(s.source) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.source, nil)
		if err != nil {
			return nil, &LoadError{Source: s.source, Reason: "building request", cause: err}
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, &LoadError{Source: s.source, Reason: "unreachable", cause: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &LoadError{Source: s.source, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &LoadError{Source: s.source, Reason: "reading response", cause: err}
		}
		return data, nil
	}

	data, err := os.ReadFile(s.source)
	if err != nil {
		return nil, &LoadError{Source: s.source, Reason: "unreadable", cause: err}
	}
	return data, nil
}

func isHTTP(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
