// Package importjob implements the clip import surface: file uploads and
// YouTube URLs submitted from the board's import dialog. Jobs are
// simulated end to end: the request is validated, tracked, and completed
// after a fixed delay; no download or persistence happens.
package importjob

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates import job sources
type Kind string

const (
	KindUpload  Kind = "upload"
	KindYouTube Kind = "youtube"
)

// Status represents the lifecycle of one import job
type Status string

const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusError     Status = "Error"
)

// IsFinished returns true once the job can no longer change state
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusError
}

// Job tracks one import request
type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Source     string    `json:"source"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

var youtubeURL = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+$`)

// ValidYouTubeURL reports whether s looks like a YouTube video URL
func ValidYouTubeURL(s string) bool {
	return youtubeURL.MatchString(s)
}

// Service tracks import jobs
type Service struct {
	simulate time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job

	onUpdate func(*Job) // callback for UI updates
}

// NewService creates an import service whose jobs complete after the given
// simulated duration
func NewService(simulate time.Duration) *Service {
	if simulate <= 0 {
		simulate = 3 * time.Second
	}
	return &Service{
		simulate: simulate,
		jobs:     make(map[string]*Job),
	}
}

// SetUpdateCallback sets the callback invoked on every job state change
func (s *Service) SetUpdateCallback(fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// Start validates and launches an import job. YouTube jobs require a
// YouTube-shaped URL; upload jobs require a non-empty source name.
func (s *Service) Start(kind Kind, source string) (*Job, error) {
	switch kind {
	case KindYouTube:
		if !ValidYouTubeURL(source) {
			return nil, fmt.Errorf("not a YouTube URL: %q", source)
		}
	case KindUpload:
		if source == "" {
			return nil, fmt.Errorf("upload requires a file name")
		}
	default:
		return nil, fmt.Errorf("unknown import kind %q", kind)
	}

	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.run(job)
	return s.snapshot(job.ID), nil
}

// Get returns a copy of the job with the given id
func (s *Service) Get(id string) (*Job, bool) {
	job := s.snapshot(id)
	return job, job != nil
}

// Jobs returns copies of all jobs
func (s *Service) Jobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		out = append(out, &copied)
	}
	return out
}

func (s *Service) run(job *Job) {
	s.update(job.ID, StatusRunning, "")
	time.Sleep(s.simulate)
	s.update(job.ID, StatusCompleted, "")
}

func (s *Service) update(id string, status Status, errMsg string) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	job.Status = status
	job.Error = errMsg
	if status.IsFinished() {
		job.FinishedAt = time.Now()
	}
	copied := *job
	fn := s.onUpdate
	s.mu.Unlock()

	if fn != nil {
		fn(&copied)
	}
}

func (s *Service) snapshot(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
