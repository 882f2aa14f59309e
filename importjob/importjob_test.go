package importjob

import (
	"sync"
	"testing"
	"time"
)

func TestValidYouTubeURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"http://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"www.youtube.com/shorts/abc123", true},
		{"https://vimeo.com/123456", false},
		{"https://www.youtube.com/", false},
		{"not a url", false},
		{"", false},
	}

	for _, test := range tests {
		result := ValidYouTubeURL(test.url)
		if result != test.expected {
			t.Errorf("ValidYouTubeURL(%q) = %v, expected %v", test.url, result, test.expected)
		}
	}
}

func TestStartRejectsInvalidRequests(t *testing.T) {
	svc := NewService(time.Millisecond)

	if _, err := svc.Start(KindYouTube, "https://vimeo.com/123"); err == nil {
		t.Error("Start() accepted a non-YouTube URL")
	}
	if _, err := svc.Start(KindUpload, ""); err == nil {
		t.Error("Start() accepted an empty upload name")
	}
	if _, err := svc.Start(Kind("torrent"), "x"); err == nil {
		t.Error("Start() accepted an unknown kind")
	}
}

func TestJobRunsToCompletion(t *testing.T) {
	svc := NewService(5 * time.Millisecond)

	var (
		mu       sync.Mutex
		statuses []Status
	)
	svc.SetUpdateCallback(func(j *Job) {
		mu.Lock()
		statuses = append(statuses, j.Status)
		mu.Unlock()
	})

	job, err := svc.Start(KindYouTube, "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if job.ID == "" {
		t.Fatal("job has no ID")
	}

	deadline := time.After(time.Second)
	for {
		got, ok := svc.Get(job.ID)
		if !ok {
			t.Fatal("job disappeared")
		}
		if got.Status.IsFinished() {
			if got.Status != StatusCompleted {
				t.Fatalf("job finished as %s, expected Completed", got.Status)
			}
			if got.FinishedAt.IsZero() {
				t.Error("finished job has no FinishedAt")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never finished")
		case <-time.After(time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) < 2 || statuses[len(statuses)-1] != StatusCompleted {
		t.Errorf("callback statuses = %v, expected Running then Completed", statuses)
	}
}

func TestGetUnknownJob(t *testing.T) {
	svc := NewService(time.Millisecond)
	if _, ok := svc.Get("no-such-id"); ok {
		t.Error("Get() returned a job for an unknown id")
	}
}
