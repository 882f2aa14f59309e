package playback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader(t *testing.T, root string) *ClipLoader {
	t.Helper()
	return NewClipLoader(nil, root, time.Minute)
}

func TestClipLoaderProbeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	loader := testLoader(t, t.TempDir())
	_, err := loader.Load(context.Background(), "Air Horn", srv.URL+"/airhorn.mp3")

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, http.StatusNotFound, unreachable.Status)
}

func TestClipLoaderProbeRetriedAfterFailure(t *testing.T) {
	var heads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	loader := testLoader(t, t.TempDir())
	url := srv.URL + "/dead.mp3"
	_, err1 := loader.Load(context.Background(), "Dead", url)
	_, err2 := loader.Load(context.Background(), "Dead", url)

	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, int32(2), heads.Load(), "a failed probe must not be cached")
}

func TestClipLoaderProbeCachedAfterSuccess(t *testing.T) {
	var heads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
			return
		}
		w.Write([]byte("not really audio"))
	}))
	defer srv.Close()

	loader := testLoader(t, t.TempDir())
	url := srv.URL + "/garbled.mp3"
	_, err1 := loader.Load(context.Background(), "Garbled", url)
	_, err2 := loader.Load(context.Background(), "Garbled", url)

	// The payload is undecodable, but the probe succeeded and is reused
	var decode *DecodeError
	require.ErrorAs(t, err1, &decode)
	require.ErrorAs(t, err2, &decode)
	assert.Equal(t, int32(1), heads.Load(), "a successful probe must be cached")
}

func TestClipLoaderDecodeFailure(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "noise.mp3")
	require.NoError(t, os.WriteFile(path, []byte("definitely not mpeg frames"), 0o644))

	loader := testLoader(t, root)
	_, err := loader.Load(context.Background(), "Noise", "noise.mp3")

	var decode *DecodeError
	require.ErrorAs(t, err, &decode)
}

func TestClipLoaderMissingLocalFile(t *testing.T) {
	loader := testLoader(t, t.TempDir())
	_, err := loader.Load(context.Background(), "Ghost", "ghost.mp3")

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
}

func TestClipLoaderRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.mp3")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	defer os.Remove(outside)

	loader := testLoader(t, root)
	_, err := loader.Load(context.Background(), "Sneaky", "../outside.mp3")

	// The cleaned path stays under the root, where the file does not exist
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
}

func TestClipLoaderTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	loader := testLoader(t, t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := loader.Load(ctx, "Slow", srv.URL+"/slow.mp3")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || isUnreachableTimeout(err),
		"expected a deadline-derived error, got %v", err)
	assert.Less(t, time.Since(start), time.Second, "the load must give up at the deadline")
}

// isUnreachableTimeout matches the case where the HTTP client surfaces the
// deadline as a transport error before the select does
func isUnreachableTimeout(err error) bool {
	var unreachable *UnreachableError
	return errors.As(err, &unreachable) && errors.Is(err, context.DeadlineExceeded)
}
