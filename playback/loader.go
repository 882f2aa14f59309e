package playback

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	gocache "github.com/patrickmn/go-cache"

	"github.com/telagraphic/sfx-board/logger"
)

// ClipLoader fetches and decodes clip audio into speaker-bound Sounds.
// File values that parse as http(s) URLs are probed with a HEAD request
// before the full fetch to fail fast on dead links; anything else is
// resolved under the local asset root. Successful probes are cached for a
// short TTL so rapid re-activation of the same clip skips the extra round
// trip. Failed probes are never cached: re-activating a dead link retries
// it.
type ClipLoader struct {
	output *Output
	root   string
	client *http.Client
	probes *gocache.Cache
	log    *slog.Logger
}

// NewClipLoader creates a loader resolving relative clip files under root
func NewClipLoader(output *Output, root string, probeTTL time.Duration) *ClipLoader {
	if probeTTL <= 0 {
		probeTTL = 30 * time.Second
	}
	return &ClipLoader{
		output: output,
		root:   root,
		client: http.DefaultClient,
		probes: gocache.New(probeTTL, 2*probeTTL),
		log:    logger.WithComponent("loader"),
	}
}

// Load implements Loader. The fetch and decode run in their own goroutine
// raced against ctx; when ctx wins, the late result is discarded and the
// context error is returned. The Sound is only constructed on the winning
// path, so an abandoned attempt never holds a playable resource.
func (l *ClipLoader) Load(ctx context.Context, name, file string) (Sound, error) {
	type result struct {
		buf *beep.Buffer
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf, err := l.acquire(ctx, name, file)
		ch <- result{buf: buf, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return l.output.newSound(name, res.buf), nil
	case <-ctx.Done():
		l.log.Debug("Abandoning load", "clip", name)
		return nil, ctx.Err()
	}
}

// acquire fetches the raw audio and decodes it into a buffer
func (l *ClipLoader) acquire(ctx context.Context, name, file string) (*beep.Buffer, error) {
	var (
		data []byte
		err  error
	)
	if isURL(file) {
		data, err = l.fetchHTTP(ctx, name, file)
	} else {
		data, err = l.readLocal(name, file)
	}
	if err != nil {
		return nil, err
	}

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, &DecodeError{Clip: name, cause: err}
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	return buf, nil
}

// fetchHTTP probes the URL with HEAD, then downloads it
func (l *ClipLoader) fetchHTTP(ctx context.Context, name, url string) ([]byte, error) {
	if _, probed := l.probes.Get(url); !probed {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return nil, &UnreachableError{Clip: name, Target: url, cause: err}
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, &UnreachableError{Clip: name, Target: url, cause: err}
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &UnreachableError{Clip: name, Target: url, Status: resp.StatusCode}
		}
		l.probes.SetDefault(url, true)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UnreachableError{Clip: name, Target: url, cause: err}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &UnreachableError{Clip: name, Target: url, cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UnreachableError{Clip: name, Target: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Clip: name, Target: url, cause: err}
	}
	return data, nil
}

// readLocal resolves file under the asset root and reads it. Cleaned paths
// cannot escape the root.
func (l *ClipLoader) readLocal(name, file string) ([]byte, error) {
	path := filepath.Join(l.root, filepath.Clean("/"+filepath.FromSlash(file)))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &UnreachableError{Clip: name, Target: file, cause: err}
	}
	return data, nil
}

func isURL(file string) bool {
	return strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://")
}

var _ Loader = (*ClipLoader)(nil)
