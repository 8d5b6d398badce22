// Package loader fetches the raw banned-word list and publishes the compiled lexicon.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"moderation/pkg/lexicon"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

// Source returns the raw lexicon text.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s FileSource) String() string {
	return s.Path
}

type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request to %s: %w", s.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, s.URL, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response from %s: %w", s.URL, err)
	}

	return string(b), nil
}

func (s HTTPSource) String() string {
	return s.URL
}

// NewSource picks an HTTPSource for http(s) URLs and a FileSource for anything else.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{URL: location, Client: &http.Client{Timeout: timeout}}
	}
	return FileSource{Path: location}
}

// Loader is the only writer of a lexicon.Store.
type Loader struct {
	src   Source
	store *lexicon.Store

	mu   sync.Mutex
	once sync.Once
	done chan struct{}
	err  error
}

func New(src Source, store *lexicon.Store) *Loader {
	return &Loader{
		src:   src,
		store: store,
		done:  make(chan struct{}),
	}
}

// Start fetches and compiles the lexicon once in the background. Subsequent calls do nothing.
// A failed fetch is logged and leaves the store not ready; there is no retry.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		go func() {
			defer close(l.done)

			err := l.load(ctx)

			l.mu.Lock()
			l.err = err
			l.mu.Unlock()

			if err != nil {
				log.Errorf("[loader] failed to load lexicon from %v: %v", l.src, err)
			}
		}()
	})
}

// Done is closed when the initial load finished, successfully or not.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// Err returns the initial load error, if any, once Done is closed.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Reload fetches the lexicon again and replaces the published set. On failure the previous set
// stays in place.
func (l *Loader) Reload(ctx context.Context) error {
	if err := l.load(ctx); err != nil {
		log.Errorf("[loader] failed to reload lexicon from %v: %v", l.src, err)
		return err
	}
	return nil
}

func (l *Loader) load(ctx context.Context) error {
	start := time.Now()

	raw, err := l.src.Fetch(ctx)
	if err != nil {
		return err
	}

	set := lexicon.Compile(raw)
	l.store.Publish(set)

	log.Infof("[loader] lexicon loaded from %v: %d patterns in %v", l.src, set.Len(), time.Since(start))
	return nil
}
