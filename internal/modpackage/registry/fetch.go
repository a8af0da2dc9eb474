package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// URLs locates the two documents of the online database.
type URLs struct {
	Registry        string
	DependencyGraph string
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	logger.Logger().Infof("'%s' -> Status: %s", url, resp.Status)
	return data, nil
}

// FetchRegistry downloads and decodes the registry snapshot.
func FetchRegistry(ctx context.Context, client *http.Client, url string) (*Registry, error) {
	data, err := fetchBody(ctx, client, url)
	if err != nil {
		return nil, err
	}
	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("decoding registry %s: %w", url, err)
	}
	return reg, nil
}

// FetchGraph downloads and decodes the dependency graph.
func FetchGraph(ctx context.Context, client *http.Client, url string) (*DependencyGraph, error) {
	data, err := fetchBody(ctx, client, url)
	if err != nil {
		return nil, err
	}
	graph, err := ParseDependencyGraph(data)
	if err != nil {
		return nil, fmt.Errorf("decoding dependency graph %s: %w", url, err)
	}
	return graph, nil
}

// FetchOnlineDatabase downloads the registry and the dependency graph
// concurrently behind a single spinner written to progress. Either failure
// fails the whole load.
func FetchOnlineDatabase(ctx context.Context, client *http.Client, urls URLs, progress io.Writer) (*Registry, *DependencyGraph, error) {
	log := logger.Logger()
	log.Info("Fetching mod registry and dependency graph from remote server...")

	if progress == nil {
		progress = io.Discard
	}
	spinner := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Fetching online database..."),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = spinner.Add(1)
			}
		}
	}()

	var (
		reg   *Registry
		graph *DependencyGraph
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reg, err = FetchRegistry(gctx, client, urls.Registry)
		return err
	})
	g.Go(func() error {
		var err error
		graph, err = FetchGraph(gctx, client, urls.DependencyGraph)
		return err
	})
	err := g.Wait()

	close(done)
	<-stopped
	if ferr := spinner.Finish(); ferr != nil {
		log.Debugf("failed to finish spinner: %v", ferr)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("fetching online database: %w", err)
	}

	log.Info("Successfully fetched mod registry and dependency graph")
	log.Debugf("Fetched mod registry with %d entries", reg.Len())
	log.Debugf("Fetched dependency graph with %d entries", graph.Len())
	return reg, graph, nil
}
