package pkgfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/mirror"
	"github.com/everest-mods/everest-mod-cli/internal/utils/file"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the number of downloads allowed in flight at once.
const DefaultWorkers = 6

// TempPattern names in-progress downloads inside the destination directory.
const TempPattern = ".download-*"

// Options configures FetchMods.
type Options struct {
	DestDir string
	// Workers caps concurrent downloads; zero means DefaultWorkers.
	Workers int
	// Mirrors are tried in order; empty means the registry URL only.
	Mirrors []mirror.Mirror
	// Progress receives the progress bars; nil disables them.
	Progress io.Writer
}

// Result holds the outcome of fetching one mod.
type Result struct {
	Name     string        // mod name
	Path     string        // installed archive, set when OK
	Mirror   string        // mirror that served the file
	Attempts int           // mirrors tried
	Duration time.Duration // wall time including failover
	OK       bool
	Error    error
}

// FetchMods downloads every entry into opts.DestDir with at most
// opts.Workers downloads in flight. A failed entry never stops the others;
// the returned slice has one Result per entry, in the same order.
func FetchMods(ctx context.Context, client *http.Client, entries []modpackage.Entry, opts Options) []Result {
	log := logger.Logger()

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]Result, len(entries))

	if err := os.MkdirAll(opts.DestDir, 0755); err != nil {
		log.Errorf("failed to create dest dir %s: %v", opts.DestDir, err)
		for i, e := range entries {
			results[i] = Result{Name: e.Name, Error: fmt.Errorf("creating %s: %w", opts.DestDir, err)}
		}
		return results
	}

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{Name: entry.Name, Error: err}
				return
			}
			defer sem.Release(1)
			results[i] = FetchMod(ctx, client, entry, opts)
		}()
	}
	wg.Wait()

	return results
}

// FetchMod downloads one entry, trying each mirror in turn until one
// delivers a file whose checksum is accepted. A checksum mismatch ends the
// attempt without trying further mirrors.
func FetchMod(ctx context.Context, client *http.Client, entry modpackage.Entry, opts Options) Result {
	log := logger.Logger()
	start := time.Now()
	res := Result{Name: entry.Name}

	mirrors := opts.Mirrors
	if len(mirrors) == 0 {
		mirrors = []mirror.Mirror{{ID: "gb"}}
	}

	var errs error
	for _, m := range mirrors {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		res.Attempts++

		dest, retry, err := download(ctx, client, entry, m, opts)
		if err == nil {
			log.Infof("[%s] downloaded from %s to %s", entry.Name, m.ID, dest)
			res.Path = dest
			res.Mirror = m.ID
			res.OK = true
			res.Duration = time.Since(start)
			return res
		}
		if !retry {
			log.Errorf("[%s] download from %s failed: %v", entry.Name, m.ID, err)
			res.Error = err
			res.Duration = time.Since(start)
			return res
		}
		log.Warnf("[%s] mirror %s failed, trying next: %v", entry.Name, m.ID, err)
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", m.ID, err))
	}

	res.Error = &MirrorsExhaustedError{Name: entry.Name, Attempts: res.Attempts, Err: errs}
	res.Duration = time.Since(start)
	log.Errorf("%v", res.Error)
	return res
}

// download fetches entry from one mirror. retry reports whether the failure
// was request-level, in which case the next mirror may succeed.
func download(ctx context.Context, client *http.Client, entry modpackage.Entry, m mirror.Mirror, opts Options) (dest string, retry bool, err error) {
	url, err := m.URL(entry.Info.URL)
	if err != nil {
		return "", true, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", true, fmt.Errorf("creating request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", true, &StatusError{URL: url, Status: resp.Status}
	}

	dest = filepath.Join(opts.DestDir, determineFilename(resp))
	logger.Logger().Debugf("[%s] %s -> %s (%d bytes)", entry.Name, url, dest, resp.ContentLength)

	tmp, err := os.CreateTemp(opts.DestDir, TempPattern)
	if err != nil {
		return "", false, fmt.Errorf("creating temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	bar := newByteBar(resp.ContentLength, entry.Name, opts.Progress)
	h := xxhash.New()
	_, copyErr := io.Copy(io.MultiWriter(tmp, h, bar), resp.Body)
	closeErr := tmp.Close()
	_ = bar.Finish()
	if copyErr != nil {
		return "", ctx.Err() == nil, fmt.Errorf("reading body of %s: %w", url, copyErr)
	}
	if closeErr != nil {
		return "", false, fmt.Errorf("writing %s: %w", tmpPath, closeErr)
	}

	computed := file.FormatChecksum(h.Sum64())
	if !entry.Info.HasMatchingHash(computed) {
		return "", false, &ChecksumMismatchError{
			File:     dest,
			Computed: computed,
			Expected: entry.Info.Checksums,
		}
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", false, fmt.Errorf("setting permissions on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", false, fmt.Errorf("moving download into place: %w", err)
	}
	committed = true
	return dest, false, nil
}

// determineFilename picks the archive name: the last segment of the final
// URL, else the ETag, else a random name. The result is sanitized and always
// carries a .zip extension so the mods directory scan finds it.
func determineFilename(resp *http.Response) string {
	var name string
	if resp.Request != nil && resp.Request.URL != nil {
		if seg := path.Base(resp.Request.URL.Path); seg != "." && seg != "/" && seg != "" {
			name = seg
		}
	}
	if name == "" {
		etag := strings.TrimPrefix(resp.Header.Get("ETag"), "W/")
		if etag = strings.Trim(etag, `"`); etag != "" {
			name = etag + ".zip"
		}
	}
	if name == "" {
		name = fmt.Sprintf("unknown-mod_%s.zip", uuid.NewString())
	}

	name = file.Sanitize(name)
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		name += ".zip"
	}
	return name
}

// newByteBar tracks bytes of one download. An unknown length (-1) gives a
// spinner instead of a bar.
func newByteBar(contentLength int64, name string, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}
	if contentLength <= 0 {
		contentLength = -1
	}
	return progressbar.NewOptions64(contentLength,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetDescription("["+name+"]"),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSpinnerType(10),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Summarize counts successful and failed results.
func Summarize(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.OK {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// IsChecksumMismatch reports whether err is or wraps a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	var mismatch *ChecksumMismatchError
	return errors.As(err, &mismatch)
}
