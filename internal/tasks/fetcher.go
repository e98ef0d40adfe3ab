package tasks

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"soundsmith/internal/shared"
)

//go:embed manifest.yaml
var manifestData []byte

// Manifest lists the weight files each model needs on disk.
type Manifest struct {
	Models []ManifestModel `yaml:"models" json:"models"`
}

// ManifestModel is one downloadable model release.
type ManifestModel struct {
	Name        string         `yaml:"name" json:"name"`
	Version     string         `yaml:"version" json:"version"`
	Description string         `yaml:"description" json:"description"`
	Files       []ManifestFile `yaml:"files" json:"files"`
}

// ManifestFile is one weight file with its checksum and expected size.
type ManifestFile struct {
	Name      string `yaml:"name" json:"name"`
	URL       string `yaml:"url" json:"url"`
	SHA256    string `yaml:"sha256" json:"sha256"`
	SizeBytes int64  `yaml:"size_bytes" json:"size_bytes"`
}

// TotalBytes sums the expected sizes of the model's files.
func (m *ManifestModel) TotalBytes() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.SizeBytes
	}
	return total
}

// LoadManifest parses the embedded weight manifest.
func LoadManifest() (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse weight manifest: %w", err)
	}
	return &manifest, nil
}

// Model finds a release by name.
func (m *Manifest) Model(name string) (*ManifestModel, error) {
	for i := range m.Models {
		if m.Models[i].Name == name {
			return &m.Models[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no model named %q in manifest", shared.ErrInvalidArgument, name)
}

// FetchOpts contains configuration for weight downloads.
type FetchOpts struct {
	Dir         string  // Destination directory (files land in Dir/<model>/)
	Workers     int     // Concurrent downloads (default 3, max 8)
	RateLimitMB float64 // Megabytes per second across all workers, 0 = unthrottled
	Verify      bool    // Check sha256 digests after download
}

// FileResult records the outcome of one file download.
type FileResult struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Resumed  bool   `json:"resumed,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Verified bool   `json:"verified,omitempty"`
	Error    error  `json:"-"`
}

// FetchResult summarizes a whole model download.
type FetchResult struct {
	Model      string       `json:"model"`
	Directory  string       `json:"directory"`
	TotalFiles int          `json:"total_files"`
	Downloaded int          `json:"downloaded"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	TotalBytes int64        `json:"total_bytes"`
	Files      []FileResult `json:"files"`
}

// Fetcher downloads model weights with a bounded worker pool.
//
// Partial files resume with Range requests, the combined transfer rate can be
// throttled, and digests are checked when asked. Failures are per file; one
// bad file does not abort the rest.
type Fetcher struct {
	httpClient *http.Client
	logger     *log.Logger
}

// NewFetcher creates a Fetcher using the given HTTP client.
func NewFetcher(client *http.Client, logger *log.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Fetcher{httpClient: client, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (f *Fetcher) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Fetch downloads every file of the named model into opts.Dir.
func (f *Fetcher) Fetch(ctx context.Context, model *ManifestModel, progress chan<- ProgressUpdate, opts FetchOpts) (*FetchResult, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no model given", shared.ErrInvalidArgument)
	}

	if opts.Dir == "" {
		opts.Dir = "./models"
	}
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	if opts.Workers > 8 {
		opts.Workers = 8
	}

	destDir := filepath.Join(opts.Dir, model.Name)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create weights directory: %w", err)
	}

	result := &FetchResult{
		Model:      model.Name,
		Directory:  destDir,
		TotalFiles: len(model.Files),
		Files:      make([]FileResult, 0, len(model.Files)),
	}

	// One limiter shared by all workers keeps the aggregate rate under the
	// cap regardless of worker count.
	var limiter *rate.Limiter
	if opts.RateLimitMB > 0 {
		bytesPerSec := opts.RateLimitMB * 1024 * 1024
		limiter = rate.NewLimiter(rate.Limit(bytesPerSec), downloadChunkSize)
	}

	jobs := make(chan ManifestFile, len(model.Files))
	results := make(chan FileResult, len(model.Files))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go f.downloadWorker(ctx, &wg, jobs, results, destDir, limiter, opts.Verify, progress)
	}

	for i, file := range model.Files {
		f.sendProgress(progress, downloadUpdate(i+1, result.TotalFiles, file.Name))
		jobs <- file
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Files = append(result.Files, res)
		result.TotalBytes += res.Bytes

		switch {
		case res.Error != nil:
			result.Failed++
			f.sendProgress(progress, downloadFailedUpdate(completed, result.TotalFiles, res.Name, res.Error))
		case res.Skipped:
			result.Skipped++
			f.sendProgress(progress, downloadDoneUpdate(completed, result.TotalFiles, res.Name+" (cached)", res.Bytes))
		default:
			result.Downloaded++
			f.sendProgress(progress, downloadDoneUpdate(completed, result.TotalFiles, res.Name, res.Bytes))
		}
	}

	if result.Failed > 0 {
		return result, fmt.Errorf("%d of %d files failed to download", result.Failed, result.TotalFiles)
	}
	return result, nil
}

// downloadWorker is a worker goroutine that downloads files from the jobs channel.
func (f *Fetcher) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan ManifestFile,
	results chan<- FileResult,
	destDir string,
	limiter *rate.Limiter,
	verify bool,
	progress chan<- ProgressUpdate,
) {
	defer wg.Done()

	for file := range jobs {
		select {
		case <-ctx.Done():
			results <- FileResult{Name: file.Name, Error: ctx.Err()}
			continue
		default:
		}

		results <- f.downloadFile(ctx, file, destDir, limiter, verify, progress)
	}
}

const downloadChunkSize = 64 * 1024

// downloadFile fetches one weight file, resuming a partial download when the
// server supports Range requests.
func (f *Fetcher) downloadFile(ctx context.Context, file ManifestFile, destDir string, limiter *rate.Limiter, verify bool, progress chan<- ProgressUpdate) FileResult {
	result := FileResult{Name: file.Name}

	dest := filepath.Join(destDir, file.Name)
	result.Path = dest

	// A complete file with the right size is done; verify can still reject it.
	if stat, err := os.Stat(dest); err == nil && stat.Size() == file.SizeBytes {
		result.Bytes = stat.Size()
		result.Skipped = true
		if verify {
			f.sendProgress(progress, verifyUpdate(file.Name))
			if err := f.verifyDigest(dest, file.SHA256); err != nil {
				// Redownload from scratch.
				os.Remove(dest)
				result.Skipped = false
			} else {
				result.Verified = true
				return result
			}
		} else {
			return result
		}
	}

	part := dest + ".part"
	var offset int64
	if stat, err := os.Stat(part); err == nil {
		offset = stat.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		result.Error = fmt.Errorf("failed to create request: %w", err)
		return result
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		return result
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
		result.Resumed = true
	case http.StatusOK:
		// Server ignored the Range header; start over.
		flags |= os.O_TRUNC
		offset = 0
	default:
		result.Error = fmt.Errorf("download failed: status %d", resp.StatusCode)
		return result
	}

	out, err := os.OpenFile(part, flags, 0644)
	if err != nil {
		result.Error = fmt.Errorf("failed to open partial file: %w", err)
		return result
	}

	written, err := f.copyThrottled(ctx, out, resp.Body, limiter)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		// Keep the partial file for the next resume attempt.
		result.Bytes = offset + written
		result.Error = fmt.Errorf("transfer interrupted: %w", err)
		return result
	}

	result.Bytes = offset + written

	if verify {
		f.sendProgress(progress, verifyUpdate(file.Name))
		if err := f.verifyDigest(part, file.SHA256); err != nil {
			os.Remove(part)
			result.Error = err
			return result
		}
		result.Verified = true
	}

	if err := os.Rename(part, dest); err != nil {
		result.Error = fmt.Errorf("failed to finalize download: %w", err)
		return result
	}

	return result
}

// copyThrottled copies src to dst in chunks, pacing on the shared limiter.
func (f *Fetcher) copyThrottled(ctx context.Context, dst io.Writer, src io.Reader, limiter *rate.Limiter) (int64, error) {
	if limiter == nil {
		return io.Copy(dst, src)
	}

	buf := make([]byte, downloadChunkSize)
	var written int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if err := limiter.WaitN(ctx, n); err != nil {
				return written, err
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// verifyDigest compares the file's sha256 against the manifest entry.
func (f *Fetcher) verifyDigest(path, want string) error {
	if want == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open for verification: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to hash file: %w", err)
	}

	got := hex.EncodeToString(hash.Sum(nil))
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", filepath.Base(path), got, want)
	}

	return nil
}
