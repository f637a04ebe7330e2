// Package gallery implements the filesystem-backed image store. Folders are
// keyed by identity (username or raw IP), images live in per-day date
// buckets, and every stored original gets a derived JPEG thumbnail:
//
//	root/<identity>/.meta.json
//	root/<identity>/<YYYY-MM-DD>/<HH-MM-SS[_suffix]>.png
//	root/<identity>/<YYYY-MM-DD>/<HH-MM-SS[_suffix]>.png.thumbnail.jpeg
//
// All failures are contained here: operations log and return a
// storage_failure AppError (writes) or degrade to empty results (reads).
package gallery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shotwall/shotwall/internal/apperror"
)

const (
	// imageExt is the only extension stored and listed as an original.
	imageExt = ".png"

	// thumbExt is appended to the original filename for thumbnails.
	thumbExt = ".thumbnail.jpeg"

	// dateLayout names date buckets. Lexicographic order equals
	// chronological order by construction.
	dateLayout = "2006-01-02"

	// timeLayout names image files within a bucket.
	timeLayout = "15-04-05"

	// staleAfter is how long a folder may go without uploads before the
	// activity report marks it.
	staleAfter = 7 * 24 * time.Hour
)

// Image is one listed image record.
type Image struct {
	Filename  string `json:"filename"`
	Timestamp int64  `json:"timestamp"`
}

// FolderActivity reports the last upload seen for one gallery folder.
// LastUpload of zero means the folder has never received an upload.
type FolderActivity struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	LastUpload  int64  `json:"last_upload"`
	Marked      bool   `json:"marked"`
}

// Store is the filesystem image store. Blocking write and decode work is
// bounded by a fixed pool of worker slots so request goroutines cannot pile
// unbounded disk and CPU work onto the host.
type Store struct {
	root      string
	thumbSize int
	slots     chan struct{}
}

// NewStore creates a store rooted at root with the given thumbnail bounding
// box and worker slot count.
func NewStore(root string, thumbSize, workers int) *Store {
	if thumbSize <= 0 {
		thumbSize = 200
	}
	if workers < 1 {
		workers = 1
	}
	return &Store{
		root:      root,
		thumbSize: thumbSize,
		slots:     make(chan struct{}, workers),
	}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// acquire takes a worker slot, honoring context cancellation while waiting.
func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release returns a worker slot.
func (s *Store) release() {
	<-s.slots
}

// EnsureFolder idempotently creates the folder for identity and, on first
// creation only, seeds the metadata stub. An existing folder is left
// untouched -- the stub is never rewritten.
func (s *Store) EnsureFolder(identity string) error {
	dir, err := s.folderPath(identity)
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperror.NewStorage(fmt.Errorf("creating folder %s: %w", identity, err))
	}
	if err := writeMetaStub(dir, identity); err != nil {
		return apperror.NewStorage(fmt.Errorf("seeding metadata for %s: %w", identity, err))
	}
	return nil
}

// SaveImage stores the stream as a new original named after now's local time
// in the bucket for now's date, creating the folder and bucket as needed,
// then derives the thumbnail. The original is written through a temp file
// and renamed into place, so an aborted upload never leaves a corrupt
// original behind. Decode failure leaves the original without a thumbnail;
// the operation still reports failure.
func (s *Store) SaveImage(ctx context.Context, identity string, now time.Time, r io.Reader, suffix string) error {
	if err := s.acquire(ctx); err != nil {
		return apperror.NewStorage(fmt.Errorf("acquiring worker slot: %w", err))
	}
	defer s.release()

	if err := s.EnsureFolder(identity); err != nil {
		return err
	}

	folder, err := s.folderPath(identity)
	if err != nil {
		return err
	}
	bucket := filepath.Join(folder, now.Format(dateLayout))
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		return s.fail(identity, "creating date bucket", err)
	}

	name := now.Format(timeLayout)
	if clean := sanitizeSuffix(suffix); clean != "" {
		name += "_" + clean
	}
	name += imageExt
	dest := filepath.Join(bucket, name)

	if err := writeAtomic(dest, r); err != nil {
		return s.fail(identity, "writing original", err)
	}

	if err := s.writeThumbnail(dest); err != nil {
		return s.fail(identity, "generating thumbnail", err)
	}

	slog.Info("image stored",
		slog.String("folder", identity),
		slog.String("file", name),
	)
	return nil
}

// writeAtomic streams r into a temp file in dest's directory and renames it
// into place on success. Every failure path removes the temp file; dest is
// either complete or absent, never truncated.
func writeAtomic(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("copying stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// writeThumbnail decodes the stored original and writes its bounded JPEG
// thumbnail next to it.
func (s *Store) writeThumbnail(original string) error {
	f, err := os.Open(original)
	if err != nil {
		return fmt.Errorf("reopening original: %w", err)
	}
	defer f.Close()

	data, err := makeThumb(f, s.thumbSize)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	if err := os.WriteFile(original+thumbExt, data, 0o644); err != nil {
		os.Remove(original + thumbExt)
		return fmt.Errorf("writing thumbnail: %w", err)
	}
	return nil
}

// fail logs a storage failure with its folder and wraps it for the caller.
func (s *Store) fail(identity, op string, err error) error {
	slog.Error("storage failure",
		slog.String("folder", identity),
		slog.String("op", op),
		slog.Any("error", err),
	)
	return apperror.NewStorage(err)
}

// ListImages returns the bucket's originals ascending by (timestamp,
// filename). Filenames are prefixed with urlPrefix so the response is
// directly addressable. Thumbnails, non-regular entries and files without
// the image extension are skipped. A missing folder or bucket yields an
// empty slice, not an error.
func (s *Store) ListImages(identity, date, urlPrefix string) []Image {
	folder, err := s.folderPath(identity)
	if err != nil || !validBucketName(date) {
		return []Image{}
	}

	bucket := filepath.Join(folder, date)
	entries, err := os.ReadDir(bucket)
	if err != nil {
		return []Image{}
	}

	type record struct {
		name string
		ts   int64
	}
	records := make([]record, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, imageExt) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		records = append(records, record{name: name, ts: imageTimestamp(date, name, info.ModTime())})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].ts != records[j].ts {
			return records[i].ts < records[j].ts
		}
		return records[i].name < records[j].name
	})

	images := make([]Image, 0, len(records))
	for _, rec := range records {
		images = append(images, Image{Filename: urlPrefix + rec.name, Timestamp: rec.ts})
	}
	return images
}

// imageTimestamp derives an image's creation time from its bucket date and
// filename. Files whose names don't parse fall back to modification time.
func imageTimestamp(date, name string, modTime time.Time) int64 {
	base := strings.TrimSuffix(name, imageExt)
	if i := strings.IndexByte(base, '_'); i >= 0 {
		base = base[:i]
	}
	ts, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+base, time.Local)
	if err != nil {
		return modTime.Unix()
	}
	return ts.Unix()
}

// ListLastUploads reports, for every top-level folder, when it last received
// an upload: the lexicographically greatest bucket name parsed as a date
// (greatest sorts last because bucket names sort chronologically). A folder
// with no buckets reports zero and is always marked stale; otherwise Marked
// is set when now minus the last upload is at least seven days. The result
// is ascending by last upload so the least active folders surface first.
func (s *Store) ListLastUploads(now time.Time) []FolderActivity {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return []FolderActivity{}
	}

	result := make([]FolderActivity, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		last := s.lastBucketTime(name)

		activity := FolderActivity{
			Name:        name,
			DisplayName: name,
			Marked:      true,
		}
		if meta, ok := s.Meta(name); ok && meta.DisplayName != "" {
			activity.DisplayName = meta.DisplayName
		}
		if !last.IsZero() {
			activity.LastUpload = last.Unix()
			activity.Marked = now.Sub(last) >= staleAfter
		}
		result = append(result, activity)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastUpload != result[j].LastUpload {
			return result[i].LastUpload < result[j].LastUpload
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// lastBucketTime returns the most recent date bucket of a folder as a local
// time, or the zero time when the folder has no buckets.
func (s *Store) lastBucketTime(identity string) time.Time {
	folder, err := s.folderPath(identity)
	if err != nil {
		return time.Time{}
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		return time.Time{}
	}

	var latest string
	for _, e := range entries {
		if !e.IsDir() || !validBucketName(e.Name()) {
			continue
		}
		if e.Name() > latest {
			latest = e.Name()
		}
	}
	if latest == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, latest, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Folders returns the names of all top-level gallery folders.
func (s *Store) Folders() []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// validBucketName reports whether name parses as a date bucket.
func validBucketName(name string) bool {
	_, err := time.Parse(dateLayout, name)
	return err == nil
}
