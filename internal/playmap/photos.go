package playmap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Photo file naming:
//
//	<photoDir>/playground_<playgroundID>_<unixMs>.<ext>
//	<thumbnailDir>/thumbnail_<playgroundID>_<unixMs>.<ext>
//
// The playground id and capture time are recovered from the filename; there
// is no separate photo index.
const (
	photoPrefix     = "playground_"
	thumbnailPrefix = "thumbnail_"
	fileURIScheme   = "file://"
)

// MaxPhotoBytes is the largest photo file accepted from the capture provider.
const MaxPhotoBytes = 5 * 1024 * 1024

// allowedPhotoExtensions are the accepted photo file types, lowercase.
var allowedPhotoExtensions = []string{".jpg", ".jpeg", ".png"}

// PhotoUsage summarizes the photo directories.
type PhotoUsage struct {
	PhotoCount     int
	ThumbnailCount int
	TotalBytes     int64
}

// PhotoTracker maps photo files to playgrounds by filename and removes files
// that no longer belong to a live playground. Every delete is best-effort:
// failures are logged and never block the record-mutation flow.
type PhotoTracker struct {
	fsys         PhotoFilesystem
	photoDir     string
	thumbnailDir string
	clock        Clock
	logger       Logger
}

// NewPhotoTracker creates a tracker over the given directories.
func NewPhotoTracker(fsys PhotoFilesystem, photoDir, thumbnailDir string, clock Clock, logger Logger) *PhotoTracker {
	return &PhotoTracker{
		fsys:         fsys,
		photoDir:     photoDir,
		thumbnailDir: thumbnailDir,
		clock:        clock,
		logger:       logger,
	}
}

// PhotoFilename returns the photo filename for a playground and capture time.
func PhotoFilename(playgroundID string, ts time.Time, ext string) string {
	return fmt.Sprintf("%s%s_%d%s", photoPrefix, playgroundID, ts.UnixMilli(), normalizeExt(ext))
}

// ThumbnailFilename returns the thumbnail filename matching PhotoFilename.
func ThumbnailFilename(playgroundID string, ts time.Time, ext string) string {
	return fmt.Sprintf("%s%s_%d%s", thumbnailPrefix, playgroundID, ts.UnixMilli(), normalizeExt(ext))
}

// ParsePhotoFilename extracts the playground id and capture time from a photo
// or thumbnail filename. ok is false for files outside the convention.
func ParsePhotoFilename(name string) (playgroundID string, ts time.Time, thumbnail bool, ok bool) {
	base := filepath.Base(name)
	var rest string
	switch {
	case strings.HasPrefix(base, photoPrefix):
		rest = strings.TrimPrefix(base, photoPrefix)
	case strings.HasPrefix(base, thumbnailPrefix):
		rest = strings.TrimPrefix(base, thumbnailPrefix)
		thumbnail = true
	default:
		return "", time.Time{}, false, false
	}

	rest = strings.TrimSuffix(rest, filepath.Ext(rest))
	sep := strings.LastIndex(rest, "_")
	if sep <= 0 || sep == len(rest)-1 {
		return "", time.Time{}, false, false
	}

	ms, err := strconv.ParseInt(rest[sep+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, false, false
	}
	return rest[:sep], time.UnixMilli(ms), thumbnail, true
}

// URIToPath converts a file URI to a filesystem path. Bare paths pass through.
func URIToPath(uri string) string {
	return strings.TrimPrefix(uri, fileURIScheme)
}

// PathToURI converts a filesystem path to a file URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, fileURIScheme) {
		return path
	}
	return fileURIScheme + path
}

// PhotosForPlayground returns the photos of a playground, newest first.
func (t *PhotoTracker) PhotosForPlayground(ctx context.Context, playgroundID string) ([]PhotoData, error) {
	entries, err := t.fsys.List(t.photoDir)
	if err != nil {
		return nil, NewStorageError("failed to list photos", true, err)
	}

	thumbs := make(map[string]string)
	if thumbEntries, err := t.fsys.List(t.thumbnailDir); err != nil {
		t.logger.Warn("listing thumbnails failed", "dir", t.thumbnailDir, "error", err)
	} else {
		for _, e := range thumbEntries {
			id, ts, isThumb, ok := ParsePhotoFilename(e.Name)
			if ok && isThumb && id == playgroundID {
				thumbs[thumbKey(id, ts)] = PathToURI(e.Path)
			}
		}
	}

	var photos []PhotoData
	for _, e := range entries {
		id, ts, isThumb, ok := ParsePhotoFilename(e.Name)
		if !ok || isThumb || id != playgroundID {
			continue
		}
		photos = append(photos, PhotoData{
			URI:          PathToURI(e.Path),
			Filename:     e.Name,
			PlaygroundID: id,
			Timestamp:    ts,
			Thumbnail:    thumbs[thumbKey(id, ts)],
		})
	}

	slices.SortStableFunc(photos, func(a, b PhotoData) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return photos, nil
}

// HasReachedLimit reports whether the playground already has MaxPhotos photos.
func (t *PhotoTracker) HasReachedLimit(ctx context.Context, playgroundID string) (bool, error) {
	photos, err := t.PhotosForPlayground(ctx, playgroundID)
	if err != nil {
		return false, err
	}
	return len(photos) >= MaxPhotos, nil
}

// DeleteFile removes a photo and its thumbnail counterpart.
func (t *PhotoTracker) DeleteFile(ctx context.Context, uri string) {
	path := URIToPath(uri)
	t.removeQuietly(path)

	id, ts, isThumb, ok := ParsePhotoFilename(path)
	if !ok || isThumb {
		return
	}

	entries, err := t.fsys.List(t.thumbnailDir)
	if err != nil {
		t.logger.Warn("listing thumbnails failed", "dir", t.thumbnailDir, "error", err)
		return
	}
	for _, e := range entries {
		thumbID, thumbTS, isThumb, ok := ParsePhotoFilename(e.Name)
		if ok && isThumb && thumbID == id && thumbTS.Equal(ts) {
			t.removeQuietly(e.Path)
		}
	}
}

// DeleteAllForPlayground removes every photo and thumbnail of a playground.
func (t *PhotoTracker) DeleteAllForPlayground(ctx context.Context, playgroundID string) {
	removed := 0
	for _, dir := range []string{t.photoDir, t.thumbnailDir} {
		entries, err := t.fsys.List(dir)
		if err != nil {
			t.logger.Warn("listing photo directory failed", "dir", dir, "error", err)
			continue
		}
		for _, e := range entries {
			id, _, _, ok := ParsePhotoFilename(e.Name)
			if !ok || id != playgroundID {
				continue
			}
			if t.removeQuietly(e.Path) {
				removed++
			}
		}
	}
	t.logger.Info("playground photos removed", "id", playgroundID, "count", removed)
}

// SweepOrphans deletes every photo and thumbnail whose playground id is not
// in activeIDs and returns the number of files deleted. Files outside the
// naming convention are left alone. An enumeration failure yields 0.
func (t *PhotoTracker) SweepOrphans(ctx context.Context, activeIDs []string) int {
	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	var orphans []string
	for _, dir := range []string{t.photoDir, t.thumbnailDir} {
		entries, err := t.fsys.List(dir)
		if err != nil {
			t.logger.Error("orphan sweep could not list directory", "dir", dir, "error", err)
			return 0
		}
		for _, e := range entries {
			id, _, _, ok := ParsePhotoFilename(e.Name)
			if ok && !active[id] {
				orphans = append(orphans, e.Path)
			}
		}
	}

	deleted := 0
	for _, path := range orphans {
		if err := ctx.Err(); err != nil {
			t.logger.Warn("orphan sweep interrupted", "error", err)
			break
		}
		if t.removeQuietly(path) {
			deleted++
		}
	}

	if deleted > 0 {
		t.logger.Info("orphaned photos removed", "count", deleted)
	}
	return deleted
}

// Usage counts the files and bytes in the photo directories.
func (t *PhotoTracker) Usage(ctx context.Context) (PhotoUsage, error) {
	var usage PhotoUsage
	for _, dir := range []string{t.photoDir, t.thumbnailDir} {
		entries, err := t.fsys.List(dir)
		if err != nil {
			return PhotoUsage{}, NewStorageError("failed to list photo directory", true, err)
		}
		for _, e := range entries {
			_, _, isThumb, ok := ParsePhotoFilename(e.Name)
			if !ok {
				continue
			}
			if isThumb {
				usage.ThumbnailCount++
			} else {
				usage.PhotoCount++
			}
			usage.TotalBytes += e.Size
		}
	}
	return usage, nil
}

// ValidatePhotoFile checks a captured file before it is accepted: it must
// exist, be at most MaxPhotoBytes, and be a jpg, jpeg or png.
func (t *PhotoTracker) ValidatePhotoFile(uri string) error {
	path := URIToPath(uri)
	if !slices.Contains(allowedPhotoExtensions, strings.ToLower(filepath.Ext(path))) {
		return NewValidationError("photos", "photo must be a jpg, jpeg or png file")
	}

	entry, err := t.fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewValidationError("photos", "photo file does not exist")
		}
		return NewStorageError("failed to inspect photo file", true, err)
	}
	if entry.Size > MaxPhotoBytes {
		return NewValidationError("photos", fmt.Sprintf("photo must be %d MB or smaller", MaxPhotoBytes/(1024*1024)))
	}
	return nil
}

// AddPhoto validates a captured photo and copies it, with its optional
// thumbnail, into the photo directories under the naming convention. It
// returns the URI of the stored photo.
func (t *PhotoTracker) AddPhoto(ctx context.Context, playgroundID string, capture CaptureResult) (string, error) {
	if err := t.ValidatePhotoFile(capture.URI); err != nil {
		return "", err
	}

	full, err := t.HasReachedLimit(ctx, playgroundID)
	if err != nil {
		return "", err
	}
	if full {
		return "", NewValidationError("photos", fmt.Sprintf("a playground can have at most %d photos", MaxPhotos))
	}

	for _, dir := range []string{t.photoDir, t.thumbnailDir} {
		if err := t.fsys.MkdirAll(dir); err != nil {
			return "", NewStorageError("failed to create photo directory", true, err)
		}
	}

	now := t.clock.Now()
	src := URIToPath(capture.URI)
	dst := filepath.Join(t.photoDir, PhotoFilename(playgroundID, now, filepath.Ext(src)))
	if err := t.fsys.Copy(src, dst); err != nil {
		return "", NewStorageError("failed to store photo", true, err)
	}

	if capture.ThumbnailURI != "" {
		thumbSrc := URIToPath(capture.ThumbnailURI)
		thumbDst := filepath.Join(t.thumbnailDir, ThumbnailFilename(playgroundID, now, filepath.Ext(thumbSrc)))
		if err := t.fsys.Copy(thumbSrc, thumbDst); err != nil {
			t.logger.Warn("storing thumbnail failed", "path", thumbDst, "error", err)
		}
	}

	t.logger.Info("photo stored", "id", playgroundID, "path", dst)
	return PathToURI(dst), nil
}

// removeQuietly deletes path, reporting whether a file was removed.
func (t *PhotoTracker) removeQuietly(path string) bool {
	if err := t.fsys.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("deleting photo file failed", "path", path, "error", err)
		}
		return false
	}
	return true
}

func thumbKey(id string, ts time.Time) string {
	return id + "/" + strconv.FormatInt(ts.UnixMilli(), 10)
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
