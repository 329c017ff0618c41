package media

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/store"
)

const fingerprintSize = 64 * 1024

// AssetStore is the subset of the store the library writes to.
type AssetStore interface {
	CreateAsset(ctx context.Context, a *store.Asset) error
	GetAssetByFingerprint(ctx context.Context, fingerprint string) (*store.Asset, error)
}

// Library copies media into the managed media directory and records it.
type Library struct {
	dir    string
	prober Prober
	assets AssetStore
	logger *slog.Logger
	now    func() time.Time
}

func NewLibrary(dir string, prober Prober, assets AssetStore, logger *slog.Logger) *Library {
	return &Library{
		dir:    dir,
		prober: prober,
		assets: assets,
		logger: logging.WithComponent(logger, "library"),
		now:    time.Now,
	}
}

func (l *Library) Dir() string {
	return l.dir
}

// Path returns the absolute location of an asset's file.
func (l *Library) Path(a *store.Asset) (string, error) {
	return ResolvePath(l.dir, a.RelativePath)
}

// Import copies the video at src into the media directory as
// import_<uuid>.<ext>, probes it and stores the asset. A file whose
// fingerprint is already in the library returns the existing asset.
func (l *Library) Import(ctx context.Context, src string) (*store.Asset, error) {
	if !IsVideoFile(src) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Base(src))
	}

	fi, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, logging.SanitizePath(src))
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedMedia, logging.SanitizePath(src))
	}

	fp, err := computeFingerprint(src)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	if existing, err := l.assets.GetAssetByFingerprint(ctx, fp); err != nil {
		return nil, err
	} else if existing != nil {
		l.logger.Info("media already imported", "asset_id", existing.ID, "path", logging.SanitizePath(src))
		return existing, nil
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(src))
	rel := "import_" + uuid.NewString() + ext
	dest := filepath.Join(l.dir, rel)
	if err := copyFile(src, dest); err != nil {
		return nil, fmt.Errorf("copy into library: %w", err)
	}

	info, err := l.prober.Probe(ctx, rel)
	if err != nil {
		os.Remove(dest)
		return nil, err
	}
	if !info.HasVideo {
		os.Remove(dest)
		return nil, fmt.Errorf("%w: %s has no video stream", ErrUnsupportedMedia, filepath.Base(src))
	}

	asset := &store.Asset{
		ID:              uuid.NewString(),
		DisplayName:     strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		RelativePath:    rel,
		OriginalPath:    src,
		Size:            fi.Size(),
		DurationSeconds: info.DurationSeconds,
		Width:           info.NativeWidth,
		Height:          info.NativeHeight,
		Rotated:         info.OrientationRotated,
		HasAudio:        info.HasAudio,
		Fingerprint:     fp,
		CreatedAt:       l.now().UTC().Truncate(time.Second),
	}
	if err := l.assets.CreateAsset(ctx, asset); err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("record asset: %w", err)
	}

	l.logger.Info("imported media",
		"asset_id", asset.ID,
		"ref", rel,
		"duration", info.DurationSeconds,
		"size", fi.Size(),
	)
	return asset, nil
}

// copyFile writes src to dest through a temporary file so a partial copy
// never appears under its final name.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".import-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func computeFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, fingerprintSize); err != nil && err != io.EOF {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
