package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/media"
)

// videoTypes covers containers the platform mime table often lacks.
var videoTypes = map[string]string{
	".mp4": "video/mp4",
	".m4v": "video/x-m4v",
	".mov": "video/quicktime",
	".mkv": "video/x-matroska",
}

// Server streams imported media with byte-range support for preview
// players.
type Server struct {
	mediaDir string
	logger   *slog.Logger
}

func NewServer(mediaDir string, logger *slog.Logger) *Server {
	return &Server{mediaDir: mediaDir, logger: logging.WithComponent(logger, "playback")}
}

// ServeMedia streams the media file named by a media-relative reference.
// References that escape the media directory are rejected with 400.
func (s *Server) ServeMedia(w http.ResponseWriter, r *http.Request, ref string) error {
	path, err := media.ResolvePath(s.mediaDir, ref)
	if err != nil {
		http.Error(w, "invalid media reference", http.StatusBadRequest)
		return nil
	}
	return s.ServeFile(w, r, path)
}

func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return nil
	}

	size := stat.Size()
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType(filePath))

	parsed, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrInvalidRange):
		// Malformed ranges are ignored and the whole file is sent.
		parsed = nil
	case err != nil:
		return err
	}

	if parsed == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			s.copy(w, file, size, filePath)
		}
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(parsed.ContentLength(), 10))
	w.Header().Set("Content-Range", parsed.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := file.Seek(parsed.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	s.copy(w, file, parsed.ContentLength(), filePath)
	return nil
}

// copy streams n bytes. Failures after the header is written are only
// logged; clients routinely abort range requests.
func (s *Server) copy(w io.Writer, r io.Reader, n int64, path string) {
	if _, err := io.CopyN(w, r, n); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("media stream interrupted", "path", logging.SanitizePath(path), "error", err)
	}
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
