package media

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spec-kit/video-service/internal/domain"
)

// ErrNotFound covers missing files, non-regular files and names that
// resolve outside the media root. Callers must not tell them apart.
var ErrNotFound = errors.New("resource not found")

// Resolver maps resource names onto regular files below a trusted root.
type Resolver struct {
	root               string
	defaultContentType string
}

// NewResolver resolves the root once. The root must exist.
func NewResolver(root, defaultContentType string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	info, err := os.Stat(realRoot)
	if err != nil {
		return nil, fmt.Errorf("stat media root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media root %s is not a directory", realRoot)
	}
	if defaultContentType == "" {
		defaultContentType = "video/mp4"
	}
	return &Resolver{root: realRoot, defaultContentType: defaultContentType}, nil
}

// Root returns the resolved media root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve finds the named resource and stats it.
func (r *Resolver) Resolve(name string) (*domain.Resource, error) {
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable name", ErrNotFound)
	}
	if decoded == "" || strings.ContainsRune(decoded, 0) {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	joined := filepath.Join(r.root, filepath.FromSlash(decoded))
	if !r.contains(joined) {
		return nil, fmt.Errorf("%w: escapes root", ErrNotFound)
	}

	realPath, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, decoded, err)
	}
	if !r.contains(realPath) {
		return nil, fmt.Errorf("%w: symlink escapes root", ErrNotFound)
	}

	info, err := os.Stat(realPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, decoded)
		}
		return nil, fmt.Errorf("stat resource: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file", ErrNotFound)
	}

	return &domain.Resource{
		Name:        decoded,
		Path:        realPath,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: r.contentType(realPath),
	}, nil
}

func (r *Resolver) contains(path string) bool {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	if rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (r *Resolver) contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct := mime.TypeByExtension(ext); strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
		return ct
	}
	return r.defaultContentType
}
