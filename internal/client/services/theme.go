package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/session"
	"github.com/dmitrijs2005/panelkeeper/internal/common"
	"github.com/dmitrijs2005/panelkeeper/internal/filex"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	themeCacheDir      = "theme"
	maxParallelFetches = 4
)

// ThemeService keeps the branding and help images for the session's theme
// in a filesystem cache.
type ThemeService struct {
	client   client.Client
	session  *session.Holder
	log      logging.Logger
	cacheDir string
}

func NewThemeService(c client.Client, h *session.Holder, log logging.Logger, cacheDir string) *ThemeService {
	return &ThemeService{client: c, session: h, log: log, cacheDir: cacheDir}
}

func (s *ThemeService) themeDir(theme string) (string, error) {
	return filex.EnsureDir(filepath.Join(s.cacheDir, themeCacheDir), theme)
}

// Refresh downloads the image bundle for the current theme. Files already
// cached are kept unless force is set. It returns the cached paths.
func (s *ThemeService) Refresh(ctx context.Context, force bool) ([]string, error) {
	sess, ok := s.session.Current()
	if !ok || !sess.Authenticated() {
		return nil, fmt.Errorf("refresh theme: %w", common.ErrNotLoggedIn)
	}

	images, err := s.client.HelpImages(ctx, sess.Endpoint(), sess.Theme)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch help images: %w", err)
	}

	dir, err := s.themeDir(sess.Theme)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)

	for i, img := range images {
		path := filepath.Join(dir, filex.SafeName(img.Name))
		paths[i] = path

		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}

		g.Go(func() error {
			data, err := s.client.Download(gctx, img.URL)
			if err != nil {
				return fmt.Errorf("download %s: %w", img.Name, err)
			}
			return filex.WriteFileAtomic(path, data)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "theme images cached", "theme", sess.Theme, "count", len(paths))
	return paths, nil
}

// CachedImage returns the path of a cached image for theme, if present.
func (s *ThemeService) CachedImage(theme, name string) (string, bool) {
	path := filepath.Join(s.cacheDir, themeCacheDir, filex.SafeName(theme), filex.SafeName(name))
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
