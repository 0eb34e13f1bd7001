// Package asset defines the asset kind abstraction for linkrow.
//
// An asset is a static resource file (font, image, sound) shipped by a
// dependency. Kinds are derived from file extensions; each platform decides
// which subdirectory of its asset store a kind lands in. The package knows
// nothing about platforms or dependencies.
package asset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies an asset type.
type Kind string

const (
	KindFont  Kind = "font"
	KindImage Kind = "image"
	KindSound Kind = "sound"
	KindOther Kind = "other"
)

var extensions = map[string]Kind{
	".ttf":  KindFont,
	".otf":  KindFont,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".svg":  KindImage,
	".mp3":  KindSound,
	".wav":  KindSound,
	".aac":  KindSound,
	".m4a":  KindSound,
	".ogg":  KindSound,
}

// Kinds returns all asset kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindFont, KindImage, KindSound, KindOther}
}

// Classify returns the kind of the asset at path.
func Classify(path string) Kind {
	if k, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return KindOther
}

// Group splits paths by kind, keeping their relative order.
func Group(paths []string) map[Kind][]string {
	groups := make(map[Kind][]string)
	for _, p := range paths {
		k := Classify(p)
		groups[k] = append(groups[k], p)
	}
	return groups
}

// Layout maps kinds to subdirectories of an asset store.
// Kinds without an entry fall back to the KindOther entry.
type Layout map[Kind]string

// Store is a platform's asset directory.
type Store struct {
	Dir    string
	Layout Layout
}

// Destination returns where an asset ends up inside the store.
func (s Store) Destination(path string) string {
	sub, ok := s.Layout[Classify(path)]
	if !ok {
		sub = s.Layout[KindOther]
	}
	return filepath.Join(s.Dir, sub, filepath.Base(path))
}

// Copy copies assets into the store. Relative paths are resolved against
// srcRoot. It returns the destination of every copied file. ctx is checked
// before each asset.
func (s Store) Copy(ctx context.Context, srcRoot string, assets []string) ([]string, error) {
	copied := make([]string, 0, len(assets))
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		src := a
		if !filepath.IsAbs(src) {
			src = filepath.Join(srcRoot, filepath.FromSlash(a))
		}
		dst := s.Destination(a)

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return copied, fmt.Errorf("creating asset dir for %s: %w", a, err)
		}
		if err := copyFile(src, dst); err != nil {
			return copied, fmt.Errorf("copying asset %s: %w", a, err)
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

// copyFile copies a single file from src to dst.
func copyFile(src, dst string) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dstFile.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
