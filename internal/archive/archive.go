package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// BuiltinExcludes are never submitted, they are cloud document shortcuts
// that do not hold any content.
var BuiltinExcludes = []string{
	"*.gdoc",
	"*.gslides",
	"*.gsheet",
	"*.gdraw",
	"*.gtable",
	"*.gform",
}

func hidden(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

func excluded(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// Zip writes every regular file under dir to w, named by its slash separated
// path relative to dir. Hidden files, files matching one of excludes or
// BuiltinExcludes and everything under an excluded directory are left out.
// Patterns are matched against the whole relative path.
func Zip(w io.Writer, dir string, excludes []string) ([]string, error) {
	patterns := append(append([]string{}, excludes...), BuiltinExcludes...)
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("archive: invalid exclude pattern %q", pattern)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive: %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	zw := zip.NewWriter(w)

	var added []string
	err = fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		if hidden(path) || excluded(patterns, path) {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = path
		header.Method = zip.Deflate

		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		if err != nil {
			return err
		}

		added = append(added, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return added, nil
}
