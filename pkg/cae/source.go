package cae

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
)

// splitScheme splits a "scheme::path" reference.
func splitScheme(ref string) (scheme, path string, err error) {
	parts := strings.SplitN(ref, "::", 2)
	if len(parts) != 2 {
		return "", "", taxonomy.Wrap(taxonomy.ManifestInvalid, fmt.Errorf("reference %q has no scheme::path form", ref))
	}
	return parts[0], parts[1], nil
}

// resolveFiles returns every local file a src reference names: the
// file itself, or (for a directory) every entry whose path relative to
// src matches an include pattern and no exclude pattern. Only the
// "file" scheme is implemented; anything else surfaces io-error, since
// this port has no object-store or HDF5 client in its dependency set.
func resolveFiles(src string, filter *DatasetFilter) ([]string, error) {
	scheme, path, err := splitScheme(src)
	if err != nil {
		return nil, err
	}
	if scheme != "file" {
		return nil, taxonomy.Wrap(taxonomy.IOError, unsupportedScheme(scheme))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.IOError, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	include, exclude, err := compilePatterns(filter)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}

	var files []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(path, p)
		if matches(rel, include, exclude) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.IOError, err)
	}
	return files, nil
}

func compilePatterns(filter *DatasetFilter) (include, exclude []*regexp.Regexp, err error) {
	if filter == nil {
		return nil, nil, nil
	}
	for _, p := range filter.IncludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, err
		}
		include = append(include, re)
	}
	for _, p := range filter.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, err
		}
		exclude = append(exclude, re)
	}
	return include, exclude, nil
}

func matches(rel string, include, exclude []*regexp.Regexp) bool {
	for _, re := range exclude {
		if re.MatchString(rel) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, re := range include {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

type unsupportedScheme string

func (e unsupportedScheme) Error() string { return "unsupported src scheme: " + string(e) }
