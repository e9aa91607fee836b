package util

import (
	"errors"
	"path"
	"strings"
	"unicode/utf8"
)

// CutBytes returns at most n bytes of s without splitting a UTF-8 sequence.
func CutBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Truncate shortens s to n bytes and appends suffix when it was cut.
func Truncate(s string, n int, suffix string) string {
	if len(s) <= n {
		return s
	}
	return CutBytes(s, n) + suffix
}

var ErrInvalidPath = errors.New("invalid path")

// CleanRepoPath normalises a repository-relative path and rejects traversal.
// The empty path is the repository root.
func CleanRepoPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || p == "/" {
		return "", nil
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return strings.TrimPrefix(path.Clean("/"+p), "/"), nil
}
