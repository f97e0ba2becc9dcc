// Package gitsource reads commit history, refs, and reflogs from an on-disk
// git repository and converts them into the graph and timeline inputs the
// layout pipeline works on. It uses the go-git library throughout; reflogs,
// which go-git does not expose, are parsed directly from the repository's
// logs directory.
package gitsource
