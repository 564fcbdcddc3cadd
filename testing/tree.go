package testing

import (
	"strings"
	"testing"

	"github.com/dargueta/compactor"
	"github.com/stretchr/testify/require"
)

// Tree describes a directory hierarchy as a map from slash-separated paths to
// file contents. A path ending in a slash is an empty directory. Parent
// directories are implied.
type Tree map[string][]byte

// BuildTree creates every file and directory of `tree` under `root`, which
// must already exist. It either succeeds or fails the test and aborts.
func BuildTree(t *testing.T, storage compactor.Storage, root string, tree Tree) {
	for name, contents := range tree {
		parts := strings.Split(strings.Trim(name, "/"), "/")
		isDir := strings.HasSuffix(name, "/")

		current := root
		for i, part := range parts {
			current = storage.Join(current, part)
			if i < len(parts)-1 || isDir {
				require.NoErrorf(t, storage.Mkdir(current), "creating directory for %q", name)
			}
		}
		if !isDir {
			require.NoErrorf(t, storage.WriteFile(current, contents), "creating %q", name)
		}
	}
}

// ReadTree is the inverse of [BuildTree]. It returns everything found under
// `root` in the same form.
func ReadTree(t *testing.T, storage compactor.Storage, root string) Tree {
	tree := Tree{}
	readTreeInto(t, storage, root, "", tree)
	return tree
}

func readTreeInto(t *testing.T, storage compactor.Storage, dir, prefix string, tree Tree) {
	entries, err := storage.ReadDir(dir)
	require.NoErrorf(t, err, "listing %q", dir)

	if len(entries) == 0 && prefix != "" {
		tree[prefix] = nil
		return
	}

	for _, entry := range entries {
		path := storage.Join(dir, entry.Name)
		if entry.IsDir {
			readTreeInto(t, storage, path, prefix+entry.Name+"/", tree)
			continue
		}

		data, err := storage.ReadFile(path)
		require.NoErrorf(t, err, "reading %q", path)
		tree[prefix+entry.Name] = data
	}
}
