package navigator

import (
	"cmp"
	"slices"
	"strings"

	"github.com/brandon/mailnav/pkg/types"
)

// Flatten walks a folder tree depth-first, parents before children, in
// sibling order. Archive folders are dropped together with their subtree.
func Flatten(folders []*types.Folder) []*types.Folder {
	var out []*types.Folder
	var walk func([]*types.Folder)
	walk = func(level []*types.Folder) {
		for _, f := range level {
			if f.Type == types.FolderArchives {
				continue
			}
			out = append(out, f)
			walk(f.SubFolders)
		}
	}
	walk(folders)
	return out
}

// SortFolders orders folders by account id, then path. The sort is stable
// so folders with equal keys keep their flattened order.
func SortFolders(folders []*types.Folder, caseSensitive bool) {
	key := strings.ToLower
	if caseSensitive {
		key = func(s string) string { return s }
	}
	slices.SortStableFunc(folders, func(a, b *types.Folder) int {
		if c := cmp.Compare(a.AccountID, b.AccountID); c != 0 {
			return c
		}
		return cmp.Compare(key(a.Path), key(b.Path))
	})
}

// indexOf finds a folder by exact account id and path
func indexOf(folders []*types.Folder, ref types.FolderRef) int {
	return slices.IndexFunc(folders, func(f *types.Folder) bool {
		return f.AccountID == ref.AccountID && f.Path == ref.Path
	})
}
