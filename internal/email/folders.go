package email

import (
	"slices"
	"strings"

	"github.com/emersion/go-imap"

	"github.com/brandon/mailnav/pkg/types"
)

const inboxName = "INBOX"

// segmentEscaper keeps a "/" inside a mailbox name from reading as a
// path separator
var segmentEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// mailboxEntry maps a folder path back to its server-side mailbox.
// Synthesized parents have no name and are not selectable.
type mailboxEntry struct {
	name       string
	selectable bool
}

var specialUse = map[string]types.FolderType{
	imap.ArchiveAttr: types.FolderArchives,
	imap.SentAttr:    types.FolderSent,
	imap.DraftsAttr:  types.FolderDrafts,
	imap.TrashAttr:   types.FolderTrash,
	imap.JunkAttr:    types.FolderJunk,
	imap.AllAttr:     types.FolderAll,
}

// BuildTree turns a flat mailbox listing into the folder tree of an account.
// Paths use "/" whatever the server delimiter is, with "/" and "%" inside a
// name escaped as "%2F" and "%25". Parents missing from the
// listing are added as non-selectable folders. Siblings are ordered INBOX
// first, then by case-insensitive name.
func BuildTree(accountID string, infos []*imap.MailboxInfo, archiveNames []string) ([]*types.Folder, map[string]mailboxEntry) {
	nodes := make(map[string]*types.Folder)
	entries := make(map[string]mailboxEntry)
	var roots []*types.Folder

	var ensure func(segments []string) *types.Folder
	ensure = func(segments []string) *types.Folder {
		path := folderPath(segments)
		if node, ok := nodes[path]; ok {
			return node
		}
		node := &types.Folder{
			AccountID: accountID,
			Name:      segments[len(segments)-1],
			Path:      path,
			Type:      types.FolderNormal,
		}
		nodes[path] = node
		if len(segments) == 1 {
			roots = append(roots, node)
		} else {
			parent := ensure(segments[:len(segments)-1])
			parent.SubFolders = append(parent.SubFolders, node)
		}
		return node
	}

	for _, info := range infos {
		segments := splitMailbox(info)
		if len(segments) == 0 {
			continue
		}
		node := ensure(segments)
		node.Selectable = !hasAttr(info.Attributes, imap.NoSelectAttr) && !hasAttr(info.Attributes, "\\NonExistent")
		node.Type = classify(segments, info.Attributes, archiveNames)
		entries[node.Path] = mailboxEntry{name: info.Name, selectable: node.Selectable}
	}

	for path := range nodes {
		if _, listed := entries[path]; !listed {
			entries[path] = mailboxEntry{}
		}
	}

	sortTree(roots)
	return roots, entries
}

// folderPath joins escaped name segments into a folder path
func folderPath(segments []string) string {
	var b strings.Builder
	for _, segment := range segments {
		b.WriteByte('/')
		b.WriteString(segmentEscaper.Replace(segment))
	}
	return b.String()
}

// splitMailbox splits a mailbox name into path segments
func splitMailbox(info *imap.MailboxInfo) []string {
	name := info.Name
	if strings.EqualFold(name, inboxName) {
		return []string{inboxName}
	}

	var parts []string
	if info.Delimiter == "" {
		parts = []string{name}
	} else {
		parts = strings.Split(name, info.Delimiter)
	}

	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) > 0 && strings.EqualFold(segments[0], inboxName) {
		segments[0] = inboxName
	}
	return segments
}

func classify(segments []string, attrs []string, archiveNames []string) types.FolderType {
	if len(segments) == 1 && segments[0] == inboxName {
		return types.FolderInbox
	}
	for _, attr := range attrs {
		for special, folderType := range specialUse {
			if strings.EqualFold(attr, special) {
				return folderType
			}
		}
	}
	name := segments[len(segments)-1]
	for _, archive := range archiveNames {
		if strings.EqualFold(name, archive) {
			return types.FolderArchives
		}
	}
	return types.FolderNormal
}

func hasAttr(attrs []string, attr string) bool {
	return slices.ContainsFunc(attrs, func(a string) bool {
		return strings.EqualFold(a, attr)
	})
}

func sortTree(folders []*types.Folder) {
	slices.SortStableFunc(folders, func(a, b *types.Folder) int {
		aInbox, bInbox := a.Type == types.FolderInbox, b.Type == types.FolderInbox
		switch {
		case aInbox && !bInbox:
			return -1
		case bInbox && !aInbox:
			return 1
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	for _, f := range folders {
		sortTree(f.SubFolders)
	}
}
