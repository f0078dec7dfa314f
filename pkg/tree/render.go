package tree

import (
	"strings"
)

const (
	branchConnector = "├── "
	lastConnector   = "└── "
	branchIndent    = "│   "
	lastIndent      = "    "

	deniedMarker = "[permission denied]"
)

// Render draws the tree rooted at root, one line per entry, each line
// terminated by '\n'. Directory names carry a trailing '/'.
func Render(root *Entry) string {
	var b strings.Builder
	b.WriteString(RootLabel(root.Name))
	b.WriteString("\n")
	renderChildren(&b, root, "")
	return b.String()
}

// RootLabel is the first line of a rendered tree.
func RootLabel(name string) string {
	switch name {
	case "", ".", "/", `\`:
		return "./"
	}
	return name + "/"
}

func renderChildren(b *strings.Builder, dir *Entry, prefix string) {
	if dir.Unreadable {
		b.WriteString(prefix + lastConnector + deniedMarker + "\n")
		return
	}
	for i, child := range dir.Children {
		connector, indent := branchConnector, branchIndent
		if i == len(dir.Children)-1 {
			connector, indent = lastConnector, lastIndent
		}

		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(child.Name)
		if child.IsDir() {
			b.WriteString("/")
		}
		b.WriteString("\n")

		if child.IsDir() {
			renderChildren(b, child, prefix+indent)
		}
	}
}
