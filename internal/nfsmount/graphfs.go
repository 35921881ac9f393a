// Package nfsmount exposes the document graph as an NFS export. Every
// node becomes a directory holding a small set of virtual files (the
// node's canonical value, its display rows, its path) plus one
// subdirectory per child, so the whole document can be explored with ls
// and cat. On a writable mount, saving a node's _value.json routes the
// new content through the edit pipeline.
package nfsmount

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/graph"
	"github.com/agentic-research/trellis/internal/store"
)

var errReadOnly = fmt.Errorf("read-only filesystem")

// Virtual file names inside every node directory. Object keys can never
// collide with these: the graph builder escapes a leading underscore when
// it forms entry names.
const (
	fileValue    = "_value.json"
	fileRows     = "_rows"
	filePath     = "_path"
	fileDocument = "_document.json" // root only, the whole document
)

const maxRenderCache = 2048

// GraphFS adapts the graph store to billy.Filesystem for go-nfs. Reads
// render from whichever graph is current at the time of the call; an edit
// swaps the graph underneath the mount and later reads see the new one.
type GraphFS struct {
	graphs    store.GraphStore
	editor    *editor.Editor
	mountTime time.Time
	writable  bool

	// Rendered file contents, keyed "generation:nodeID:leaf" so a swap
	// naturally invalidates everything. FIFO-bounded.
	renderMu    sync.Mutex
	renderCache map[string][]byte
	renderKeys  []string

	// seenGen/genTime give every file a mod time that advances on each
	// graph swap, so NFS clients drop their cached reads after an edit.
	seenGen uint64
	genTime time.Time
}

// NewGraphFS returns a read-only filesystem over the graph store.
func NewGraphFS(graphs store.GraphStore) *GraphFS {
	now := time.Now()
	return &GraphFS{
		graphs:      graphs,
		mountTime:   now,
		genTime:     now,
		renderCache: make(map[string][]byte),
	}
}

// SetEditor enables write support. Closing a written _value.json applies
// the content as an edit of that node; a written _document.json replaces
// the whole document.
func (fs *GraphFS) SetEditor(ed *editor.Editor) {
	fs.writable = true
	fs.editor = ed
}

// snap is one consistent view of the mounted graph.
type snap struct {
	g   *graph.Graph
	gen uint64
	at  time.Time
}

// snapshot reads the generation before the graph: a racing swap can then
// only make the cache key older than the content, never newer, so the
// cache never pins a stale render under a fresh generation.
func (fs *GraphFS) snapshot() snap {
	gen := fs.graphs.Generation()
	g := fs.graphs.Current()
	fs.renderMu.Lock()
	if gen != fs.seenGen {
		fs.seenGen = gen
		fs.genTime = time.Now()
	}
	at := fs.genTime
	fs.renderMu.Unlock()
	return snap{g: g, gen: gen, at: at}
}

// splitVirtual separates the virtual-file leaf from the node directory.
// Paths that do not end in a virtual name address the node itself.
func splitVirtual(p string) (nodeID, leaf string) {
	base := filepath.Base(p)
	switch base {
	case fileValue, fileRows, filePath, fileDocument:
		return cleanPath(filepath.Dir(p)), base
	}
	return p, ""
}

// lookup resolves a mount path to a graph node plus the virtual-file leaf
// ("" for the node directory itself).
func (fs *GraphFS) lookup(p string) (snap, *graph.Node, string, error) {
	sn := fs.snapshot()
	if sn.g == nil {
		// No document yet: the root exists and is empty.
		if p == "/" {
			return sn, nil, "", nil
		}
		return sn, nil, "", os.ErrNotExist
	}
	nodeID, leaf := splitVirtual(p)
	if leaf == fileDocument && nodeID != "/" {
		return sn, nil, "", os.ErrNotExist
	}
	node, err := sn.g.NodeByID(nodeID)
	if err != nil {
		return sn, nil, "", os.ErrNotExist
	}
	return sn, node, leaf, nil
}

// render produces a virtual file's content, consulting the FIFO cache
// first. Row and path renders are cheap; value renders serialize the
// node's whole subtree, which is what the cache is for.
func (fs *GraphFS) render(sn snap, node *graph.Node, leaf string) ([]byte, error) {
	key := fmt.Sprintf("%d:%s:%s", sn.gen, node.ID, leaf)
	fs.renderMu.Lock()
	if c, ok := fs.renderCache[key]; ok {
		fs.renderMu.Unlock()
		return c, nil
	}
	fs.renderMu.Unlock()

	var content []byte
	switch leaf {
	case fileValue, fileDocument:
		v, ok := sn.g.ValueAt(node.Path)
		if !ok {
			return nil, os.ErrNotExist
		}
		rendered, err := document.Serialize(v)
		if err != nil {
			return nil, err
		}
		content = rendered
	case fileRows:
		content = renderRows(node.Rows)
	case filePath:
		content = []byte(node.Path.String() + "\n")
	default:
		return nil, os.ErrNotExist
	}

	fs.renderMu.Lock()
	if len(fs.renderCache) >= maxRenderCache {
		evict := fs.renderKeys[0]
		fs.renderKeys = fs.renderKeys[1:]
		delete(fs.renderCache, evict)
	}
	fs.renderCache[key] = content
	fs.renderKeys = append(fs.renderKeys, key)
	fs.renderMu.Unlock()
	return content, nil
}

// renderRows lays the node's display rows out one per line, "key: value"
// for keyed rows and the bare value for a scalar's single row.
func renderRows(rows []graph.Row) []byte {
	var b strings.Builder
	for _, r := range rows {
		if r.HasKey {
			b.WriteString(r.Key)
			b.WriteString(": ")
		}
		b.WriteString(r.Value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// fileSize reports a virtual file's size without rendering where the
// graph already knows it. Value files are exactly the node's canonical
// subtree, whose length the builder precomputed.
func (fs *GraphFS) fileSize(sn snap, node *graph.Node, leaf string) int64 {
	switch leaf {
	case fileValue, fileDocument:
		return node.Size
	}
	content, err := fs.render(sn, node, leaf)
	if err != nil {
		return 0
	}
	return int64(len(content))
}

// --- billy.Basic ---

// Create signals success for existing writable files (NFS CREATE on an
// existing file). go-nfs closes the returned handle immediately; the
// content arrives through separate OpenFile calls from WRITE RPCs, so a
// no-op file avoids committing an empty edit.
func (fs *GraphFS) Create(filename string) (billy.File, error) {
	if !fs.writable {
		return nil, errReadOnly
	}
	filename = cleanPath(filename)
	_, _, leaf, err := fs.lookup(filename)
	if err != nil {
		return nil, &os.PathError{Op: "create", Path: filename, Err: os.ErrNotExist}
	}
	if leaf != fileValue && leaf != fileDocument {
		return nil, &os.PathError{Op: "create", Path: filename, Err: errReadOnly}
	}
	return &bytesFile{name: filename}, nil
}

func (fs *GraphFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *GraphFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)

	writing := flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0
	if writing {
		if !fs.writable {
			return nil, errReadOnly
		}
		return fs.openWritable(filename, flag)
	}

	sn, node, leaf, err := fs.lookup(filename)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	if leaf == "" {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}
	content, err := fs.render(sn, node, leaf)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: err}
	}
	return &bytesFile{name: filename, data: content}, nil
}

// openWritable returns a buffered file whose Close commits through the
// editor. Only value files accept writes; rows and paths are projections.
func (fs *GraphFS) openWritable(filename string, flag int) (billy.File, error) {
	sn, node, leaf, err := fs.lookup(filename)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	switch leaf {
	case "":
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	case fileValue, fileDocument:
	default:
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("read-only virtual file")}
	}

	// Pre-fill with current content for O_RDWR / partial writes.
	var buf []byte
	if flag&os.O_TRUNC == 0 {
		content, err := fs.render(sn, node, leaf)
		if err != nil {
			return nil, &os.PathError{Op: "open", Path: filename, Err: err}
		}
		buf = append(buf, content...)
	}

	commit := fs.valueCommit(node.Path)
	if leaf == fileDocument {
		commit = fs.documentCommit()
	}
	return &writeFile{name: filename, buf: buf, onClose: commit}, nil
}

func (fs *GraphFS) valueCommit(p docpath.Path) func([]byte) error {
	return func(content []byte) error {
		_, err := fs.editor.ApplyEdit(context.Background(), p, content)
		return err
	}
}

func (fs *GraphFS) documentCommit() func([]byte) error {
	return func(content []byte) error {
		_, err := fs.editor.Replace(context.Background(), content)
		return err
	}
}

func (fs *GraphFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *GraphFS) Rename(oldpath, newpath string) error {
	return errReadOnly
}

// Remove drops an object member: removing a member's directory applies a
// merge patch that nulls the member out. Array elements and virtual files
// are not removable.
func (fs *GraphFS) Remove(filename string) error {
	if !fs.writable {
		return errReadOnly
	}
	filename = cleanPath(filename)
	_, node, leaf, err := fs.lookup(filename)
	if err != nil || node == nil {
		return &os.PathError{Op: "remove", Path: filename, Err: os.ErrNotExist}
	}
	if leaf != "" {
		return &os.PathError{Op: "remove", Path: filename, Err: errReadOnly}
	}
	if node.Path.IsRoot() {
		return &os.PathError{Op: "remove", Path: filename, Err: fmt.Errorf("cannot remove the document root")}
	}
	patch, ok := removalPatch(node.Path)
	if !ok {
		return &os.PathError{Op: "remove", Path: filename, Err: fmt.Errorf("array elements are not removable")}
	}
	if _, err := fs.editor.ApplyMergePatch(context.Background(), patch); err != nil {
		return &os.PathError{Op: "remove", Path: filename, Err: err}
	}
	return nil
}

// removalPatch builds the nested merge-patch document that nulls out the
// member at p. Merge patches cannot address array elements, so any index
// segment makes the removal inexpressible.
func removalPatch(p docpath.Path) ([]byte, bool) {
	var v any
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Kind != docpath.KeySegment {
			return nil, false
		}
		v = map[string]any{p[i].Key: v}
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return doc, true
}

func (fs *GraphFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (fs *GraphFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *GraphFS) ReadDir(path string) ([]os.FileInfo, error) {
	path = cleanPath(path)

	sn, node, leaf, err := fs.lookup(path)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}
	if leaf != "" {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: fmt.Errorf("not a directory")}
	}
	if node == nil {
		return nil, nil
	}

	infos := make([]os.FileInfo, 0, len(node.Children)+4)
	if node.Path.IsRoot() {
		infos = append(infos, fs.virtualInfo(sn, node, fileDocument))
	}
	infos = append(infos,
		fs.virtualInfo(sn, node, fileValue),
		fs.virtualInfo(sn, node, fileRows),
		fs.virtualInfo(sn, node, filePath),
	)
	for _, childID := range node.Children {
		child, err := sn.g.NodeByID(childID)
		if err != nil {
			continue
		}
		infos = append(infos, fs.dirInfo(sn, child))
	}
	return infos, nil
}

func (fs *GraphFS) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

// --- billy.Symlink ---

func (fs *GraphFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)

	sn, node, leaf, err := fs.lookup(filename)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	if node == nil {
		// Empty root before the first document.
		return &staticFileInfo{name: "/", mode: os.ModeDir | 0o555, modTime: sn.at}, nil
	}
	if leaf == "" {
		return fs.dirInfo(sn, node), nil
	}
	return fs.virtualInfo(sn, node, leaf), nil
}

func (fs *GraphFS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (fs *GraphFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *GraphFS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(fs, path), nil
}

func (fs *GraphFS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (fs *GraphFS) Capabilities() billy.Capability {
	caps := billy.ReadCapability | billy.SeekCapability
	if fs.writable {
		caps |= billy.WriteCapability
	}
	return caps
}

// --- internals ---

func (fs *GraphFS) dirInfo(sn snap, node *graph.Node) os.FileInfo {
	return &staticFileInfo{
		name:    filepath.Base(node.ID),
		mode:    os.ModeDir | 0o555,
		modTime: sn.at,
	}
}

func (fs *GraphFS) virtualInfo(sn snap, node *graph.Node, leaf string) os.FileInfo {
	mode := os.FileMode(0o444)
	if fs.writable && (leaf == fileValue || leaf == fileDocument) {
		mode = 0o644
	}
	return &staticFileInfo{
		name:    leaf,
		size:    fs.fileSize(sn, node, leaf),
		mode:    mode,
		modTime: sn.at,
	}
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(path string) string {
	path = filepath.Clean("/" + path)
	if path == "." {
		return "/"
	}
	return path
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

// Compile-time interface checks.
var (
	_ billy.Filesystem = (*GraphFS)(nil)
	_ billy.Capable    = (*GraphFS)(nil)
)

var (
	_ billy.File = (*bytesFile)(nil)
	_ billy.File = (*writeFile)(nil)
)
