// Package editor coordinates the edit pipeline: validate the incoming
// value, patch the current document, re-serialize it canonically, persist
// the text, rebuild the graph, and re-locate the edited node in the new
// graph. All mutations go through one Editor so the text and the graph
// never drift apart.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/agentic-research/trellis/internal/control"
	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
	"github.com/agentic-research/trellis/internal/graph"
	"github.com/agentic-research/trellis/internal/patch"
	"github.com/agentic-research/trellis/internal/store"
)

// Applied describes one accepted mutation.
type Applied struct {
	EditID     string
	Text       []byte       // canonical document text after the mutation
	Graph      *graph.Graph // graph built from Text
	Generation uint64

	// Node is the edited node re-located in the new graph for ApplyEdit,
	// and the previously selected node for whole-document mutations. Nil
	// when the location no longer exists.
	Node *graph.Node

	// Changed reports whether the edited node renders differently after
	// the mutation. Whole-document mutations compare the canonical text
	// instead.
	Changed bool

	// Diff holds a readable before/after diff when diff recording is on.
	Diff string
}

// Editor owns the document and graph stores. Mutations are serialized;
// a failed mutation leaves both stores untouched.
type Editor struct {
	docs   store.DocumentStore
	graphs store.GraphStore
	ctrl   *control.Controller
	log    *log.Logger

	mu         sync.Mutex
	recordDiff bool
}

func New(docs store.DocumentStore, graphs store.GraphStore, logger *log.Logger) *Editor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Editor{docs: docs, graphs: graphs, log: logger}
}

// AttachControl publishes every accepted mutation's generation to c.
func (e *Editor) AttachControl(c *control.Controller) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl = c
}

// RecordDiffs toggles before/after diffs on Applied results.
func (e *Editor) RecordDiffs(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recordDiff = on
}

// ApplyEdit parses value, writes it into the document at p, and resyncs.
// The edited node becomes the selection when it still exists after the
// rebuild. A document that fails to parse on either side rejects the edit
// with the stores untouched.
func (e *Editor) ApplyEdit(ctx context.Context, p docpath.Path, value []byte) (*Applied, error) {
	val, err := document.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("edit value: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc, prevText, err := e.currentDocument(ctx)
	if err != nil {
		return nil, err
	}

	var prevNode *graph.Node
	if g := e.graphs.Current(); g != nil {
		prevNode = g.FindByPath(p)
	}

	doc = patch.Apply(doc, p, val)
	ap, err := e.resync(ctx, doc, prevText)
	if err != nil {
		return nil, err
	}

	ap.Node = ap.Graph.FindByPath(p)
	if ap.Node != nil {
		e.graphs.SetSelected(p)
	}
	ap.Changed = !prevNode.SameDisplay(ap.Node)
	e.log.Debugf("edit %s at %s: changed=%v generation=%d", ap.EditID, p, ap.Changed, ap.Generation)
	return ap, nil
}

// Replace swaps in a whole new document text. The text must parse; the
// canonical re-serialization is what gets stored, not the input bytes.
func (e *Editor) Replace(ctx context.Context, text []byte) (*Applied, error) {
	doc, err := document.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("replacement document: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prevText, err := e.docs.CurrentText(ctx)
	if err != nil && !errors.Is(err, store.ErrNoDocument) {
		return nil, err
	}
	ap, err := e.resync(ctx, doc, prevText)
	if err != nil {
		return nil, err
	}
	e.finishWholeDoc(ap, prevText)
	e.log.Debugf("replace %s: %d bytes, generation=%d", ap.EditID, len(ap.Text), ap.Generation)
	return ap, nil
}

// ApplyPatchOps applies an RFC 6902 patch to the document text. An empty
// store patches against the empty object.
func (e *Editor) ApplyPatchOps(ctx context.Context, ops []byte) (*Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyTextPatch(ctx, ops, patch.ApplyOps)
}

// ApplyMergePatch applies an RFC 7386 merge patch to the document text.
func (e *Editor) ApplyMergePatch(ctx context.Context, mergeDoc []byte) (*Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyTextPatch(ctx, mergeDoc, patch.MergeText)
}

func (e *Editor) applyTextPatch(ctx context.Context, arg []byte, apply func(text, arg []byte) ([]byte, error)) (*Applied, error) {
	prevText, err := e.docs.CurrentText(ctx)
	if err != nil && !errors.Is(err, store.ErrNoDocument) {
		return nil, err
	}

	base := prevText
	if base == nil {
		base = []byte("{}")
	}
	patched, err := apply(base, arg)
	if err != nil {
		return nil, err
	}
	doc, err := document.Parse(patched)
	if err != nil {
		return nil, fmt.Errorf("patched document: %w", err)
	}

	ap, err := e.resync(ctx, doc, prevText)
	if err != nil {
		return nil, err
	}
	e.finishWholeDoc(ap, prevText)
	e.log.Debugf("patch %s: changed=%v generation=%d", ap.EditID, ap.Changed, ap.Generation)
	return ap, nil
}

// Reload re-reads the store and rebuilds the graph, for startup and for
// documents changed behind the editor's back. A selection whose path no
// longer resolves is cleared.
func (e *Editor) Reload(ctx context.Context) (*Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	text, err := e.docs.CurrentText(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := document.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("stored document: %w", err)
	}

	ap, err := e.resync(ctx, doc, text)
	if err != nil {
		return nil, err
	}
	ap.Changed = !bytes.Equal(text, ap.Text)
	if sel, ok := e.graphs.Selected(); ok {
		ap.Node = ap.Graph.FindByPath(sel)
		if ap.Node == nil {
			e.graphs.ClearSelected()
		}
	}
	e.log.Debugf("reload %s: %d nodes, generation=%d", ap.EditID, ap.Graph.Len(), ap.Generation)
	return ap, nil
}

// currentDocument loads and parses the stored text. An empty store yields
// a nil document, which the patcher treats as absent.
func (e *Editor) currentDocument(ctx context.Context) (any, []byte, error) {
	text, err := e.docs.CurrentText(ctx)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	doc, err := document.Parse(text)
	if err != nil {
		return nil, nil, fmt.Errorf("current document: %w", err)
	}
	return doc, text, nil
}

// resync is the commit point: serialize, persist, rebuild, swap, publish.
// The text store is written before the graph swap so a crash in between
// recovers by rebuilding from the stored text.
func (e *Editor) resync(ctx context.Context, doc any, prevText []byte) (*Applied, error) {
	text, err := document.Serialize(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	if err := e.docs.SetText(ctx, text); err != nil {
		return nil, fmt.Errorf("store text: %w", err)
	}

	g := graph.Build(doc)
	gen := e.graphs.SetGraph(g)
	if e.ctrl != nil {
		e.ctrl.Publish(gen, uint64(len(text)))
	}

	ap := &Applied{
		EditID:     uuid.NewString(),
		Text:       text,
		Graph:      g,
		Generation: gen,
	}
	if e.recordDiff {
		ap.Diff = prettyDiff(prevText, text)
	}
	return ap, nil
}

// finishWholeDoc fills the text-level Changed flag and re-locates the
// previous selection, which stays put even when its node is gone.
func (e *Editor) finishWholeDoc(ap *Applied, prevText []byte) {
	ap.Changed = !bytes.Equal(prevText, ap.Text)
	if sel, ok := e.graphs.Selected(); ok {
		ap.Node = ap.Graph.FindByPath(sel)
	}
}

func prettyDiff(before, after []byte) string {
	dmp := diffmatchpatch.New()
	multiline := bytes.ContainsRune(before, '\n') && bytes.ContainsRune(after, '\n')
	diffs := dmp.DiffMain(string(before), string(after), multiline)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}
