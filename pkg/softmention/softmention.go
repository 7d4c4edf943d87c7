// Package softmention extracts software mentions from text and documents.
//
// The Engine wires the stages together: a sequence labeler tags tokens,
// labeled components are grouped into entities, optionally disambiguated,
// confident names are propagated to unlabeled occurrences, reference
// callouts are attached and entities sharing a name are reconciled.
package softmention

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/softmention/pkg/softmention/aggregate"
	"github.com/cognicore/softmention/pkg/softmention/consistency"
	"github.com/cognicore/softmention/pkg/softmention/disambiguate"
	"github.com/cognicore/softmention/pkg/softmention/extract"
	"github.com/cognicore/softmention/pkg/softmention/ingest"
	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/label"
	"github.com/cognicore/softmention/pkg/softmention/lexicon"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/metrics"
	"github.com/cognicore/softmention/pkg/softmention/normalize"
	"github.com/cognicore/softmention/pkg/softmention/profile"
	"github.com/cognicore/softmention/pkg/softmention/propagate"
	"github.com/cognicore/softmention/pkg/softmention/refs"
	"github.com/cognicore/softmention/pkg/softmention/store"
)

// Segment names used by document producers. Figure and table content is
// labeled line by line.
const (
	SegmentTitle    = "title"
	SegmentAbstract = "abstract"
	SegmentBody     = "body"
	SegmentFigure   = "figure"
	SegmentTable    = "table"
)

// Engine is the software mention extraction facade
type Engine struct {
	tokenizer     *ingest.Tokenizer
	labeler       label.Labeler
	disambiguator disambiguate.Disambiguator
	rarity        *lexicon.Table
	store         store.Store
	metrics       *metrics.Metrics
	logger        *slog.Logger

	mu      sync.Mutex
	entropy io.Reader
}

// Options configures an Engine. Only Labeler is required in practice; a
// missing labeler finds nothing.
type Options struct {
	Tokenizer     *ingest.Tokenizer
	Labeler       label.Labeler
	Disambiguator disambiguate.Disambiguator
	Rarity        *lexicon.Table
	Store         store.Store      // optional, results are persisted when set
	Metrics       *metrics.Metrics // optional
	Logger        *slog.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	e := &Engine{
		tokenizer:     opts.Tokenizer,
		labeler:       opts.Labeler,
		disambiguator: opts.Disambiguator,
		rarity:        opts.Rarity,
		store:         opts.Store,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		entropy:       ulid.Monotonic(rand.Reader, 0),
	}
	if e.tokenizer == nil {
		e.tokenizer = ingest.NewTokenizer()
	}
	if e.labeler == nil {
		e.labeler = label.NewGazetteer(e.tokenizer, nil)
	}
	if e.disambiguator == nil {
		e.disambiguator = disambiguate.Nop{}
	}
	if e.rarity == nil {
		e.rarity = lexicon.New()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Segment is a named part of a document. Segments are laid out one after
// the other, separated by a single newline, which defines the offsets of
// callouts and results.
//
// Tokens optionally carries the output of an external segmenter, with
// document offsets. When set it replaces tokenization of Text and is
// re-split with the engine's tokenizer rules.
type Segment struct {
	Name   string          `json:"name"`
	Text   string          `json:"text"`
	Page   int             `json:"page,omitempty"`
	Tokens []mention.Token `json:"tokens,omitempty"`
}

// Document is a segmented document with its bibliography and the
// reference callouts found in its text.
type Document struct {
	Source       string         `json:"source,omitempty"`
	Title        string         `json:"title,omitempty"`
	Segments     []Segment      `json:"segments"`
	Bibliography []string       `json:"bibliography,omitempty"`
	Callouts     []refs.Callout `json:"callouts,omitempty"`
}

// Text returns the document text the offsets refer to.
func (d Document) Text() string {
	parts := make([]string, len(d.Segments))
	for i, s := range d.Segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, "\n")
}

// Result is the outcome of processing a document.
type Result struct {
	DocID    string
	Entities []mention.Entity
	Records  []mention.Record
	Runtime  time.Duration
}

// ProcessText extracts software mentions from plain text. The text is
// normalized first, so offsets refer to the normalized form. Blank text
// yields an empty list.
func (e *Engine) ProcessText(ctx context.Context, text string, disambiguate bool) (entities []mention.Entity, err error) {
	start := time.Now()
	defer func() { e.observe(start, entities, err) }()
	defer e.recoverInto(&err)

	text = normalize.Text(text)
	if strings.TrimSpace(text) == "" {
		return []mention.Entity{}, nil
	}

	tokens := e.tokenizer.Tokenize(text)
	found, err := e.labelTokens(ctx, tokens)
	if err != nil {
		return nil, err
	}
	found = e.resolve(ctx, found, tokens, disambiguate)
	return consistency.Reconcile(found), nil
}

// ProcessDocument extracts software mentions from every segment of doc,
// attaches reference callouts and, when a store is configured, persists
// the result. A labeler failure aborts the whole document.
func (e *Engine) ProcessDocument(ctx context.Context, doc Document, disambiguate bool) (res Result, err error) {
	start := time.Now()
	defer func() { e.observe(start, res.Entities, err) }()
	defer e.recoverInto(&err)

	var (
		tokens   []mention.Token
		found    []mention.Entity
		segments []segmentRange
		base     int
	)
	for _, seg := range doc.Segments {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		segTokens := e.segmentTokens(seg, base)
		entities, err := e.labelSegment(ctx, seg, segTokens)
		if err != nil {
			return Result{}, fmt.Errorf("segment %q: %w", seg.Name, err)
		}
		found = append(found, entities...)
		tokens = append(tokens, segTokens...)
		segments = append(segments, segmentRange{name: seg.Name, span: mention.Span{Start: base, End: base + len(seg.Text)}})
		base += len(seg.Text) + 1
	}

	found = e.resolve(ctx, found, tokens, disambiguate)
	for i := range found {
		if found[i].Segment == "" {
			found[i].Segment = segmentAt(segments, found[i].Start())
		}
	}

	resolved := refs.Resolve(doc.Callouts, len(doc.Bibliography), e.logger)
	e.metrics.ObserveCallouts(len(resolved), len(doc.Callouts)-len(resolved))
	found = refs.FilterByCallout(found, resolved)
	found = refs.Attach(found, resolved)
	found = consistency.Reconcile(found)

	docID, err := e.newID()
	if err != nil {
		return Result{}, err
	}
	if e.store != nil {
		stored, err := e.store.UpsertDoc(ctx, store.NewDoc(docID, doc.Source, doc.Title, found))
		if err != nil {
			return Result{}, fmt.Errorf("persist document: %w", err)
		}
		docID = stored.ID
	}

	e.logger.Debug("processed document", "doc_id", docID, "source", doc.Source,
		"segments", len(doc.Segments), "entities", len(found))
	return Result{
		DocID:    docID,
		Entities: found,
		Records:  mention.ToRecords(found),
		Runtime:  time.Since(start),
	}, nil
}

func (e *Engine) segmentTokens(seg Segment, base int) []mention.Token {
	if len(seg.Tokens) > 0 {
		return e.tokenizer.Retokenize(seg.Tokens)
	}
	return e.tokenizer.TokenizeAt(seg.Text, base, seg.Page)
}

// labelSegment labels one segment and tags its entities with the segment
// name. Figure and table segments are labeled line by line.
func (e *Engine) labelSegment(ctx context.Context, seg Segment, tokens []mention.Token) ([]mention.Entity, error) {
	runs := [][]mention.Token{tokens}
	if lineByLine(seg.Name) {
		runs = ingest.SplitLines(tokens)
	}

	var out []mention.Entity
	for _, run := range runs {
		entities, err := e.labelTokens(ctx, run)
		if err != nil {
			return nil, err
		}
		for i := range entities {
			entities[i].Segment = seg.Name
		}
		out = append(out, entities...)
	}
	return out, nil
}

// labelTokens runs the labeler and groups the labeled components.
func (e *Engine) labelTokens(ctx context.Context, tokens []mention.Token) ([]mention.Entity, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	labels, err := e.labeler.Label(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrLabeling, err)
	}
	if len(labels) != len(tokens) {
		return nil, fmt.Errorf("%w: %d labels for %d tokens", internalerr.ErrLabeling, len(labels), len(tokens))
	}
	components, err := extract.Components(tokens, labels)
	if err != nil {
		return nil, err
	}
	return aggregate.GroupByEntities(components), nil
}

// resolve disambiguates entities when asked to and propagates their names
// over the whole token stream. A disambiguation failure leaves entities
// unresolved.
func (e *Engine) resolve(ctx context.Context, entities []mention.Entity, tokens []mention.Token, disambiguate bool) []mention.Entity {
	if disambiguate && len(entities) > 0 {
		resolved, err := e.disambiguator.Disambiguate(ctx, entities, tokens)
		if err != nil {
			e.logger.Warn("disambiguation failed", "entities", len(entities), "error", err)
		} else {
			entities = resolved
		}
	}
	idx := profile.Build(entities, tokens, e.tokenizer, e.rarity)
	return propagate.Propagate(tokens, entities, idx)
}

func (e *Engine) newID() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := ulid.New(ulid.Now(), e.entropy)
	if err != nil {
		return "", fmt.Errorf("generate document id: %w", err)
	}
	return id.String(), nil
}

func (e *Engine) recoverInto(err *error) {
	if r := recover(); r != nil {
		e.logger.Error("mention pipeline panicked", "panic", r, "stack", string(debug.Stack()))
		*err = fmt.Errorf("%w: %v", internalerr.ErrProcessing, r)
	}
}

func (e *Engine) observe(start time.Time, entities []mention.Entity, err error) {
	if err != nil {
		e.metrics.ObserveDocument(metrics.StatusError, time.Since(start))
		return
	}
	e.metrics.ObserveDocument(metrics.StatusOK, time.Since(start))
	e.metrics.ObserveEntities(entities)
}

type segmentRange struct {
	name string
	span mention.Span
}

func segmentAt(segments []segmentRange, offset int) string {
	for _, s := range segments {
		if offset >= s.span.Start && offset < s.span.End {
			return s.name
		}
	}
	return ""
}

func lineByLine(segment string) bool {
	name := strings.ToLower(segment)
	return strings.HasPrefix(name, SegmentFigure) || strings.HasPrefix(name, SegmentTable)
}
