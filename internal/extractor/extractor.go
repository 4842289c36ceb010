// Package extractor turns stored CV binaries into plain text.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fadilmartias/cv-matcher/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported-format"
	KindCorruptDocument   Kind = "corrupt-document"
	KindTimeout           Kind = "extraction-timeout"
	KindMissingDocument   Kind = "missing-document"
)

// Error is the typed extraction failure. Callers degrade instead of aborting.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the extraction kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

type pdfParser interface {
	Pages(data []byte) ([]string, error)
}

type Options struct {
	Timeout    time.Duration
	MaxChars   int
	OCREnabled bool
}

type Extractor struct {
	fetcher storage.Fetcher
	opts    Options
	logger  *zap.Logger
	pdf     pdfParser
	group   singleflight.Group
}

func New(fetcher storage.Fetcher, opts Options, logger *zap.Logger) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		pdf:     fitzParser{ocr: opts.OCREnabled, logger: logger},
	}
}

// Extract fetches ref and returns its text. Concurrent calls for the same
// reference share one extraction. The shared work is bounded by the
// extractor timeout only, so one caller giving up does not fail the others;
// a caller whose ctx ends returns ctx.Err() unwrapped.
func (e *Extractor) Extract(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &Error{Kind: KindMissingDocument, Err: errors.New("no cv reference")}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(ref, func() (any, error) {
		return e.extract(shared, ref)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Shared {
			e.logger.Debug("cv extraction shared", zap.String("ref", ref))
		}
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (e *Extractor) extract(ctx context.Context, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	data, err := e.fetcher.Fetch(ctx, ref)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Kind: KindTimeout, Err: err}
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &Error{Kind: KindMissingDocument, Err: err}
	}
	if len(data) == 0 {
		return "", &Error{Kind: KindCorruptDocument, Err: errors.New("empty document")}
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.decode(data)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", &Error{Kind: KindTimeout, Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		text := normalize(r.text, e.opts.MaxChars)
		e.logger.Debug("cv extracted", zap.String("ref", ref), zap.Int("chars", utf8.RuneCountInString(text)))
		return text, nil
	}
}

func (e *Extractor) decode(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		pages, err := e.pdf.Pages(data)
		if err != nil {
			return "", &Error{Kind: KindCorruptDocument, Err: err}
		}
		return strings.Join(pages, "\n\n"), nil
	case isText(mtype):
		if !utf8.Valid(data) {
			return strings.ToValidUTF8(string(data), "�"), nil
		}
		return string(data), nil
	default:
		return "", &Error{Kind: KindUnsupportedFormat, Err: fmt.Errorf("detected %s", mtype.String())}
	}
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// normalize trims each line, collapses blank runs and caps the rune count.
func normalize(text string, maxChars int) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	text = strings.TrimSpace(strings.Join(out, "\n"))

	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		text = string([]rune(text)[:maxChars])
	}
	return text
}
