package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvkit/internal/logging"
	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// ErrUnknownFormat is returned when a format key or file extension has no
// registered converter.
var ErrUnknownFormat = errors.New("unknown format")

// DefaultTimeout bounds one operation when Options.Timeout is not set.
const DefaultTimeout = 2 * time.Minute

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxConcurrent   int
	MaxWait         time.Duration
	Timeout         time.Duration
	DefaultEncoding string
	OutputDelimiter tabular.Delimiter

	Formats *FormatRegistry
	History HistoryStore
	Metrics *Metrics
}

// Upload is one file handed to the service.
type Upload struct {
	Name string
	Data []byte

	// Encoding is the charset of text uploads; empty uses the default.
	Encoding string
}

// Service runs detect, view, clean and convert operations with bounded
// concurrency, metrics and history. It is safe for concurrent use.
type Service struct {
	formats  *FormatRegistry
	history  HistoryStore
	metrics  *Metrics
	limiter  *ConversionLimiter
	last     lastResultCache
	timeout  time.Duration
	encoding string
	outDelim tabular.Delimiter
}

// NewService creates a Service. Without a registry the built-in formats
// are registered with no binary decoders; without a history store entries
// are kept in memory.
func NewService(opts Options) *Service {
	s := &Service{
		formats:  opts.Formats,
		history:  opts.History,
		metrics:  opts.Metrics,
		limiter:  NewConversionLimiter(opts.MaxConcurrent, opts.MaxWait),
		timeout:  opts.Timeout,
		encoding: opts.DefaultEncoding,
		outDelim: opts.OutputDelimiter,
	}
	if s.formats == nil {
		s.formats = NewFormatRegistry(BuiltinFormats(nil, nil)...)
	}
	if s.history == nil {
		s.history = NewMemoryHistory(DefaultHistoryCapacity)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if !s.outDelim.Valid() {
		s.outDelim = tabular.Comma
	}
	return s
}

// ----------------------------------------------------------------------------
// Formats
// ----------------------------------------------------------------------------

// Formats lists the registered formats.
func (s *Service) Formats() []FormatDefinition { return s.formats.All() }

// ResolveFormat returns the format for key. An empty key or "auto" selects
// the format by the file name's extension.
func (s *Service) ResolveFormat(key, fileName string) (FormatDefinition, error) {
	if key == "" || key == FormatAuto {
		if def, ok := s.formats.ForFile(fileName); ok {
			return def, nil
		}
		return FormatDefinition{}, fmt.Errorf("%w for file %q", ErrUnknownFormat, fileName)
	}
	if def, ok := s.formats.Get(key); ok {
		return def, nil
	}
	return FormatDefinition{}, fmt.Errorf("%w %q", ErrUnknownFormat, key)
}

// ----------------------------------------------------------------------------
// Operations
// ----------------------------------------------------------------------------

// Detect returns the delimiter detected on the first line of the upload.
func (s *Service) Detect(ctx context.Context, up Upload) (tabular.Delimiter, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	text, err := s.text(up)
	if err != nil {
		return 0, err
	}
	return tabular.Detect(text), nil
}

// ViewResult is a parsed upload for display. Rows is capped at the
// requested maximum; Stats always describe the whole upload.
type ViewResult struct {
	Delimiter string        `json:"delimiter"`
	Rows      tabular.Data  `json:"rows"`
	Stats     tabular.Stats `json:"stats"`
	Truncated bool          `json:"truncated"`
}

// View parses the upload without cleaning it. A maxRows of zero or less
// returns every row.
func (s *Service) View(ctx context.Context, up Upload, delim tabular.Delimiter, maxRows int) (ViewResult, error) {
	if err := ctx.Err(); err != nil {
		return ViewResult{}, err
	}
	text, err := s.text(up)
	if err != nil {
		s.metrics.observe(OperationView, "", StatusError, int64(len(up.Data)), 0)
		return ViewResult{}, err
	}

	start := time.Now()
	if delim == 0 {
		delim = tabular.Detect(text)
	}
	data, stats := tabular.View(text, delim)
	s.metrics.observe(OperationView, "", StatusSuccess, int64(len(up.Data)), time.Since(start))

	res := ViewResult{Delimiter: delim.Name(), Rows: data, Stats: stats}
	if maxRows > 0 && len(data) > maxRows {
		res.Rows = data[:maxRows]
		res.Truncated = true
	}
	return res, nil
}

// Clean runs the cleaning pipeline over the upload. A failed cleaning is
// reported in the Result; the error covers decoding, the conversion slot
// and the context.
func (s *Service) Clean(ctx context.Context, up Upload, opts tabular.CleanOptions) (tabular.Result, error) {
	if opts.OutputDelimiter == 0 {
		opts.OutputDelimiter = s.outDelim
	}

	return s.run(ctx, OperationClean, "", up, func(context.Context) (tabular.Result, error) {
		text, err := s.text(up)
		if err != nil {
			return tabular.Result{}, err
		}
		return tabular.Clean(text, opts), nil
	})
}

// Convert converts the upload with the named format, or by its extension
// when format is empty or "auto". delim applies to the text format only.
func (s *Service) Convert(ctx context.Context, format string, up Upload, delim tabular.Delimiter) (tabular.Result, error) {
	def, err := s.ResolveFormat(format, up.Name)
	if err != nil {
		s.metrics.observe(OperationConvert, format, StatusError, int64(len(up.Data)), 0)
		return tabular.Result{}, err
	}

	return s.run(ctx, OperationConvert, def.Key, up, func(ctx context.Context) (tabular.Result, error) {
		in := Input{Name: up.Name, Delimiter: delim}
		if def.Binary {
			in.Data = up.Data
		} else {
			text, err := s.text(up)
			if err != nil {
				return tabular.Result{}, err
			}
			in.Text = text
		}
		return def.Convert(ctx, in), nil
	})
}

// BatchResult is the outcome for one file of a batch.
type BatchResult struct {
	FileName string         `json:"fileName"`
	Format   string         `json:"format,omitempty"`
	Result   tabular.Result `json:"result"`
	Err      error          `json:"-"`
}

// ConvertBatch converts every upload concurrently, at most as many at a
// time as the limiter allows. Results keep the order of ups and a failing
// file never stops the others.
func (s *Service) ConvertBatch(ctx context.Context, format string, ups []Upload) []BatchResult {
	results := make([]BatchResult, len(ups))

	var g errgroup.Group
	g.SetLimit(s.limiter.MaxConcurrent())

	for i, up := range ups {
		g.Go(func() error {
			br := BatchResult{FileName: up.Name}
			if def, err := s.ResolveFormat(format, up.Name); err == nil {
				br.Format = def.Key
			}
			br.Result, br.Err = s.Convert(ctx, format, up, 0)
			results[i] = br
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ----------------------------------------------------------------------------
// State
// ----------------------------------------------------------------------------

// Last returns the latest successful clean or convert output.
func (s *Service) Last() (LastResult, bool) { return s.last.load() }

// History returns up to limit recent entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	return s.history.Recent(ctx, limit)
}

// LimiterStatus reports conversion slot usage.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForConversions blocks until in-flight operations finish or ctx is done.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Metrics returns the service's collectors.
func (s *Service) Metrics() *Metrics { return s.metrics }

// ----------------------------------------------------------------------------
// Internals
// ----------------------------------------------------------------------------

type operationFunc func(ctx context.Context) (tabular.Result, error)

// run executes fn holding a conversion slot and bounded by the service
// timeout, then records metrics, history and the last result.
func (s *Service) run(ctx context.Context, operation, format string, up Upload, fn operationFunc) (tabular.Result, error) {
	log := logging.WithFields(ctx, "operation", operation, "format", format, "file", up.Name)
	size := int64(len(up.Data))

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("conversion rejected", "error", err)
		s.metrics.observe(operation, format, StatusError, size, 0)
		return tabular.Result{}, fmt.Errorf("%s: %w", operation, err)
	}
	defer s.limiter.Release()

	s.metrics.started()
	defer s.metrics.finished()

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := runBounded(opCtx, fn)
	elapsed := time.Since(start)

	status := StatusSuccess
	switch {
	case err != nil:
		status = StatusError
		log.Warn("conversion error", "error", err, "duration_ms", elapsed.Milliseconds())
	case !res.Success:
		status = StatusFailure
		log.Warn("conversion failed", "error", res.Error, "duration_ms", elapsed.Milliseconds())
	default:
		log.Debug("conversion completed",
			"rows", res.Stats.Rows,
			"columns", res.Stats.Columns,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	s.metrics.observe(operation, format, status, size, elapsed)
	s.record(ctx, operation, format, up, res, err, elapsed)

	if err != nil {
		return tabular.Result{}, fmt.Errorf("%s: %w", operation, err)
	}
	if res.Success {
		suffix := ConvertedSuffix
		if operation == OperationClean {
			suffix = CleanedSuffix
		}
		s.last.store(LastResult{
			Operation:    operation,
			Format:       format,
			FileName:     up.Name,
			DownloadName: OutputFileName(up.Name, suffix),
			Rows:         res.Stats.Rows,
			Columns:      res.Stats.Columns,
			Data:         res.Data,
			CreatedAt:    time.Now(),
		})
	}
	return res, nil
}

// runBounded returns when fn does or when ctx is done, whichever is first.
// The parsers do not observe ctx, so a timed out fn finishes in the
// background and its result is dropped.
func runBounded(ctx context.Context, fn operationFunc) (tabular.Result, error) {
	type outcome struct {
		res tabular.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := fn(ctx)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return tabular.Result{}, ctx.Err()
	}
}

func (s *Service) record(ctx context.Context, operation, format string, up Upload, res tabular.Result, err error, elapsed time.Duration) {
	entry := HistoryEntry{
		ID:          uuid.NewString(),
		Operation:   operation,
		Format:      format,
		FileName:    up.Name,
		Success:     err == nil && res.Success,
		Error:       res.Error,
		Warning:     res.Warning,
		Rows:        res.Stats.Rows,
		Columns:     res.Stats.Columns,
		InputBytes:  int64(len(up.Data)),
		OutputBytes: int64(len(res.Data)),
		Duration:    elapsed,
		ClientIP:    ClientIPFromContext(ctx),
		CreatedAt:   time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	// Recorded even when the request was cancelled.
	if err := s.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.FromContext(ctx).Error("record history", "error", err)
	}
}

// text decodes a text upload with its charset or the service default.
func (s *Service) text(up Upload) (string, error) {
	if len(up.Data) == 0 {
		return "", ErrEmptyInput
	}
	charset := up.Encoding
	if charset == "" {
		charset = s.encoding
	}
	return DecodeText(up.Data, charset)
}
