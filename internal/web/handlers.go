package web

import (
	"math"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvkit/internal/convert"
	"github.com/JonMunkholm/csvkit/internal/core"
	"github.com/JonMunkholm/csvkit/internal/logging"
	"github.com/JonMunkholm/csvkit/internal/tabular"
	"github.com/JonMunkholm/csvkit/internal/web/templates"
)

// defaultHistoryLimit and maxHistoryLimit bound GET /api/history.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type formatsResponse struct {
	Formats []core.FormatDefinition `json:"formats"`
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formatsResponse{Formats: s.service.Formats()})
}

// handleStatus reports conversion slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

type detectResponse struct {
	Delimiter string `json:"delimiter"`
	Character string `json:"character"`
}

// handleDetect reports the delimiter of an uploaded file or a raw body.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}

	d, err := s.service.Detect(r.Context(), up)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, detectResponse{Delimiter: d.Name(), Character: d.String()})
}

// handleView parses an upload without cleaning it. HTML fragments are
// capped at the viewer row limit; JSON honors ?limit.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	delim, err := delimiterField(r, "delimiter")
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}

	html := wantsHTML(r)
	maxRows := parseIntParam(r, "limit", 0, math.MaxInt)
	if html {
		maxRows = s.cfg.Convert.ViewerRows
	}

	res, err := s.service.View(r.Context(), up, delim, maxRows)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}

	if html {
		s.render(w, r, templates.DataTable(templates.TableParams{
			Title:     up.Name,
			Rows:      res.Rows,
			Stats:     res.Stats,
			Truncated: res.Truncated,
		}))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleClean runs the cleaning pipeline with the options in the form.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	opts, err := cleanOptions(r)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}

	res, err := s.service.Clean(r.Context(), up, opts)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	out := opts.OutputDelimiter
	if out == 0 {
		out = s.cfg.Convert.Delimiter()
	}
	s.respondResult(w, r, up.Name, core.CleanedSuffix, out, res)
}

// handleConvert converts an upload with the format in the path; "auto"
// picks it from the file extension.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")

	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	delim, err := delimiterField(r, "delimiter")
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}

	res, err := s.service.Convert(r.Context(), format, up, delim)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	s.respondResult(w, r, up.Name, core.ConvertedSuffix, s.convertedDelimiter(format, up.Name, delim, res), res)
}

// batchItem is one file of a batch response.
type batchItem struct {
	FileName string          `json:"fileName"`
	Format   string          `json:"format,omitempty"`
	Success  bool            `json:"success"`
	Result   *tabular.Result `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Code     string          `json:"code,omitempty"`
}

type batchResponse struct {
	Files     []batchItem `json:"files"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// handleConvertBatch converts every "file" part. Files that fail, to read
// or to convert, are reported in place and never fail the request.
func (s *Server) handleConvertBatch(w http.ResponseWriter, r *http.Request) {
	ups, readErrs, err := s.readUploads(w, r)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	format := formValue(r, "format")

	// Only readable files go to the service; idx maps them back.
	var (
		readable []core.Upload
		idx      []int
	)
	for i, up := range ups {
		if _, failed := readErrs[i]; !failed {
			readable = append(readable, up)
			idx = append(idx, i)
		}
	}
	results := s.service.ConvertBatch(r.Context(), format, readable)

	resp := batchResponse{Files: make([]batchItem, len(ups))}
	for i, up := range ups {
		resp.Files[i] = batchItem{FileName: up.Name}
		if err, failed := readErrs[i]; failed {
			resp.Files[i].Error = clientErrorText(err)
			resp.Files[i].Code = core.MapError(err).Code
		}
	}
	for j, br := range results {
		item := &resp.Files[idx[j]]
		item.Format = br.Format
		switch {
		case br.Err != nil:
			item.Error = clientErrorText(br.Err)
			item.Code = core.MapError(br.Err).Code
		case !br.Result.Success:
			res := br.Result
			item.Result = &res
			item.Error = res.Error
			item.Code = core.MapMessage(res.Error).Code
		default:
			res := br.Result
			item.Result = &res
			item.Success = true
		}
	}
	for _, item := range resp.Files {
		if item.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}

	logging.FromContext(r.Context()).Info("batch converted",
		"files", len(ups),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	writeJSON(w, http.StatusOK, resp)
}

// handleLast returns the latest successful output.
func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	last, ok := s.service.Last()
	if !ok {
		respondError(w, r, errNoResult, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, last)
}

// handleLastDownload streams the latest successful output as a CSV file.
func (s *Server) handleLastDownload(w http.ResponseWriter, r *http.Request) {
	last, ok := s.service.Last()
	if !ok {
		respondError(w, r, errNoResult, http.StatusNotFound)
		return
	}
	writeCSV(w, last.DownloadName, last.Data)
}

type historyResponse struct {
	Entries []core.HistoryEntry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultHistoryLimit, maxHistoryLimit)

	entries, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, errorStatus(err))
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// respondResult answers a clean or convert Result: a failed Result with
// 422, a download with the CSV attachment, HTMX with a preview table and
// anything else with the Result as JSON. delim is the delimiter res.Data
// was written with.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, name, suffix string, delim tabular.Delimiter, res tabular.Result) {
	switch {
	case !res.Success:
		respondFailure(w, r, res)
	case isDownload(r):
		writeCSV(w, core.OutputFileName(name, suffix), res.Data)
	case wantsHTML(r):
		s.render(w, r, templates.DataTable(s.previewParams(name, suffix, delim, res)))
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// previewParams parses output for display, keeping the header and at most
// PreviewRows data rows.
func (s *Server) previewParams(name, suffix string, delim tabular.Delimiter, res tabular.Result) templates.TableParams {
	rows := tabular.Parse(res.Data, delim)
	limit := s.cfg.Convert.PreviewRows + 1

	p := templates.TableParams{
		Title:       core.OutputFileName(name, suffix),
		Rows:        rows,
		Stats:       res.Stats,
		Warning:     res.Warning,
		DownloadURL: "/api/last/download",
	}
	if len(rows) > limit {
		p.Rows = rows[:limit]
		p.Truncated = true
	}
	return p
}

// convertedDelimiter is the delimiter a conversion wrote. Structured formats
// always write commas; free text keeps the delimiter of already delimited
// lines, which is the requested one or the one detected on them.
func (s *Server) convertedDelimiter(format, name string, delim tabular.Delimiter, res tabular.Result) tabular.Delimiter {
	def, err := s.service.ResolveFormat(format, name)
	if err != nil || def.Key != core.FormatText {
		return tabular.Comma
	}
	if delim.Valid() {
		return delim
	}
	if d, ok := convert.DetectTextDelimiter(res.Data); ok {
		return d
	}
	return tabular.Comma
}

// render writes an HTML fragment.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render", "error", err)
	}
}
