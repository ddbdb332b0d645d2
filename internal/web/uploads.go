package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvkit/internal/core"
	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// multipartMemory is how much of a multipart form is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

// maxBatchFiles caps the files accepted by one batch request.
const maxBatchFiles = 16

var (
	errNoFile   = errors.New("no file provided")
	errNoResult = errors.New("no result available")
	errBadField = errors.New("invalid form field")
)

// limitBody caps the request body at the upload limit plus room for the
// multipart envelope.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request, files int) {
	limit := s.cfg.Convert.MaxFileSize.Int64()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(files)*limit+multipartMemory)
	}
}

// readUpload reads the "file" part of a multipart form, or the raw body for
// other content types. A raw body takes its name from the ?name parameter.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (core.Upload, error) {
	s.limitBody(w, r, 1)
	limit := s.cfg.Convert.MaxFileSize.Int64()

	if !isMultipart(r) {
		data, err := core.ReadUpload(r.Body, limit)
		if err != nil {
			return core.Upload{}, err
		}
		q := r.URL.Query()
		return core.Upload{Name: q.Get("name"), Data: data, Encoding: q.Get("encoding")}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return core.Upload{}, fmt.Errorf("parse form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return core.Upload{}, errNoFile
		}
		return core.Upload{}, fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	data, err := core.ReadUpload(file, limit)
	if err != nil {
		return core.Upload{}, err
	}
	return core.Upload{Name: header.Filename, Data: data, Encoding: r.FormValue("encoding")}, nil
}

// readUploads reads every "file" part. A file that cannot be read is
// returned in failed, keyed by its position, and leaves a zero Upload.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]core.Upload, map[int]error, error) {
	if !isMultipart(r) {
		return nil, nil, errNoFile
	}
	s.limitBody(w, r, maxBatchFiles)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, nil, fmt.Errorf("parse form: %w", err)
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		return nil, nil, errNoFile
	}
	if len(headers) > maxBatchFiles {
		return nil, nil, fmt.Errorf("%w file: at most %d files per batch", errBadField, maxBatchFiles)
	}

	limit := s.cfg.Convert.MaxFileSize.Int64()
	encoding := r.FormValue("encoding")
	ups := make([]core.Upload, len(headers))
	failed := make(map[int]error)

	for i, fh := range headers {
		ups[i].Name = fh.Filename
		f, err := fh.Open()
		if err != nil {
			failed[i] = fmt.Errorf("open %q: %w", fh.Filename, err)
			continue
		}
		data, err := core.ReadUpload(f, limit)
		f.Close()
		if err != nil {
			failed[i] = err
			continue
		}
		ups[i] = core.Upload{Name: fh.Filename, Data: data, Encoding: encoding}
	}
	return ups, failed, nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// formValue reads a form field, falling back to the query string.
func formValue(r *http.Request, name string) string {
	if v := r.FormValue(name); v != "" {
		return v
	}
	return r.URL.Query().Get(name)
}

// delimiterField parses a delimiter field; empty and "auto" mean detect.
func delimiterField(r *http.Request, name string) (tabular.Delimiter, error) {
	d, err := tabular.ParseDelimiter(formValue(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", errBadField, name, err)
	}
	return d, nil
}

// boolField parses a boolean field. Checkbox values "on" and "off" are
// accepted; an absent field returns def.
func boolField(r *http.Request, name string, def bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(formValue(r, name)))
	switch v {
	case "":
		return def, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%w %s: %q is not a boolean", errBadField, name, v)
	}
	return b, nil
}

// cleanOptions builds cleaning options from the request. Absent stage
// fields stay enabled.
func cleanOptions(r *http.Request) (tabular.CleanOptions, error) {
	opts := tabular.DefaultCleanOptions()
	opts.OutputDelimiter = 0

	var err error
	if opts.RemoveEmptyRows, err = boolField(r, "removeEmptyRows", true); err != nil {
		return opts, err
	}
	if opts.RemoveEmptyColumns, err = boolField(r, "removeEmptyColumns", true); err != nil {
		return opts, err
	}
	if opts.TrimWhitespace, err = boolField(r, "trimWhitespace", true); err != nil {
		return opts, err
	}
	if opts.InputDelimiter, err = delimiterField(r, "inputDelimiter"); err != nil {
		return opts, err
	}
	if opts.OutputDelimiter, err = delimiterField(r, "outputDelimiter"); err != nil {
		return opts, err
	}
	return opts, nil
}

// parseIntParam parses a positive integer query parameter, returning def
// when it is absent or invalid and capping it at ceiling.
func parseIntParam(r *http.Request, name string, def, ceiling int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return def
	}
	return min(i, ceiling)
}

// isDownload reports whether the client asked for the CSV as a file.
func isDownload(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("download"))
	return v
}

// writeCSV streams data as an attachment named name.
func writeCSV(w http.ResponseWriter, name, data string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(data))
}
