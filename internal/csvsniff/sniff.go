// Package csvsniff builds a structural preview of a delimited file from a
// bounded prefix, so the upload step can show columns and sample rows without
// reading (or shipping) the whole file.
package csvsniff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxPrefixBytes bounds how much of the file is read for a preview. Large CI
// exports run into the hundreds of megabytes; the prefix keeps sniff latency
// flat regardless of file size.
const MaxPrefixBytes = 100_000

// MaxSampleRows caps how many parsed data rows a preview carries.
const MaxSampleRows = 5

// Preview is the sniffed structure of a delimited file. It is immutable once
// built; choosing a new file replaces it wholesale.
type Preview struct {
	Columns    []string            `json:"columns"`
	SampleRows []map[string]string `json:"sample_rows"`
	TotalRows  int                 `json:"total_rows"`
	FileName   string              `json:"file_name"`
	FileSize   int64               `json:"file_size"`
}

// ParseError reports a prefix that yielded no usable structure.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sniff %s: %v", e.FileName, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNoHeader = errors.New("no header fields found")

// Sniff reads at most MaxPrefixBytes from r and parses a header plus up to
// MaxSampleRows data rows. size is the full file size in bytes and drives the
// total-row estimate. A prefix that breaks mid-row is tolerated as long as at
// least the header parsed; a prefix with zero header fields is a ParseError.
func Sniff(r io.Reader, name string, size int64) (*Preview, error) {
	buf := make([]byte, MaxPrefixBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, &ParseError{FileName: name, Err: err}
	}
	prefix := buf[:n]

	reader := csv.NewReader(strings.NewReader(string(prefix)))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := readHeader(reader)
	if err != nil {
		return nil, &ParseError{FileName: name, Err: err}
	}

	samples, parsed := readSamples(reader, header)

	p := &Preview{
		Columns:    header,
		SampleRows: samples,
		FileName:   name,
		FileSize:   size,
	}
	p.TotalRows = estimateRows(int64(n), size, parsed)
	if p.TotalRows <= 0 {
		p.TotalRows = parsed
	}
	return p, nil
}

// readHeader returns the first non-empty record as the column list.
func readHeader(r *csv.Reader) ([]string, error) {
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil, errNoHeader
		}
		if err != nil {
			return nil, err
		}
		if isBlankRecord(rec) {
			continue
		}
		cols := make([]string, 0, len(rec))
		for _, c := range rec {
			cols = append(cols, strings.TrimSpace(c))
		}
		return cols, nil
	}
}

// readSamples parses up to MaxSampleRows rows, counting every data row seen.
// Parse errors past the header end the scan without failing the preview; a
// truncated prefix always breaks mid-row eventually.
func readSamples(r *csv.Reader, header []string) ([]map[string]string, int) {
	samples := make([]map[string]string, 0, MaxSampleRows)
	parsed := 0
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		if isBlankRecord(rec) {
			continue
		}
		parsed++
		if len(samples) >= MaxSampleRows {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		samples = append(samples, row)
	}
	return samples, parsed
}

// estimateRows extrapolates the data-row count from the bytes actually read.
// The +1 accounts for the header sharing the prefix with the sampled rows.
func estimateRows(readBytes, fileSize int64, parsedRows int) int {
	if parsedRows <= 0 || readBytes <= 0 || fileSize <= 0 {
		return parsedRows
	}
	avg := readBytes / int64(parsedRows+1)
	if avg <= 0 {
		return parsedRows
	}
	return int(fileSize / avg)
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
