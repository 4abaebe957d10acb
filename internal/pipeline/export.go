package pipeline

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-data-prep/internal/logger"
	"go-data-prep/internal/model"
	"go-data-prep/pkg/errors"
	"go-data-prep/pkg/utils"

	"go.uber.org/zap"
)

// ------------------- CSV output -------------------

// QuotedWriter writes CSV rows with every cell quoted, embedded quotes
// doubled and CRLF line endings.
type QuotedWriter struct {
	w *bufio.Writer
}

// NewQuotedWriter returns a QuotedWriter buffering into w.
func NewQuotedWriter(w io.Writer) *QuotedWriter {
	return &QuotedWriter{w: bufio.NewWriter(w)}
}

// Write emits one row.
func (qw *QuotedWriter) Write(row []string) error {
	for i, cell := range row {
		if i > 0 {
			if err := qw.w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := qw.w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := qw.w.WriteString(strings.ReplaceAll(cell, `"`, `""`)); err != nil {
			return err
		}
		if err := qw.w.WriteByte('"'); err != nil {
			return err
		}
	}
	_, err := qw.w.WriteString("\r\n")
	return err
}

// Flush writes any buffered data to the underlying writer.
func (qw *QuotedWriter) Flush() error {
	return qw.w.Flush()
}

// ------------------- Conversion -------------------

// Stats counts what a conversion consumed and produced.
type Stats struct {
	Lines   int64 // input lines read
	Rows    int64 // data rows written, header excluded
	Skipped int64 // malformed lines dropped in lenient mode
}

// Converter turns JSON lines into a CSV document with a fixed column order.
type Converter struct {
	Fields []string
	// Strict aborts on the first malformed line. When false the line is
	// logged and skipped.
	Strict bool
	// Source and Dest only label errors and log lines.
	Source string
	Dest   string
	Log    *zap.SugaredLogger
}

// WriteCSV converts lines into a CSV document on w. The header row is fields;
// each following row is one line's projection onto fields. The first
// malformed line aborts the conversion with a *ParseError.
func WriteCSV(lines LineSource, w io.Writer, fields []string) (Stats, error) {
	c := &Converter{Fields: fields, Strict: true}
	return c.Convert(lines, w)
}

// Convert performs a single pass over lines, writing to w.
func (c *Converter) Convert(lines LineSource, w io.Writer) (Stats, error) {
	var stats Stats
	log := c.Log
	if log == nil {
		log = logger.Nop()
	}
	source := labelOr(c.Source, "<input>")
	dest := labelOr(c.Dest, "<output>")

	out := NewQuotedWriter(w)
	if err := out.Write(c.Fields); err != nil {
		return stats, newIOError("write", dest, err)
	}

	for {
		line, err := lines.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, newIOError("read", source, err)
		}
		stats.Lines++

		rec, err := ParseRecord(line)
		if err != nil {
			if c.Strict {
				// keep rows already produced; the caller decides what a
				// partial file means
				perr := newParseError(source, stats.Lines, err)
				if ferr := out.Flush(); ferr != nil {
					perr = errors.CombineErrors(perr, newIOError("write", dest, ferr))
				}
				return stats, perr
			}
			stats.Skipped++
			log.Warnw("Skipping malformed line",
				"source", source,
				"line", stats.Lines,
				"error", err.Error())
			continue
		}

		if err := out.Write(rec.Project(c.Fields)); err != nil {
			return stats, newIOError("write", dest, err)
		}
		stats.Rows++
	}

	if err := out.Flush(); err != nil {
		return stats, newIOError("write", dest, err)
	}
	return stats, nil
}

func labelOr(label, def string) string {
	if label == "" {
		return def
	}
	return label
}

// ------------------- File jobs -------------------

// ConvertFile runs one job from file to file. The source is opened before
// the destination so a missing input never truncates an existing output.
func ConvertFile(job model.Job, outputDir string, strict bool, log *zap.SugaredLogger) (model.JobResult, error) {
	if log == nil {
		log = logger.Nop()
	}
	result := model.JobResult{
		Job:       job.Name,
		Source:    job.Source,
		Status:    model.StatusRunning,
		StartTime: time.Now(),
	}

	finish := func(stats Stats, err error) (model.JobResult, error) {
		result.LinesRead = stats.Lines
		result.RowsWritten = stats.Rows
		result.Skipped = stats.Skipped
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		if err != nil {
			result.Status = model.StatusFailed
			result.Error = err.Error()
		} else {
			result.Status = model.StatusCompleted
		}
		return result, err
	}

	om := utils.NewOutputManager(outputDir)
	dest := om.Resolve(job.Dest)
	result.Dest = dest
	if om.GetFileType(dest) != "csv" {
		log.Debugw("Destination has no .csv extension", "job", job.Name, "dest", dest)
	}

	src, err := OpenSource(job.Source)
	if err != nil {
		return finish(Stats{}, err)
	}
	defer src.Close()

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return finish(Stats{}, newIOError("create", dir, err))
		}
	}
	file, err := os.Create(dest)
	if err != nil {
		return finish(Stats{}, newIOError("create", dest, err))
	}

	log.Infow("Converting",
		"job", job.Name,
		"source", job.Source,
		"dest", dest,
		"fields", len(job.Fields))

	conv := &Converter{
		Fields: job.Fields,
		Strict: strict,
		Source: job.Source,
		Dest:   dest,
		Log:    log,
	}
	stats, err := conv.Convert(NewLineReader(src), file)
	if cerr := file.Close(); cerr != nil && err == nil {
		err = newIOError("write", dest, cerr)
	}
	return finish(stats, err)
}
