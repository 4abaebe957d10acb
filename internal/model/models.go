package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one input line parsed as a JSON object. Numbers are held as
// json.Number so their literal text survives into the CSV.
type Record map[string]interface{}

// Lookup returns the textual value of key, or def when the key is absent.
func (r Record) Lookup(key, def string) string {
	v, ok := r[key]
	if !ok {
		return def
	}
	return Text(v)
}

// Project returns one cell per field, in field order.
func (r Record) Project(fields []string) []string {
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = r.Lookup(f, "")
	}
	return row
}

// Text renders a decoded JSON value as a CSV cell.
func Text(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		// objects and arrays are kept as compact JSON, without HTML escaping
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return ""
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}

// Job is one (source, destination, fields) conversion task.
type Job struct {
	Name   string   `json:"name" mapstructure:"name"`
	Source string   `json:"source" mapstructure:"source"` // path, or "-" for stdin
	Dest   string   `json:"dest" mapstructure:"dest"`     // relative paths resolve under the output dir
	Fields []string `json:"fields" mapstructure:"fields"`
}

// RunConfig is everything a run needs, fixed before execution starts.
type RunConfig struct {
	Jobs      []Job  `json:"jobs"`
	OutputDir string `json:"output_dir"`
	Strict    bool   `json:"strict"` // abort a job on the first malformed line
}

// DefaultJobs are the two reference conversions.
func DefaultJobs() []Job {
	return []Job{
		{
			Name:   "products",
			Source: "resources/data/products.txt",
			Dest:   "products.csv",
			Fields: []string{"product_name", "manufacturer", "family", "model", "announced-date"},
		},
		{
			Name:   "listings",
			Source: "resources/data/listings.txt",
			Dest:   "listings.csv",
			Fields: []string{"title", "manufacturer", "currency", "price"},
		},
	}
}
