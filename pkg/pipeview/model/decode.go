package model

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ErrMalformedDocument is returned when a pipeline document cannot be parsed.
var ErrMalformedDocument = errors.New("malformed pipeline document")

// Decode reads a single pipeline document from r.
func Decode(r io.Reader) (*PipelineDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read pipeline document")
	}

	return Parse(data)
}

// Parse parses a pipeline document from data.
func Parse(data []byte) (*PipelineDocument, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errors.Wrap(ErrMalformedDocument, "expected a json object")
	}

	doc := &PipelineDocument{}

	err := json.Unmarshal(data, doc)
	if err != nil {
		if errors.Is(err, ErrMalformedDocument) {
			return nil, err
		}

		return nil, errors.Wrapf(ErrMalformedDocument, "%v", err)
	}

	return doc, nil
}

type rawDocument struct {
	Filename  string                     `json:"filename"`
	Stages    nameList                   `json:"stages"`
	Jobs      json.RawMessage            `json:"jobs"`
	Variables map[string]json.RawMessage `json:"variables"`
}

// UnmarshalJSON decodes a document. Jobs are accepted either as an object keyed by job name
// or as a list of jobs, which is what older backends send.
func (d *PipelineDocument) UnmarshalJSON(data []byte) error {
	var raw rawDocument

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err //nolint:wrapcheck // Parse wraps it
	}

	jobs, err := decodeJobs(raw.Jobs)
	if err != nil {
		return err
	}

	variables, err := decodeVariables(raw.Variables)
	if err != nil {
		return err
	}

	*d = PipelineDocument{
		Filename:  raw.Filename,
		Stages:    []string(raw.Stages),
		Jobs:      jobs,
		Variables: variables,
	}

	return nil
}

// MarshalJSON encodes a document, writing empty lists and objects instead of null.
func (d PipelineDocument) MarshalJSON() ([]byte, error) {
	type alias PipelineDocument

	out := alias(d)
	if out.Stages == nil {
		out.Stages = []string{}
	}

	if out.Jobs == nil {
		out.Jobs = map[string]PipelineJob{}
	}

	if out.Variables == nil {
		out.Variables = map[string]string{}
	}

	return json.Marshal(out) //nolint:wrapcheck // json.Marshaler contract
}

func decodeJobs(data json.RawMessage) (map[string]PipelineJob, error) {
	data = bytes.TrimSpace(data)
	jobs := make(map[string]PipelineJob)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return jobs, nil
	case data[0] == '[':
		var list []PipelineJob

		err := json.Unmarshal(data, &list)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedDocument, "jobs: %v", err)
		}

		for i, job := range list {
			if job.Name == "" {
				return nil, errors.Wrapf(ErrMalformedDocument, "jobs[%d]: missing name", i)
			}

			if _, ok := jobs[job.Name]; ok {
				return nil, errors.Wrapf(ErrMalformedDocument, "jobs[%d]: duplicate job %q", i, job.Name)
			}

			jobs[job.Name] = job
		}
	case data[0] == '{':
		err := json.Unmarshal(data, &jobs)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedDocument, "jobs: %v", err)
		}

		for key, job := range jobs {
			if job.Name == "" {
				job.Name = key
				jobs[key] = job
			}
		}
	default:
		return nil, errors.Wrap(ErrMalformedDocument, "jobs: expected an object or a list")
	}

	return jobs, nil
}

func decodeVariables(raw map[string]json.RawMessage) (map[string]string, error) {
	variables := make(map[string]string, len(raw))

	for name, value := range raw {
		value = bytes.TrimSpace(value)

		switch {
		case len(value) == 0 || bytes.Equal(value, []byte("null")):
			variables[name] = ""
		case value[0] == '"':
			var s string

			err := json.Unmarshal(value, &s)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedDocument, "variable %q: %v", name, err)
			}

			variables[name] = s
		case value[0] == '{' || value[0] == '[':
			return nil, errors.Wrapf(ErrMalformedDocument, "variable %q: expected a scalar value", name)
		default:
			// numbers and booleans keep their literal form
			variables[name] = string(value)
		}
	}

	return variables, nil
}

type rawJob struct {
	Name       string   `json:"name"`
	SourceFile string   `json:"source_file"`
	Filename   string   `json:"filename"`
	Extends    nameList `json:"extends"`
	Stage      string   `json:"stage"`
	Needs      nameList `json:"needs"`
}

// UnmarshalJSON decodes a job. The source file falls back to the "filename" key.
func (j *PipelineJob) UnmarshalJSON(data []byte) error {
	var raw rawJob

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err //nolint:wrapcheck // decodeJobs wraps it
	}

	sourceFile := raw.SourceFile
	if sourceFile == "" {
		sourceFile = raw.Filename
	}

	*j = PipelineJob{
		Name:       raw.Name,
		SourceFile: sourceFile,
		Extends:    []string(raw.Extends),
		Stage:      raw.Stage,
		Needs:      []string(raw.Needs),
	}

	return nil
}

// MarshalJSON encodes a job, writing empty lists instead of null.
func (j PipelineJob) MarshalJSON() ([]byte, error) {
	type alias PipelineJob

	out := alias(j)
	if out.Extends == nil {
		out.Extends = []string{}
	}

	if out.Needs == nil {
		out.Needs = []string{}
	}

	return json.Marshal(out) //nolint:wrapcheck // json.Marshaler contract
}

// nameList is a list of names. It accepts a single string, a list of strings,
// or a list of {"job": name} objects as found in needs entries.
type nameList []string

func (n *nameList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*n = []string{}

		return nil
	case len(data) > 0 && data[0] == '"':
		var s string

		err := json.Unmarshal(data, &s)
		if err != nil {
			return errors.Wrap(err, "unable to decode name")
		}

		*n = []string{s}

		return nil
	}

	var items []json.RawMessage

	err := json.Unmarshal(data, &items)
	if err != nil {
		return errors.Wrap(err, "unable to decode name list")
	}

	names := make([]string, 0, len(items))

	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '{' {
			var ref struct {
				Job string `json:"job"`
			}

			err = json.Unmarshal(item, &ref)
			if err != nil {
				return errors.Wrap(err, "unable to decode job reference")
			}

			names = append(names, ref.Job)

			continue
		}

		var s string

		err = json.Unmarshal(item, &s)
		if err != nil {
			return errors.Wrap(err, "unable to decode name")
		}

		names = append(names, s)
	}

	*n = names

	return nil
}
