package config

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"gopkg.in/yaml.v3"
)

// Format is a job file syntax.
type Format string

const (
	YAML Format = "yaml"
	HCL  Format = "hcl"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".hcl":
		return HCL, nil
	}
	return "", fmt.Errorf("config: %s: unsupported extension, want .yaml, .yml or .hcl", path)
}

// Load reads and validates a job file.
func Load(ctx context.Context, path string) (*Job, error) {
	logger := ctxlog.FromContext(ctx)
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	job, err := Parse(path, src, format)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded job.", "path", path, "name", job.Name, "rules", len(job.Rules))
	return job, nil
}

// Parse decodes a job from memory. filename only labels errors.
func Parse(filename string, src []byte, format Format) (*Job, error) {
	var job Job
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(src))
		dec.KnownFields(true)
		if err := dec.Decode(&job); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %s is empty", ErrInvalid, filename)
			}
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	case HCL:
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(src, filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
		}
		diags = gohcl.DecodeBody(file.Body, evalContext(), &job)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
		}
	default:
		return nil, fmt.Errorf("config: unknown format %q", format)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &job, nil
}

// evalContext exposes angle helpers to HCL expressions, e.g.
// angle = pi / 3 or angle = radians(60).
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"pi":  cty.NumberFloatVal(math.Pi),
			"tau": cty.NumberFloatVal(2 * math.Pi),
			"deg": cty.NumberFloatVal(math.Pi / 180),
		},
		Functions: map[string]function.Function{
			"radians": radiansFunc,
		},
	}
}

var radiansFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "degrees", Type: cty.Number}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		d, _ := args[0].AsBigFloat().Float64()
		return cty.NumberFloatVal(d * math.Pi / 180), nil
	},
})

//go:embed job.schema.json
var jobSchema []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("job.schema.json", bytes.NewReader(jobSchema)); err != nil {
		return nil, err
	}
	return c.Compile("job.schema.json")
})

// Validate checks the job against the job schema, then parses its grammar
// and render settings.
func (j *Job) Validate() error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("config: job schema: %w", err)
	}
	raw, err := json.Marshal(j)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := j.Grammar(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := j.Options(); err != nil {
		return err
	}
	return nil
}
