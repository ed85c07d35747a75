// Package config loads optimizer settings from CUE files.
//
// A file is unified with the embedded #Config schema, so omitted fields
// take their defaults and unknown fields are rejected:
//
//	enumeration: mode: "distinct"
//	cost: join_pair: 4
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tripleopt/internal/cost"
)

//go:embed schema.cue
var schema string

// Config is the decoded optimizer configuration.
type Config struct {
	Enumeration Enumeration  `json:"enumeration"`
	Selection   Selection    `json:"selection"`
	Cost        cost.Weights `json:"cost"`
}

// Enumeration configures the join order enumerator.
type Enumeration struct {
	Mode      string `json:"mode"`
	Strict    bool   `json:"strict"`
	MaxLeaves int    `json:"max_leaves"`
}

// Selection configures the cost-based selector.
type Selection struct {
	SkipUnsupported bool `json:"skip_unsupported"`
	CacheSize       int  `json:"cache_size"`
}

// Error is a configuration error with its CUE source position when known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := decode(cuecontext.New(), "{}", "defaults")
	if err != nil {
		// The embedded schema is fixed at build time.
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates the CUE file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE source. filename is used in error positions.
func Parse(data []byte, filename string) (Config, error) {
	return decode(cuecontext.New(), string(data), filename)
}

func decode(ctx *cue.Context, src, filename string) (Config, error) {
	def := ctx.CompileString(schema, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	user := ctx.CompileString(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}
	return cfg, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	out := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}
