package recommend

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/logging"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func filterEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// Filter is a compiled CEL predicate over a candidate recommendation.
//
// The expression sees one variable, item, with keys title, index, score,
// director, genres and actors, e.g.
//
//	item.score >= 0.2 && item.genres.contains("Comedy")
//	!(item.director in ["christopher nolan"])
type Filter struct {
	expr string
	prg  cel.Program
}

// CompileFilter parses and type-checks expr. An empty expression yields a nil Filter.
func CompileFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := filterEnv()
	if err != nil {
		return nil, fmt.Errorf("filter environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter program: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match reports whether rec passes the filter. An evaluation error or a
// non-bool result excludes the candidate.
func (f *Filter) Match(rec Recommendation, m catalog.Movie) bool {
	actors := make([]string, len(m.Actors))
	copy(actors, m.Actors)
	out, _, err := f.prg.Eval(map[string]any{
		"item": map[string]any{
			"title":    m.Title,
			"index":    int64(rec.Index),
			"score":    rec.Score,
			"director": m.Director,
			"genres":   m.Genres,
			"actors":   actors,
		},
	})
	if err != nil {
		logging.Debug().Err(err).Str("filter", f.expr).Str("title", m.Title).Msg("filter evaluation failed, skipping candidate")
		return false
	}
	b, ok := out.Value().(bool)
	if !ok {
		logging.Debug().Str("filter", f.expr).Str("title", m.Title).Msgf("filter returned %T, skipping candidate", out.Value())
		return false
	}
	return b
}
