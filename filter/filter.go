// Package filter evaluates user-supplied expressions against slideshow
// assets, so a playback run can be narrowed without editing the album.
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/immichshow/immich"
)

// Filter is a compiled asset filter expression.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression into an executable filter. Expressions
// see the asset environment described by buildEnv and must evaluate to a
// boolean, e.g. `IsImage` or `Country == "Norway"`.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	program, err := expr.Compile(expression,
		expr.Env(buildEnv(immich.Asset{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expression, err)
	}

	return &Filter{expression: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// Keep evaluates the filter against one asset.
func (f *Filter) Keep(asset immich.Asset) (bool, error) {
	result, err := expr.Run(f.program, buildEnv(asset))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q: %w", f.expression, err)
	}
	return result.(bool), nil
}

// Apply compiles expression and returns the assets it keeps. Assets the
// expression fails on are dropped.
func Apply(assets []immich.Asset, expression string) ([]immich.Asset, error) {
	f, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	kept := make([]immich.Asset, 0, len(assets))
	for _, asset := range assets {
		ok, err := f.Keep(asset)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, asset)
		}
	}
	return kept, nil
}

// buildEnv flattens an asset into the expression environment.
func buildEnv(asset immich.Asset) map[string]any {
	env := map[string]any{
		"ID":          asset.ID,
		"Type":        strings.ToUpper(asset.Type),
		"IsImage":     asset.IsImage(),
		"IsVideo":     asset.IsVideo(),
		"City":        "",
		"State":       "",
		"Country":     "",
		"HasLocation": asset.ExifInfo.Location() != "",
	}

	if exif := asset.ExifInfo; exif != nil {
		if exif.City != nil {
			env["City"] = *exif.City
		}
		if exif.State != nil {
			env["State"] = *exif.State
		}
		if exif.Country != nil {
			env["Country"] = *exif.Country
		}
	}
	return env
}
