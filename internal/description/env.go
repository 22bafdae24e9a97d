package description

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// stringifyEnvironment renders every environment value as a string. It never
// rejects a value: anything cty cannot represent goes through fmt.Sprint.
func stringifyEnvironment(env map[string]any) (map[string]string, error) {
	if len(env) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if k == "" {
			return nil, fmt.Errorf("%w: empty environment variable name", ErrInvalidJobDescription)
		}
		out[k] = Stringify(v)
	}
	return out, nil
}

// Stringify returns the string form of an environment value.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case cty.Value:
		return ctyString(x, func() string { return x.GoString() })
	case fmt.Stringer:
		return x.String()
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return fmt.Sprint(v)
	}
	return ctyString(val, func() string { return fmt.Sprint(v) })
}

// ctyString converts primitives with cty's own conversion rules and encodes
// collections as JSON.
func ctyString(val cty.Value, fallback func() string) string {
	if val.IsNull() || !val.IsKnown() {
		return ""
	}
	if val.Type().IsPrimitiveType() {
		s, err := convert.Convert(val, cty.String)
		if err != nil {
			return fallback()
		}
		return s.AsString()
	}
	b, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return fallback()
	}
	return string(b)
}
