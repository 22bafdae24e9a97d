package socketio

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// interfaceToCtyValue converts decoded JSON into a cty.Value.
func interfaceToCtyValue(data any) (cty.Value, error) {
	if data == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	switch v := data.(type) {
	case string:
		return cty.StringVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case bool:
		return cty.BoolVal(v), nil
	case map[string]any:
		attrs := make(map[string]cty.Value)
		for key, val := range v {
			ctyVal, err := interfaceToCtyValue(val)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[key] = ctyVal
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		elems := make([]cty.Value, 0, len(v))
		for _, val := range v {
			ctyVal, err := interfaceToCtyValue(val)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, ctyVal)
		}
		return cty.TupleVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported type for conversion to cty.Value: %T", v)
	}
}

func attr(v cty.Value, name string) (cty.Value, bool) {
	if v.IsNull() || !v.IsKnown() || !v.Type().IsObjectType() || !v.Type().HasAttribute(name) {
		return cty.NilVal, false
	}
	a := v.GetAttr(name)
	if a.IsNull() {
		return cty.NilVal, false
	}
	return a, true
}

func attrString(v cty.Value, name string) string {
	a, ok := attr(v, name)
	if !ok || a.Type() != cty.String {
		return ""
	}
	return a.AsString()
}

func attrInt(v cty.Value, name string) (int, bool) {
	a, ok := attr(v, name)
	if !ok {
		return 0, false
	}
	var n int
	if err := gocty.FromCtyValue(a, &n); err != nil {
		return 0, false
	}
	return n, true
}

func attrStrings(v cty.Value, name string) ([]string, error) {
	a, ok := attr(v, name)
	if !ok {
		return nil, nil
	}
	if !a.Type().IsTupleType() && !a.Type().IsListType() {
		return nil, fmt.Errorf("%s must be a list, got %s", name, a.Type().FriendlyName())
	}
	out := make([]string, 0, a.LengthInt())
	for it := a.ElementIterator(); it.Next(); {
		_, el := it.Element()
		if el.IsNull() || el.Type() != cty.String {
			return nil, fmt.Errorf("%s must only hold strings", name)
		}
		out = append(out, el.AsString())
	}
	return out, nil
}
