package local

import (
	"fmt"
	"time"
)

const defaultGracePeriod = 5 * time.Second

type options struct {
	// gracePeriod is how long a cancelled job gets between SIGTERM and SIGKILL.
	gracePeriod time.Duration
}

func parseOptions(state map[string]any) (options, error) {
	o := options{gracePeriod: defaultGracePeriod}
	if v, ok := state["grace_period"]; ok {
		d, err := toDuration(v)
		if err != nil {
			return o, fmt.Errorf("local: invalid grace_period: %w", err)
		}
		o.gracePeriod = d
	}
	return o, nil
}

func toDuration(v any) (time.Duration, error) {
	switch x := v.(type) {
	case time.Duration:
		return x, nil
	case string:
		return time.ParseDuration(x)
	case int:
		return time.Duration(x) * time.Second, nil
	case float64:
		return time.Duration(x * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
