package socketio

import (
	"fmt"
	"time"
)

type options struct {
	ConnectTimeout     time.Duration
	RequestTimeout     time.Duration
	PollInterval       time.Duration
	Namespace          string
	InsecureSkipVerify bool
}

func defaultOptions() options {
	return options{
		ConnectTimeout: 15 * time.Second,
		RequestTimeout: 10 * time.Second,
		PollInterval:   time.Second,
		Namespace:      "/",
	}
}

// parseOptions reads the construction state. Unknown keys are ignored.
func parseOptions(state map[string]any) (options, error) {
	o := defaultOptions()
	durations := map[string]*time.Duration{
		"connect_timeout": &o.ConnectTimeout,
		"request_timeout": &o.RequestTimeout,
		"poll_interval":   &o.PollInterval,
	}
	for key, dst := range durations {
		v, ok := state[key]
		if !ok {
			continue
		}
		d, err := toDuration(v)
		if err != nil {
			return o, fmt.Errorf("socketio: invalid %s: %w", key, err)
		}
		if d <= 0 {
			return o, fmt.Errorf("socketio: %s must be positive", key)
		}
		*dst = d
	}
	if v, ok := state["namespace"]; ok {
		ns, isString := v.(string)
		if !isString {
			return o, fmt.Errorf("socketio: namespace must be a string, got %T", v)
		}
		o.Namespace = ns
	}
	if v, ok := state["insecure_skip_verify"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return o, fmt.Errorf("socketio: insecure_skip_verify must be a bool, got %T", v)
		}
		o.InsecureSkipVerify = b
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
