package coach

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// params reads loosely typed action parameters produced by the model.
type params map[string]any

func (p params) str(keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64, int, bool, json.Number:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func (p params) float(keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := p[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func (p params) int(keys ...string) (int, bool) {
	f, ok := p.float(keys...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func (p params) boolean(key string) (bool, bool) {
	switch v := p[key].(type) {
	case bool:
		return v, true
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b, true
		}
	}
	return false, false
}

// date returns the parameter as YYYY-MM-DD, defaulting to today.
func (p params) date(key string, now time.Time) (string, error) {
	raw := p.str(key)
	if raw == "" || strings.EqualFold(raw, "today") {
		return now.UTC().Format(model.DateLayout), nil
	}
	if _, err := time.Parse(model.DateLayout, raw); err != nil {
		return "", invalidParam("invalid %s %q, expected YYYY-MM-DD", key, raw)
	}
	return raw, nil
}

// exercises accepts a list of objects or plain exercise names.
func (p params) exercises(key string) []model.Exercise {
	items, ok := p[key].([]any)
	if !ok {
		return nil
	}
	var list []model.Exercise
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				list = append(list, model.Exercise{Name: s})
			}
		case map[string]any:
			ep := params(v)
			ex := model.Exercise{
				Name:  ep.str("name", "exercise"),
				Reps:  model.Reps(ep.str("reps")),
				Notes: ep.str("notes"),
			}
			if ex.Name == "" {
				continue
			}
			ex.Sets, _ = ep.int("sets")
			ex.Weight, _ = ep.float("weight", "weight_kg")
			list = append(list, ex)
		}
	}
	return list
}

// ParamError is an action parameter a handler could not use. Its text is safe to show
// the user.
type ParamError struct {
	Reason string
}

func (e *ParamError) Error() string { return e.Reason }

func invalidParam(format string, args ...any) error {
	return &ParamError{Reason: fmt.Sprintf(format, args...)}
}
