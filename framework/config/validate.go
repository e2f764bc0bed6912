package config

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Rules is a map of env key → pipe-separated rule string.
// e.g. Rules{"APP_ENV": "required|in:local,production,testing"}
type Rules map[string]string

// ValidationError holds every failed rule — mirrors Laravel's MessageBag.
type ValidationError struct {
	Bag map[string][]string `json:"errors"`
}

func (e *ValidationError) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// First returns the first error for a field.
func (e *ValidationError) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e.Bag[f]...)
	}
	return "config: " + strings.Join(msgs, " ")
}

// Validate checks the configuration and returns a *ValidationError listing
// every invalid setting. For a Config built by Load, numeric and boolean
// settings are checked as written in the environment.
func (c *Config) Validate() error {
	rules := Rules{
		"APP_ENV":             "required|in:local,production,testing",
		"APP_DEBUG":           "nullable|boolean",
		"LOG_LEVEL":           "required|in:debug,info,warn,warning,error,fatal",
		"LOG_FORMAT":          "nullable|in:console,json",
		"CONTAINER_MAX_DEPTH": "integer|gte:0",
		"INSPECT_ENABLED":     "nullable|boolean",
		"INSPECT_ADDR":        `nullable|regex:^[\w.\-\[\]:]*:\d+$`,
		"INSPECT_PREFIX":      "nullable|starts_with:/",
	}
	if c.Inspect.Enabled {
		rules["INSPECT_ADDR"] = "required|" + strings.TrimPrefix(rules["INSPECT_ADDR"], "nullable|")
	}

	data := map[string]string{
		"APP_ENV":             c.App.Env,
		"LOG_LEVEL":           c.Log.Level,
		"LOG_FORMAT":          c.Log.Format,
		"CONTAINER_MAX_DEPTH": strconv.Itoa(c.Container.MaxDepth),
		"INSPECT_ADDR":        c.Inspect.Addr,
		"INSPECT_PREFIX":      c.Inspect.Prefix,
	}
	for key, value := range c.raw {
		data[key] = value
	}

	if verr := check(data, rules); verr != nil {
		return verr
	}
	return nil
}

// ── Core validation loop ─────────────────────────────────────────────────────

func check(data map[string]string, rules Rules) *ValidationError {
	verr := &ValidationError{}
	for field, ruleStr := range rules {
		value := data[field]
		for _, rule := range strings.Split(ruleStr, "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}

			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")

			if !applyRule(verr, field, value, name, param) {
				break // stop on first failure (like Laravel's bail behaviour)
			}
		}
	}
	if len(verr.Bag) == 0 {
		return nil
	}
	return verr
}

// applyRule returns true if the rule passes and later rules should run.
func applyRule(verr *ValidationError, field, value, rule, param string) bool {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			verr.add(field, fmt.Sprintf("The %s field is required.", field))
			return false
		}

	case "nullable":
		if value == "" {
			return false // stop processing this field silently
		}

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			verr.add(field, fmt.Sprintf("The %s must be an integer.", field))
			return false
		}

	case "boolean":
		if _, err := strconv.ParseBool(value); err != nil {
			verr.add(field, fmt.Sprintf("The %s field must be true or false.", field))
			return false
		}

	case "gte":
		f, _ := strconv.ParseFloat(value, 64)
		t, _ := strconv.ParseFloat(param, 64)
		if f < t {
			verr.add(field, fmt.Sprintf("The %s must be greater than or equal to %s.", field, param))
			return false
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if strings.EqualFold(strings.TrimSpace(a), value) {
				return true
			}
		}
		verr.add(field, fmt.Sprintf("The selected %s is invalid.", field))
		return false

	case "starts_with":
		if !strings.HasPrefix(value, param) {
			verr.add(field, fmt.Sprintf("The %s must start with %s.", field, param))
			return false
		}

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			verr.add(field, fmt.Sprintf("The %s format is invalid.", field))
			return false
		}
	}

	return true
}
