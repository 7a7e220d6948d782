// Package validation applies a configurable rule table to incoming payloads
// before they reach the store. Rules traverse a generic map representation
// of the entity by dotted path.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"threadkit/pkg/models"
)

type Rules struct {
	Required []string
	MaxLen   map[string]int
	Enums    map[string][]string
}

var rules Rules

func SetRules(r Rules) { rules = r }

// ValidateItem checks an incoming item against the configured rules plus the
// structural basics: a thread reference and a known type.
func ValidateItem(it models.Item) error {
	var errs []string
	if it.Thread == "" {
		errs = append(errs, "thread is required")
	}
	switch it.Type {
	case models.ItemUserMessage, models.ItemAssistantMessage, models.ItemWidget, models.ItemToolCall:
	default:
		errs = append(errs, fmt.Sprintf("unknown item type: %s", it.Type))
	}

	var payload interface{}
	if len(it.Payload) > 0 {
		if err := json.Unmarshal(it.Payload, &payload); err != nil {
			errs = append(errs, "payload is not valid JSON")
		}
	}
	root := map[string]interface{}{
		"id":      it.ID,
		"thread":  it.Thread,
		"type":    string(it.Type),
		"payload": payload,
	}
	errs = append(errs, applyRules(root)...)

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidateTaskTitle checks a task title against the "title" rules.
func ValidateTaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if max, ok := rules.MaxLen["title"]; ok && len(title) > max {
		return fmt.Errorf("max length exceeded at title: %d > %d", len(title), max)
	}
	return nil
}

func applyRules(root map[string]interface{}) []string {
	var errs []string
	for _, p := range rules.Required {
		if !existsAt(root, p) {
			errs = append(errs, fmt.Sprintf("required path missing: %s", p))
		}
	}
	for p, max := range rules.MaxLen {
		if v, ok := valueAt(root, p); ok {
			switch vv := v.(type) {
			case string:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			case []interface{}:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			}
		}
	}
	for p, vals := range rules.Enums {
		if v, ok := valueAt(root, p); ok {
			if s, ok2 := v.(string); ok2 && !contains(vals, s) {
				errs = append(errs, fmt.Sprintf("invalid enum at %s", p))
			}
		}
	}
	return errs
}

func existsAt(root interface{}, path string) bool {
	_, ok := valueAt(root, path)
	return ok
}

func valueAt(root interface{}, path string) (interface{}, bool) {
	segs := strings.Split(path, ".")
	cur := root
	for _, s := range segs {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[s]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			if s == "*" {
				if len(node) == 0 {
					return nil, false
				}
				cur = node[0]
			} else if idx, err := strconv.Atoi(s); err == nil {
				if idx < 0 || idx >= len(node) {
					return nil, false
				}
				cur = node[idx]
			} else {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
