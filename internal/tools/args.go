package tools

import (
	"fmt"
	"slices"
	"strings"

	"chatdo/internal/conversation"
)

// bind validates raw call arguments against params and returns the coerced set.
// Arguments that are not declared are ignored. An optional string that is
// blank counts as absent.
func bind(tool string, params []conversation.Parameter, raw map[string]any) (Args, error) {
	args := make(Args, len(params))
	for _, p := range params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, &ValidationError{Tool: tool, Detail: fmt.Sprintf("missing required argument %q", p.Name)}
			}
			continue
		}

		switch p.Type {
		case conversation.TypeBoolean:
			b, err := coerceBool(v)
			if err != nil {
				return nil, &ValidationError{Tool: tool, Detail: fmt.Sprintf("argument %q must be a boolean", p.Name)}
			}
			args[p.Name] = b

		case conversation.TypeString:
			s, ok := v.(string)
			if !ok {
				return nil, &ValidationError{Tool: tool, Detail: fmt.Sprintf("argument %q must be a string", p.Name)}
			}
			s = strings.TrimSpace(s)
			if s == "" {
				if p.Required {
					return nil, &ValidationError{Tool: tool, Detail: fmt.Sprintf("argument %q must not be empty", p.Name)}
				}
				continue
			}
			if len(p.Enum) > 0 {
				s = strings.ToLower(s)
				if !slices.Contains(p.Enum, s) {
					return nil, &ValidationError{
						Tool:   tool,
						Detail: fmt.Sprintf("argument %q must be one of %s", p.Name, strings.Join(p.Enum, ", ")),
					}
				}
			}
			args[p.Name] = s

		default:
			return nil, &ValidationError{Tool: tool, Detail: fmt.Sprintf("argument %q has unsupported type %s", p.Name, p.Type)}
		}
	}
	return args, nil
}

func coerceBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("not a boolean: %v", v)
}
