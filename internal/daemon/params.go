package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"helixprint/internal/services"
)

const maxBodyBytes = 64 << 20

// params holds request arguments from the query string, a form body, or a
// JSON object body. JSON values win over query values with the same name.
type params map[string]any

func readParams(w http.ResponseWriter, r *http.Request) (params, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "parse form", "", err)
	}
	p := params{}
	for key, values := range r.Form {
		if len(values) == 1 {
			p[key] = values[0]
			continue
		}
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		p[key] = list
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "" && mediaType != "application/json" {
		return p, nil
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrValidation, "api", "decode body", "", err)
	}
	for key, value := range body {
		p[key] = value
	}
	return p, nil
}

func (p params) str(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// raw returns a string value without trimming.
func (p params) raw(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// list accepts a JSON array, repeated parameters, a JSON-encoded array
// string, or a comma separated string.
func (p params) list(key string) ([]string, error) {
	switch v := p[key].(type) {
	case nil:
		return []string{}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, services.Wrap(services.ErrValidation, "api", "", key+" must be a list of strings", nil)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return []string{}, nil
		}
		if strings.HasPrefix(trimmed, "[") {
			var out []string
			if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
				return nil, services.Wrap(services.ErrValidation, "api", "", key+" is not a JSON list", err)
			}
			return out, nil
		}
		parts := strings.Split(trimmed, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "api", "", key+" must be a list of strings", nil)
	}
}

func (p params) intValue(key string, def int) (int, error) {
	s := p.str(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "api", "", key+" must be an integer", err)
	}
	return n, nil
}
