package validators

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
)

const maxFormBytes = 1 << 20

// FormOrJSONField reads a single field from either a form post or a JSON object body.
// The second return is false when the field is absent.
func FormOrJSONField(r *http.Request, field string) (string, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
		if err := r.ParseMultipartForm(maxFormBytes); err != nil && err != http.ErrNotMultipart {
			return "", false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
		}
		values, ok := r.PostForm[field]
		if !ok || len(values) == 0 {
			return "", false, nil
		}
		return strings.TrimSpace(values[0]), true, nil
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
		if err != nil {
			return "", false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return "", false, nil
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
		}
		value, ok := payload[field]
		if !ok || value == nil {
			return "", false, nil
		}
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v), true, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true, nil
		default:
			return fmt.Sprint(v), true, nil
		}
	}
}

// ParseQuantity treats a missing or unparsable value as 1. Parsed values are
// returned as-is so the service can reject anything below 1.
func ParseQuantity(raw string, present bool) int {
	if !present {
		return 1
	}
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return qty
}

// ParsePage parses a 1-based page number. Anything unparsable becomes 1; clamping
// to the last page happens once the total is known.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
