package backend

import (
	"encoding/json"
	"fmt"

	"dailybrief/internal/core"
)

// allowedPostFields is the exact field set the backend's post DTO accepts.
// Anything else is stripped before validation; anything unexpected that
// survives is a validation error.
var allowedPostFields = map[string]struct{}{
	"title":           {},
	"excerpt":         {},
	"content":         {},
	"image":           {},
	"author":          {},
	"tags":            {},
	"category":        {},
	"metaDescription": {},
	"affiliateLinks":  {},
	"status":          {},
	"publishedAt":     {},
	"readTime":        {},
}

// requiredLanguageKeys: the multilingual fields must carry exactly these
// keys, no more, no fewer.
var requiredLanguageKeys = []string{"PT", "EN", "ES"}

var postStatuses = map[string]struct{}{
	core.StatusPending:  {},
	core.StatusApproved: {},
	core.StatusRejected: {},
}

// Payload converts a PostRecord into the wire payload: only the fields the
// DTO permits, as generic JSON values ready for validation and submission.
func Payload(post core.PostRecord) (map[string]any, error) {
	raw, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("failed to encode post payload: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode post payload: %w", err)
	}
	for field := range payload {
		if _, ok := allowedPostFields[field]; !ok {
			delete(payload, field)
		}
	}
	return payload, nil
}

// ValidatePayload is the submission gate: it enforces the backend DTO
// bit-exactly. A failure here is permanent; the post is never submitted.
func ValidatePayload(payload map[string]any) error {
	for field := range payload {
		if _, ok := allowedPostFields[field]; !ok {
			return fmt.Errorf("unexpected field %q in post payload", field)
		}
	}

	for _, field := range []string{"title", "excerpt", "content", "metaDescription"} {
		value, ok := payload[field]
		if !ok || value == nil {
			return fmt.Errorf("required field %q is missing", field)
		}
		if err := validateLanguageMap(field, value); err != nil {
			return err
		}
	}

	if err := validateOptionalString(payload, "image"); err != nil {
		return err
	}
	if err := validateOptionalString(payload, "author"); err != nil {
		return err
	}
	if err := validateOptionalString(payload, "category"); err != nil {
		return err
	}
	if err := validateOptionalString(payload, "publishedAt"); err != nil {
		return err
	}
	if err := validateOptionalString(payload, "readTime"); err != nil {
		return err
	}

	if tags, ok := payload["tags"]; ok && tags != nil {
		list, ok := tags.([]any)
		if !ok {
			return fmt.Errorf("field \"tags\" must be a list of strings")
		}
		for _, tag := range list {
			if _, ok := tag.(string); !ok {
				return fmt.Errorf("field \"tags\" must contain only strings")
			}
		}
	}

	if links, ok := payload["affiliateLinks"]; ok && links != nil {
		m, ok := links.(map[string]any)
		if !ok {
			return fmt.Errorf("field \"affiliateLinks\" must be a string map")
		}
		for key, value := range m {
			if _, ok := value.(string); !ok {
				return fmt.Errorf("affiliate link %q must be a string", key)
			}
		}
	}

	if status, ok := payload["status"]; ok && status != nil {
		s, ok := status.(string)
		if !ok {
			return fmt.Errorf("field \"status\" must be a string")
		}
		if _, ok := postStatuses[s]; !ok {
			return fmt.Errorf("invalid status %q", s)
		}
	}

	return nil
}

// validateLanguageMap checks a multilingual field: exactly the PT/EN/ES
// keys, all string values.
func validateLanguageMap(field string, value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("field %q must be a language map", field)
	}
	if len(m) != len(requiredLanguageKeys) {
		return fmt.Errorf("field %q must have exactly the keys PT, EN, ES", field)
	}
	for _, lang := range requiredLanguageKeys {
		v, ok := m[lang]
		if !ok {
			return fmt.Errorf("field %q is missing language %q", field, lang)
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q language %q must be a string", field, lang)
		}
	}
	return nil
}

func validateOptionalString(payload map[string]any, field string) error {
	value, ok := payload[field]
	if !ok || value == nil {
		return nil
	}
	if _, ok := value.(string); !ok {
		return fmt.Errorf("field %q must be a string or null", field)
	}
	return nil
}
