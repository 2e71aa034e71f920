package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Jerowaree/photospage/internal/mediastore"
)

const (
	maxTitleLen       = 120
	maxCategoryLen    = 60
	maxDescriptionLen = 500
)

// ValidationError carries field-level detail for a 422 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("invalid payload: %s", strings.Join(keys, ", "))
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation unwraps err into a ValidationError, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

func validateUpload(in UploadInput) error {
	v := &ValidationError{}

	if l := utf8.RuneCountInString(in.Title); l < 1 || l > maxTitleLen {
		v.add("title", fmt.Sprintf("must be 1-%d characters", maxTitleLen))
	}
	if l := utf8.RuneCountInString(in.Category); l < 1 || l > maxCategoryLen {
		v.add("category", fmt.Sprintf("must be 1-%d characters", maxCategoryLen))
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		v.add("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	if in.Featured != "" && in.Featured != "true" && in.Featured != "false" {
		v.add("featured", `must be "true" or "false"`)
	}
	if len(in.File) == 0 {
		v.add("file", "image payload is empty")
	} else if err := mediastore.Sniff(in.File); err != nil {
		v.add("file", "unsupported image format; allowed: JPEG, PNG, WebP, GIF")
	}

	return v.orNil()
}

func validateUpdate(in UpdateInput) error {
	v := &ValidationError{}

	if in.Title != nil {
		if l := utf8.RuneCountInString(*in.Title); l < 1 || l > maxTitleLen {
			v.add("title", fmt.Sprintf("must be 1-%d characters", maxTitleLen))
		}
	}
	if in.Category != nil {
		if l := utf8.RuneCountInString(*in.Category); l < 1 || l > maxCategoryLen {
			v.add("category", fmt.Sprintf("must be 1-%d characters", maxCategoryLen))
		}
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxDescriptionLen {
		v.add("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}

	return v.orNil()
}
