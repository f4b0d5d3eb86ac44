package blogapi

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// shapeValidator returns the singleton validator used to check decoded responses.
// Field names in errors follow the wire (json) names.
func shapeValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func checkShape(v any) error {
	err := shapeValidator().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("unexpected response shape: %s", strings.Join(fields, ", "))
}

// decodeOne parses body into a single T and checks its shape.
func decodeOne[T any](body []byte) (*T, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := checkShape(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeList parses body into a slice of T. A JSON null decodes to an empty slice.
func decodeList[T any](body []byte) ([]T, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	for i := range out {
		if err := checkShape(&out[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return out, nil
}
