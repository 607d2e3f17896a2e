package searchbench

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sommelier/searchbench/sample/http"
)

func samplerDecode(typeName string, config json.RawMessage) (Sampler, error) {
	switch typeName {
	case http.Type:
		return http.New(config)
	default:
		return nil, errors.New(strings.Replace(errUnknownSamplerType, "%T", typeName, -1))
	}
}

func samplerType(s interface{}) (string, error) {
	switch s.(type) {
	case http.Sampler, *http.Sampler:
		return http.Type, nil
	default:
		return "", fmt.Errorf(errUnknownSamplerType, s)
	}
}
