// Package serializer plugs json-iterator into echo.
package serializer

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
)

type JSONSerializer struct {
	api jsoniter.API
}

var _ echo.JSONSerializer = (*JSONSerializer)(nil)

func New() *JSONSerializer {
	return &JSONSerializer{api: jsoniter.ConfigCompatibleWithStandardLibrary}
}

func (s *JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := s.api.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (s *JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := s.api.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err)).SetInternal(err)
	}
	return nil
}
