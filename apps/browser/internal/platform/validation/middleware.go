// Package validation checks inbound browse API requests against the OpenAPI
// contract in schemas/openapi.yaml before they reach a handler.
package validation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// argumentNames maps query parameters to the browse argument they carry.
var argumentNames = map[string]string{
	"path": "path",
	"name": "fileName",
}

// New builds a Gin middleware that validates query parameters against the
// provided OpenAPI document. Rejections use the same body as the handlers'
// InvalidArgument responses, plus the offending "argument". Routes the
// document does not describe are passed through.
func New(spec []byte) (gin.HandlerFunc, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return func(c *gin.Context) {
		if err := validate(c.Request, router); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, rejection(err))
			return
		}
		c.Next()
	}, nil
}

func validate(req *http.Request, router routers.Router) error {
	route, pathParams, err := router.FindRoute(req)
	if err != nil {
		return nil
	}
	return openapi3filter.ValidateRequest(req.Context(), &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	})
}

// rejection renders a validation failure. The only constraint on browse
// parameters is that they are present and non-empty.
func rejection(err error) gin.H {
	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) || reqErr.Parameter == nil {
		return gin.H{"error": err.Error()}
	}
	arg, ok := argumentNames[reqErr.Parameter.Name]
	if !ok {
		arg = reqErr.Parameter.Name
	}
	return gin.H{
		"error":    browse.InvalidArgumentError{Argument: arg}.Error(),
		"argument": arg,
	}
}
