package apiv1

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served OpenAPI document must stay loadable and valid, and its paths
// must keep matching what RegisterHandlers actually exposes.
func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{
		"/ping",
		"/plans",
		"/auth/register",
		"/auth/login",
		"/auth/logout",
		"/account",
		"/billing/checkout",
		"/billing/resync",
		"/offers",
		"/offers/{ref}/pdf",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s missing from the document", path)
	}
}
