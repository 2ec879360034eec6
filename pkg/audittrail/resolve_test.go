package audittrail

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type translated struct{ msg string }

func (t translated) String() string { return "[en] " + t.msg }

type invoice struct{ id string }

func (i *invoice) AuditObjectType() string { return "billing.invoice" }
func (i *invoice) AuditObjectID() string   { return i.id }

func newTestContext(t *testing.T, path string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	return c
}

func TestResolveDescription_WhenSupportedTypes_ThenReturnsText(t *testing.T) {
	c := newTestContext(t, "/invoices/42")
	params := gin.Params{{Key: "id", Value: "42"}}

	tests := []struct {
		name        string
		description any
		want        string
	}{
		{name: "literal string", description: "Example", want: "Example"},
		{name: "stringer", description: translated{msg: "Example"}, want: "[en] Example"},
		{
			name:        "request only func",
			description: func(c *gin.Context) string { return "Example on " + c.Request.URL.Path },
			want:        "Example on /invoices/42",
		},
		{
			name: "request and params func",
			description: func(c *gin.Context, p gin.Params) string {
				return fmt.Sprintf("Example on %s-%s", c.Request.URL.Path, p.ByName("id"))
			},
			want: "Example on /invoices/42-42",
		},
		{
			name: "description func",
			description: DescriptionFunc(func(_ *gin.Context, p gin.Params) (string, error) {
				return "invoice " + p.ByName("id"), nil
			}),
			want: "invoice 42",
		},
		{
			name: "unnamed description func",
			description: func(_ *gin.Context, p gin.Params) (string, error) {
				return "unnamed " + p.ByName("id"), nil
			},
			want: "unnamed 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDescription(c, tt.description, params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDescription_WhenUnsupportedType_ThenReturnsTypedError(t *testing.T) {
	c := newTestContext(t, "/")

	var nilFunc DescriptionFunc
	var nilStringer *bytesStringer
	for _, description := range []any{nil, 42, []string{"a"}, func() string { return "x" }, nilFunc, nilStringer} {
		_, err := ResolveDescription(c, description, nil)
		assert.ErrorIs(t, err, ErrUnsupportedDescription, "description %T", description)
	}
}

type bytesStringer struct{}

func (*bytesStringer) String() string { return "never" }

func TestResolveDescription_WhenFuncFails_ThenPropagatesError(t *testing.T) {
	c := newTestContext(t, "/")
	boom := errors.New("boom")

	_, err := ResolveDescription(c, DescriptionFunc(func(*gin.Context, gin.Params) (string, error) {
		return "", boom
	}), nil)

	assert.ErrorIs(t, err, boom)
}

func TestResolveObject_WhenSupportedTypes_ThenReturnsObject(t *testing.T) {
	c := newTestContext(t, "/invoices/7")
	params := gin.Params{{Key: "id", Value: "7"}}

	tests := []struct {
		name   string
		object any
		want   Object
	}{
		{name: "nil", object: nil, want: nil},
		{name: "ref", object: ObjectRef{Type: "auth.user", ID: "1"}, want: ObjectRef{Type: "auth.user", ID: "1"}},
		{name: "pointer object", object: &invoice{id: "9"}, want: &invoice{id: "9"}},
		{name: "typed nil pointer", object: (*invoice)(nil), want: nil},
		{
			name: "object func",
			object: ObjectFunc(func(_ *gin.Context, p gin.Params) (Object, error) {
				return &invoice{id: p.ByName("id")}, nil
			}),
			want: &invoice{id: "7"},
		},
		{
			name:   "request only func",
			object: func(*gin.Context) Object { return ObjectRef{Type: "x", ID: "y"} },
			want:   ObjectRef{Type: "x", ID: "y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveObject(c, tt.object, params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveObject_WhenUnsupportedType_ThenReturnsTypedError(t *testing.T) {
	c := newTestContext(t, "/")

	_, err := ResolveObject(c, "auth.user:1", nil)

	assert.ErrorIs(t, err, ErrUnsupportedObject)
}
