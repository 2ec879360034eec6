package audittrail

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin"
)

var (
	// ErrUnsupportedDescription is returned when a description is neither
	// text nor a supported callback.
	ErrUnsupportedDescription = errors.New("audittrail: unsupported description type")
	// ErrUnsupportedObject is returned when an object is neither an Object
	// nor a supported callback.
	ErrUnsupportedObject = errors.New("audittrail: unsupported object type")
	// ErrInvalidObject is returned when a resolved Object has an empty type or id.
	ErrInvalidObject = errors.New("audittrail: object must have a type and an id")
)

// DescriptionFunc computes an event description from the request and the
// handler's path parameters.
type DescriptionFunc func(c *gin.Context, params gin.Params) (string, error)

// ObjectFunc resolves the object an event refers to. Returning a nil Object
// records the event without a reference.
type ObjectFunc func(c *gin.Context, params gin.Params) (Object, error)

// ResolveDescription turns a description value into text. Supported values:
//
//	string
//	fmt.Stringer (translated or lazily built text)
//	func(*gin.Context) string
//	func(*gin.Context, gin.Params) string
//	DescriptionFunc, or the equivalent unnamed func type
func ResolveDescription(c *gin.Context, description any, params gin.Params) (string, error) {
	describe, err := describer(description)
	if err != nil {
		return "", err
	}
	return describe(c, params)
}

// ResolveObject turns an object value into an Object. nil yields no object.
// Supported values are an Object, ObjectFunc (or the equivalent unnamed func
// type) and func(*gin.Context) Object.
func ResolveObject(c *gin.Context, object any, params gin.Params) (Object, error) {
	locate, err := locator(object)
	if err != nil {
		return nil, err
	}
	if locate == nil {
		return nil, nil
	}
	return locate(c, params)
}

func describer(description any) (DescriptionFunc, error) {
	switch d := description.(type) {
	case string:
		return func(*gin.Context, gin.Params) (string, error) { return d, nil }, nil
	case DescriptionFunc:
		if d != nil {
			return d, nil
		}
	case func(*gin.Context, gin.Params) (string, error):
		if d != nil {
			return d, nil
		}
	case func(*gin.Context, gin.Params) string:
		if d != nil {
			return func(c *gin.Context, p gin.Params) (string, error) { return d(c, p), nil }, nil
		}
	case func(*gin.Context) string:
		if d != nil {
			return func(c *gin.Context, _ gin.Params) (string, error) { return d(c), nil }, nil
		}
	case fmt.Stringer:
		if !isNil(d) {
			return func(*gin.Context, gin.Params) (string, error) { return d.String(), nil }, nil
		}
	}
	return nil, fmt.Errorf("%w: %T (only string, fmt.Stringer and description funcs are supported)",
		ErrUnsupportedDescription, description)
}

func locator(object any) (ObjectFunc, error) {
	if object == nil {
		return nil, nil
	}
	switch o := object.(type) {
	case ObjectFunc:
		if o != nil {
			return o, nil
		}
	case func(*gin.Context, gin.Params) (Object, error):
		if o != nil {
			return o, nil
		}
	case func(*gin.Context) Object:
		if o != nil {
			return func(c *gin.Context, _ gin.Params) (Object, error) { return o(c), nil }, nil
		}
	case Object:
		if isNil(o) {
			return nil, nil
		}
		return func(*gin.Context, gin.Params) (Object, error) { return o, nil }, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedObject, object)
}

// isNil reports whether v is nil or an interface wrapping a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
