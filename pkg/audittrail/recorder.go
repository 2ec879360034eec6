package audittrail

import (
	"context"
	"fmt"
	"time"

	"github.com/dhima/audittrail/pkg/clock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultWriteTimeout bounds a single SaveEvent call.
const DefaultWriteTimeout = 5 * time.Second

// Recorder decorates gin handlers and persists one Event per invocation.
type Recorder struct {
	store        Store
	logger       *zap.Logger
	clock        clock.Clock
	writeTimeout time.Duration
	newID        func() string
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used for write failures. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp EventTime.
func WithClock(c clock.Clock) RecorderOption {
	return func(r *Recorder) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithWriteTimeout bounds each store write. Non-positive values are ignored.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// WithIDGenerator overrides event ID generation. IDs are free-form strings.
func WithIDGenerator(fn func() string) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New creates a Recorder writing to store.
func New(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:        store,
		logger:       zap.NewNop(),
		clock:        clock.System{},
		writeTimeout: DefaultWriteTimeout,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures what a decorated handler records.
type Option func(*route)

type route struct {
	description any
	object      any
}

// Describe sets the event description. See ResolveDescription for the
// accepted values.
func Describe(description any) Option {
	return func(rt *route) { rt.description = description }
}

// Target sets the object the event refers to. See ResolveObject for the
// accepted values.
func Target(object any) Option {
	return func(rt *route) { rt.object = object }
}

type compiled struct {
	describe DescriptionFunc
	locate   ObjectFunc
}

// compile validates route options once, at registration time.
func compile(opts []Option) compiled {
	var rt route
	for _, opt := range opts {
		opt(&rt)
	}
	describe, err := describer(rt.description)
	if err != nil {
		panic(err)
	}
	locate, err := locator(rt.object)
	if err != nil {
		panic(err)
	}
	return compiled{describe: describe, locate: locate}
}

// Handler wraps h so that an Event is recorded after h returns. The
// response written by h is left untouched. Handler panics if the
// description or object option has an unsupported type.
func (r *Recorder) Handler(h gin.HandlerFunc, opts ...Option) gin.HandlerFunc {
	rt := compile(opts)
	return func(c *gin.Context) {
		h(c)
		r.record(c, rt)
	}
}

// Middleware is Handler for route middleware chains: it runs the rest of the
// chain and then records the Event.
func (r *Recorder) Middleware(opts ...Option) gin.HandlerFunc {
	rt := compile(opts)
	return func(c *gin.Context) {
		c.Next()
		r.record(c, rt)
	}
}

// Log resolves description and object against the current request and
// persists the resulting Event. It is the building block behind Handler and
// can be called directly from code that is not a gin handler.
func (r *Recorder) Log(c *gin.Context, description any, object any) error {
	describe, err := describer(description)
	if err != nil {
		return err
	}
	locate, err := locator(object)
	if err != nil {
		return err
	}
	return r.log(c, compiled{describe: describe, locate: locate})
}

func (r *Recorder) record(c *gin.Context, rt compiled) {
	if err := r.log(c, rt); err != nil {
		r.logger.Error("failed to record audit event",
			zap.String("request_path", c.Request.URL.Path),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
}

func (r *Recorder) log(c *gin.Context, rt compiled) error {
	params := c.Params

	description, err := rt.describe(c, params)
	if err != nil {
		return fmt.Errorf("resolve description: %w", err)
	}

	event := &Event{
		ID:               r.newID(),
		IPAddr:           c.ClientIP(),
		RequestPath:      c.Request.URL.Path,
		EventDescription: description,
		RequestID:        requestID(c),
		Method:           c.Request.Method,
		StatusCode:       c.Writer.Status(),
	}

	if rt.locate != nil {
		obj, err := rt.locate(c, params)
		if err != nil {
			return fmt.Errorf("resolve object: %w", err)
		}
		if !isNil(obj) {
			objType, objID := obj.AuditObjectType(), obj.AuditObjectID()
			if objType == "" || objID == "" {
				return fmt.Errorf("%w: %T", ErrInvalidObject, obj)
			}
			event.ContentType = &objType
			event.ObjectID = &objID
		}
	}

	if user, ok := UserFromContext(c); ok {
		if id := user.AuditUserID(); id != "" {
			event.UserID = &id
		}
		event.UserDescription = user.String()
	}

	// auto-stamped at save time, after the handler ran
	event.EventTime = r.clock.Now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), r.writeTimeout)
	defer cancel()

	if err := r.store.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}

	r.logger.Debug("audit event recorded",
		zap.String("event_id", event.ID),
		zap.String("request_path", event.RequestPath),
		zap.Int("status_code", event.StatusCode),
	)
	return nil
}
