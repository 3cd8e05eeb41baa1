package context

import (
	gocontext "context"
	"os"

	"github.com/sirupsen/logrus"
)

const envLogLevel = "LOG_LEVEL"

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(os.Getenv(envLogLevel)); err == nil {
		l.SetLevel(lvl)
	}
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})
	return l
}

// RootLogger returns the logger shared by every context.
func RootLogger() *logrus.Logger {
	return logger
}

// Context extends the regular golang context.Context interface with access to a logger and run identifiers.
type Context interface {
	gocontext.Context
	Logger() *logrus.Entry
	RunID() string
	PipelineID() string
	StageID() string
	CorrelationID() string
}

// Background returns a non-nil, empty Context.
func Background() Context {
	return ctx{
		Context: gocontext.Background(),
	}
}

// FromContext returns a new context from the given go context.
// If c already is a Context, its identifiers are kept.
func FromContext(c gocontext.Context) Context {
	if asCtx, isCtx := c.(Context); isCtx {
		return asCtx
	}
	return ctx{
		Context: c,
	}
}

// WithCancel returns a copy of the context with a new Done channel, keeping identifiers.
func WithCancel(c Context) (Context, gocontext.CancelFunc) {
	gc, cancel := gocontext.WithCancel(c)
	return ctx{
		gc,
		c.RunID(),
		c.PipelineID(),
		c.StageID(),
		c.CorrelationID(),
	}, cancel
}

// WithRunID returns a copy of the context with a runID.
func WithRunID(c Context, runID string) Context {
	return ctx{
		c,
		runID,
		c.PipelineID(),
		c.StageID(),
		c.CorrelationID(),
	}
}

// WithPipelineID returns a copy of the context with a pipelineID.
func WithPipelineID(c Context, pipelineID string) Context {
	return ctx{
		c,
		c.RunID(),
		pipelineID,
		c.StageID(),
		c.CorrelationID(),
	}
}

// WithStageID returns a copy of the context with a stageID.
func WithStageID(c Context, stageID string) Context {
	return ctx{
		c,
		c.RunID(),
		c.PipelineID(),
		stageID,
		c.CorrelationID(),
	}
}

// WithCorrelationID returns a copy of the context with a correlationID.
func WithCorrelationID(c Context, correlationID string) Context {
	return ctx{
		c,
		c.RunID(),
		c.PipelineID(),
		c.StageID(),
		correlationID,
	}
}

type ctx struct {
	gocontext.Context
	runID         string
	pipelineID    string
	stageID       string
	correlationID string
}

func (c ctx) Logger() *logrus.Entry {
	e := logrus.NewEntry(logger)
	if c.RunID() != "" {
		e = e.WithField("run_id", c.RunID())
	}
	if c.PipelineID() != "" {
		e = e.WithField("pipeline_id", c.PipelineID())
	}
	if c.StageID() != "" {
		e = e.WithField("stage_id", c.StageID())
	}
	return e
}

func (c ctx) RunID() string {
	return c.runID
}

func (c ctx) PipelineID() string {
	return c.pipelineID
}

func (c ctx) StageID() string {
	return c.stageID
}

func (c ctx) CorrelationID() string {
	return c.correlationID
}
