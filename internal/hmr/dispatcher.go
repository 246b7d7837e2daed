package hmr

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/myvite-dev/myvite/internal/module"
)

// Op is the kind of a filesystem event.
type Op int

const (
	OpChange Op = iota
	OpAdd
	OpUnlink
)

func (o Op) String() string {
	switch o {
	case OpChange:
		return "change"
	case OpAdd:
		return "add"
	case OpUnlink:
		return "unlink"
	}
	return "unknown"
}

// Event is a filesystem change for one absolute path.
type Event struct {
	Path string
	Op   Op
}

// Outcome is what the dispatcher decided to do about an event.
type Outcome int

const (
	OutcomeIgnore Outcome = iota
	OutcomeUpdate
	OutcomeFullReload
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdate:
		return "update"
	case OutcomeFullReload:
		return "full-reload"
	}
	return "ignore"
}

// Decision is the result of handling one event.
type Decision struct {
	Outcome Outcome
	Message Message
	// Parts holds the classified parts for component changes.
	Parts Parts
}

// Broadcaster delivers a message to every connected client and returns how
// many received it.
type Broadcaster interface {
	Broadcast(msg Message) int
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Registry   *Registry
	Classifier *Classifier
	Channel    Broadcaster
	Logger     *slog.Logger

	// Disabled turns every acted-on change into a full reload.
	Disabled bool

	// Now supplies revision markers. Defaults to time.Now.
	Now func() time.Time

	// ReadFile reads changed files. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// Dispatcher turns filesystem events into update messages.
type Dispatcher struct {
	opts   DispatcherOptions
	tracer trace.Tracer
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{opts: opts, tracer: otel.Tracer("github.com/myvite-dev/myvite/internal/hmr")}
}

// Run handles events one at a time, in the order they arrive, until ctx is
// done or events is closed.
func (d *Dispatcher) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle decides what ev requires and broadcasts the resulting message.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) Decision {
	ctx, span := d.tracer.Start(ctx, "hmr.dispatch",
		trace.WithAttributes(attribute.String("path", ev.Path), attribute.String("op", ev.Op.String())))
	defer span.End()

	dec := d.Decide(ctx, ev)
	span.SetAttributes(attribute.String("outcome", dec.Outcome.String()))

	if dec.Outcome == OutcomeIgnore {
		return dec
	}
	sent := d.opts.Channel.Broadcast(dec.Message)
	attrs := []any{"path", ev.Path, "outcome", dec.Outcome.String(), "clients", sent}
	if dec.Message.Update != nil {
		attrs = append(attrs, "url", dec.Message.Update.Path, "parts", dec.Parts.String())
	}
	d.opts.Logger.Info("hmr", attrs...)
	return dec
}

// Decide applies the dispatch rules to ev without sending anything. For
// components it runs the classifier, so it updates fingerprints.
func (d *Dispatcher) Decide(ctx context.Context, ev Event) Decision {
	if ev.Op != OpChange {
		return Decision{Outcome: OutcomeIgnore}
	}
	if d.opts.Disabled {
		return reload()
	}

	url, ok := d.opts.Registry.Lookup(ev.Path)
	if !ok {
		return reload()
	}

	switch module.ClassifyFile(ev.Path) {
	case module.KindStylesheet:
		return d.update(url, Parts(0).With(PartStyle))

	case module.KindCompositeScript:
		content, err := d.opts.ReadFile(ev.Path)
		if err != nil {
			d.opts.Logger.Warn("hmr: cannot read changed file", "path", ev.Path, "error", err)
			return reload()
		}
		parts, err := d.opts.Classifier.Classify(ctx, ev.Path, content)
		if err != nil {
			d.opts.Logger.Warn("hmr: component does not compile, reloading", "path", ev.Path, "error", err)
			return reload()
		}
		switch {
		case parts.Has(PartScript) || parts.Has(PartTemplate):
			return d.update(url, parts)
		case parts.Has(PartStyle):
			styleURL, ok := d.opts.Registry.LookupStyle(ev.Path)
			if !ok {
				styleURL = module.StyleVariant(url)
			}
			return d.update(styleURL, parts)
		default:
			return Decision{Outcome: OutcomeIgnore}
		}
	}

	return reload()
}

func (d *Dispatcher) update(url string, parts Parts) Decision {
	return Decision{
		Outcome: OutcomeUpdate,
		Message: JSUpdate(url, d.opts.Now().UnixMilli()),
		Parts:   parts,
	}
}

func reload() Decision {
	return Decision{Outcome: OutcomeFullReload, Message: FullReload()}
}
