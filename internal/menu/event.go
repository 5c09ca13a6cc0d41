package menu

import "context"

type EventKind string

const (
	Click       EventKind = "click"
	ContextMenu EventKind = "contextmenu"
)

// Event travels from its target surface up through each parent until a
// handler stops it.
type Event struct {
	Kind   EventKind
	Target *Surface
	ctx    context.Context

	stopped bool
}

// NewEvent builds an event with no target, for actions submitted outside a
// surface (dialogs, the CLI).
func NewEvent(ctx context.Context, k EventKind) *Event {
	return &Event{Kind: k, ctx: ctx}
}

func (e *Event) StopPropagation() {
	if e != nil {
		e.stopped = true
	}
}

func (e *Event) Stopped() bool { return e != nil && e.stopped }

func (e *Event) Context() context.Context {
	if e == nil || e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type Handler func(ev *Event)

// Surface is a clickable region nested inside an optional parent (a row
// inside a list, a menu item inside a row).
type Surface struct {
	Name   string
	Parent *Surface

	OnClick       Handler
	OnContextMenu Handler
}

func (s *Surface) handler(k EventKind) Handler {
	switch k {
	case Click:
		return s.OnClick
	case ContextMenu:
		return s.OnContextMenu
	}
	return nil
}

// Dispatch fires an event of kind k at s and bubbles it to the ancestors.
func (s *Surface) Dispatch(ctx context.Context, k EventKind) *Event {
	ev := &Event{Kind: k, Target: s, ctx: ctx}
	for cur := s; cur != nil; cur = cur.Parent {
		if h := cur.handler(k); h != nil {
			h(ev)
		}
		if ev.stopped {
			break
		}
	}
	return ev
}
