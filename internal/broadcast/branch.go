package broadcast

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/restream/internal/media"
)

// BranchState is the state of a toggle-able branch.
type BranchState int

// Branch states. Switching is held for the duration of a toggle call.
const (
	BranchOff BranchState = iota
	BranchSwitching
	BranchOn
)

func (s BranchState) String() string {
	switch s {
	case BranchOff:
		return "off"
	case BranchSwitching:
		return "switching"
	case BranchOn:
		return "on"
	default:
		return fmt.Sprintf("branch_state(%d)", int(s))
	}
}

// branch is a chain of elements that is patched into a request pad of a mixer
// while on and removed from the graph while off.
type branch struct {
	name     string
	engine   media.Engine
	graph    media.Graph
	mixer    media.Element
	build    func() ([]media.Element, error)
	padProps map[string]any
	logger   *slog.Logger

	mu    sync.Mutex
	state BranchState

	// Owned by the goroutine that moved state to BranchSwitching.
	elements []media.Element
	mixerPad media.Pad
}

func (b *branch) State() BranchState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// toggle flips the branch and reports whether it is on afterwards.
func (b *branch) toggle() (bool, error) {
	b.mu.Lock()
	from := b.state
	if from == BranchSwitching {
		b.mu.Unlock()
		return false, ErrToggleInProgress
	}
	b.state = BranchSwitching
	b.mu.Unlock()

	next := from
	var err error
	if from == BranchOff {
		if err = b.attach(); err == nil {
			next = BranchOn
		}
	} else {
		var detached bool
		detached, err = b.detach()
		if detached {
			next = BranchOff
		}
	}

	b.mu.Lock()
	b.state = next
	b.mu.Unlock()

	if err != nil {
		return next == BranchOn, fmt.Errorf("toggle %s: %w", b.name, err)
	}
	return next == BranchOn, nil
}

// attach builds the branch and links it into a new mixer input. Any failure
// leaves the graph as it was before the call.
func (b *branch) attach() error {
	elements, err := b.build()
	if err != nil {
		return err
	}
	if err := media.AddLink(b.graph, elements...); err != nil {
		return err
	}

	var rollback undo
	rollback.push(func() { _ = media.RemoveMany(b.graph, elements...) })

	pad, err := b.mixer.RequestPad("sink_%u")
	if err != nil {
		rollback.run()
		return &media.LinkError{Src: b.name, Sink: b.mixer.Name(), Reason: err.Error()}
	}
	rollback.push(func() { b.mixer.ReleaseRequestPad(pad) })

	for prop, value := range b.padProps {
		if err := pad.SetProperty(prop, value); err != nil {
			rollback.run()
			return fmt.Errorf("set %s.%s: %w", pad.Name(), prop, err)
		}
	}

	last := media.Last(elements)
	srcPad, err := last.StaticPad("src")
	if err != nil {
		rollback.run()
		return &media.LinkError{Src: last.Name(), Sink: b.mixer.Name(), Reason: err.Error()}
	}
	if err := media.LinkPads(last.Name(), srcPad, b.mixer.Name(), pad); err != nil {
		rollback.run()
		return err
	}
	rollback.push(func() { _ = srcPad.Unlink(pad) })

	if err := media.SyncAll(elements...); err != nil {
		rollback.run()
		return err
	}
	if err := b.graph.SetState(media.StatePlaying); err != nil {
		rollback.run()
		return err
	}

	b.elements = elements
	b.mixerPad = pad
	b.logger.Debug("Branch attached", "branch", b.name, "pad", pad.Name(), "elements", len(elements))
	return nil
}

// detach redirects the branch into a throwaway sink, retires the mixer input
// with EOS and removes every branch element. detached is false when the mixer
// input was never touched, in which case the branch is still on.
func (b *branch) detach() (bool, error) {
	last := media.Last(b.elements)
	srcPad, err := last.StaticPad("src")
	if err != nil {
		return false, err
	}

	drain, err := media.Make(b.engine, "fakesink")
	if err != nil {
		return false, err
	}
	_ = drain.SetProperty("async", false)
	if err := b.graph.Add(drain); err != nil {
		return false, fmt.Errorf("add drain sink: %w", err)
	}
	if err := drain.SyncStateWithParent(); err != nil {
		_ = media.RemoveMany(b.graph, drain)
		return false, err
	}
	drainPad, err := drain.StaticPad("sink")
	if err != nil {
		_ = media.RemoveMany(b.graph, drain)
		return false, err
	}

	if err := srcPad.Unlink(b.mixerPad); err != nil {
		_ = media.RemoveMany(b.graph, drain)
		return false, err
	}

	// The mixer input is detached from here on. Keep going on errors so the
	// branch does not stay half removed.
	var errs []error
	if err := media.LinkPads(last.Name(), srcPad, drain.Name(), drainPad); err != nil {
		errs = append(errs, err)
	}
	if err := b.mixerPad.SendEOS(); err != nil {
		errs = append(errs, fmt.Errorf("eos on %s: %w", b.mixerPad.Name(), err))
	}
	b.mixer.ReleaseRequestPad(b.mixerPad)
	if err := media.RemoveMany(b.graph, append(b.elements, drain)...); err != nil {
		errs = append(errs, err)
	}
	if err := b.graph.SetState(media.StatePlaying); err != nil {
		errs = append(errs, err)
	}

	b.logger.Debug("Branch detached", "branch", b.name, "pad", b.mixerPad.Name())
	b.elements = nil
	b.mixerPad = nil
	return true, errors.Join(errs...)
}
