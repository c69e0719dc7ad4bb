// Package orchestrator implements the Update/Launch Orchestrator (spec
// §4.7): the top-level state machine tying the Slot Store, Update
// Fetcher, Manifest Verifier, and Process Supervisor together into a
// single launcher run.
//
// Grounded on codex-helper/internal/cli/run.go's nesting of "try reuse,
// else construct fresh, always defer cleanup" (runWithExistingInstance
// / runWithNewStack) and internal/manager/reuse.go's "iterate
// candidates, pick the healthiest" shape, reused here as "try active,
// else fall back to inactive, else wipe".
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meinefirma/meineapp-launcher/internal/fetcher"
	"github.com/meinefirma/meineapp-launcher/internal/manifest"
	"github.com/meinefirma/meineapp-launcher/internal/slotstore"
	"github.com/meinefirma/meineapp-launcher/internal/supervisor"
	"github.com/meinefirma/meineapp-launcher/internal/version"
)

// Stage names a step of a launcher run, for StatusMessage narration.
type Stage string

const (
	StageBootstrap         Stage = "bootstrap"
	StageRefreshInactive   Stage = "refresh_inactive"
	StageStartWithFallback Stage = "start_with_fallback"
	StageRunning           Stage = "running"
	StageWiped             Stage = "wiped"
	StageFailed            Stage = "failed"
)

// StatusMessage narrates orchestrator progress (spec §3 AMBIENT type),
// consumed by the CLI's run command for structured logging; stands in
// for the out-of-scope UI shell's status label.
type StatusMessage struct {
	Stage   Stage
	Message string
	Err     error
}

// Orchestrator drives one launcher run to completion.
type Orchestrator struct {
	Store      *slotstore.Store
	Fetcher    *fetcher.Fetcher
	Verifier   *manifest.Verifier
	Supervisor *supervisor.Supervisor

	// Status, if non-nil, receives every StatusMessage emitted during a
	// Run. Sends are non-blocking best-effort (buffered channel assumed,
	// per spec §3); a full channel drops the message rather than
	// stalling the state machine. Bidirectional so callers can both
	// construct it and range over it for draining.
	Status chan StatusMessage
}

func (o *Orchestrator) emit(stage Stage, message string, err error) {
	if o.Status == nil {
		return
	}
	select {
	case o.Status <- StatusMessage{Stage: stage, Message: message, Err: err}:
	default:
	}
}

// Run executes the full single-run sequence of spec §4.7: bootstrap,
// refresh inactive, start with fallback, and the double-try retry on
// total failure. It returns the Handle of the slot that was
// successfully launched, or an error if no slot could be started even
// after the retry and wipe.
func (o *Orchestrator) Run(ctx context.Context, onExited func(code int)) (*supervisor.Handle, error) {
	o.emit(StageBootstrap, "reading active slot", nil)
	active, err := o.Store.ReadActive()
	if err != nil {
		o.emit(StageFailed, "bootstrap failed", err)
		return nil, fmt.Errorf("orchestrator: bootstrap: %w", err)
	}

	if o.isEmptySlot(active) {
		o.bootstrapInstall(ctx, active)
	}

	o.refreshInactive(ctx)
	if h, err := o.startWithFallback(ctx, onExited); err == nil {
		return h, nil
	}

	o.emit(StageRefreshInactive, "retrying after both slots failed to start", nil)
	o.refreshInactive(ctx)
	if h, err := o.startWithFallback(ctx, onExited); err == nil {
		return h, nil
	}

	o.emit(StageFailed, "no slot startable after retry; wiping state", nil)
	if err := o.Store.WipeAll(); err != nil {
		o.emit(StageFailed, "catastrophic wipe failed", err)
		return nil, fmt.Errorf("orchestrator: catastrophic wipe failed: %w", err)
	}
	o.emit(StageWiped, "state wiped; next run will re-bootstrap", nil)
	return nil, fmt.Errorf("orchestrator: no slot startable; state wiped for next run")
}

// isEmptySlot reports whether slot has no manifest.json yet, meaning
// it was just created by the Slot Store's bootstrap and has never held
// a payload.
func (o *Orchestrator) isEmptySlot(slot slotstore.Slot) bool {
	_, err := os.Stat(filepath.Join(o.Store.PathOf(slot), "manifest.json"))
	return err != nil
}

// bootstrapInstall implements spec §4.7 step 1's "may create A on
// first run, pulling a payload": a freshly bootstrapped, empty active
// slot is installed into directly rather than left empty for
// refreshInactive to populate the other slot. Failures here are
// recorded as status only, matching refresh's never-propagate policy;
// start-with-fallback will simply find the slot still unverifiable.
func (o *Orchestrator) bootstrapInstall(ctx context.Context, slot slotstore.Slot) {
	o.emit(StageBootstrap, fmt.Sprintf("slot %s is empty; fetching initial payload", slot), nil)

	info, err := o.Fetcher.FetchInfo(ctx)
	if err != nil {
		o.emit(StageBootstrap, "initial payload metadata fetch failed", err)
		return
	}

	dir := o.Store.PathOf(slot)
	if err := o.Store.WithLock(func() error { return o.Fetcher.DownloadAndInstall(ctx, dir, info) }); err != nil {
		o.emit(StageBootstrap, "initial payload install failed", err)
		return
	}
	o.emit(StageBootstrap, fmt.Sprintf("installed %s into slot %s", info.Version, slot), nil)
}

// refreshInactive implements spec §4.7 step 2. Errors are recorded as
// status only; refresh never propagates a failure upward (spec §7 "the
// Orchestrator NEVER propagates an error upward from the refresh
// phase").
func (o *Orchestrator) refreshInactive(ctx context.Context) {
	o.emit(StageRefreshInactive, "fetching update metadata", nil)

	info, err := o.Fetcher.FetchInfo(ctx)
	if err != nil {
		o.emit(StageRefreshInactive, "update metadata fetch failed; running installed payload", err)
		return
	}

	active, err := o.Store.ReadActive()
	if err != nil {
		o.emit(StageRefreshInactive, "could not read active slot", err)
		return
	}
	inactive := active.Other()

	if version.IsUpToDate(version.Local(o.Store.PathOf(active)), info.Version) {
		o.emit(StageRefreshInactive, "current", nil)
		return
	}
	if version.IsUpToDate(version.Local(o.Store.PathOf(inactive)), info.Version) {
		o.emit(StageRefreshInactive, "inactive slot already current", nil)
		return
	}

	o.emit(StageRefreshInactive, fmt.Sprintf("installing %s into inactive slot", info.Version), nil)
	inactiveDir := o.Store.PathOf(inactive)
	if err := o.Store.WithLock(func() error { return o.Fetcher.DownloadAndInstall(ctx, inactiveDir, info) }); err != nil {
		o.emit(StageRefreshInactive, "install into inactive slot failed", err)
		return
	}

	if err := o.Store.WriteActive(inactive); err != nil {
		o.emit(StageRefreshInactive, "could not commit new active slot", err)
		return
	}
	o.emit(StageRefreshInactive, fmt.Sprintf("installed %s, active slot flipped", info.Version), nil)
}

// startWithFallback implements spec §4.7 step 3: try the active slot;
// on verification or launch failure, fall back to the inactive slot;
// if that too fails, report total failure without wiping (the caller
// decides whether to retry or wipe).
func (o *Orchestrator) startWithFallback(ctx context.Context, onExited func(code int)) (*supervisor.Handle, error) {
	active, err := o.Store.ReadActive()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read active: %w", err)
	}
	inactive := active.Other()

	o.emit(StageStartWithFallback, fmt.Sprintf("trying slot %s", active), nil)
	if h, err := o.verifyAndStart(ctx, active, onExited); err == nil {
		o.emit(StageRunning, fmt.Sprintf("slot %s running", active), nil)
		return h, nil
	} else {
		o.emit(StageStartWithFallback, fmt.Sprintf("slot %s failed", active), err)
	}

	o.emit(StageStartWithFallback, fmt.Sprintf("falling back to slot %s", inactive), nil)
	if err := o.verifySlot(inactive); err != nil {
		o.emit(StageStartWithFallback, fmt.Sprintf("slot %s also failed", inactive), err)
		return nil, fmt.Errorf("orchestrator: no slot startable: %w", err)
	}

	// Commit the marker before starting (spec §4.7 step 3): if WriteActive
	// fails, no child has been spawned yet, so there is nothing stranded.
	if err := o.Store.WriteActive(inactive); err != nil {
		return nil, fmt.Errorf("orchestrator: fallback commit failed: %w", err)
	}

	h, err := o.startSlot(ctx, inactive, onExited)
	if err != nil {
		o.emit(StageStartWithFallback, fmt.Sprintf("slot %s also failed", inactive), err)
		return nil, fmt.Errorf("orchestrator: no slot startable: %w", err)
	}
	o.emit(StageRunning, fmt.Sprintf("slot %s running after fallback", inactive), nil)
	return h, nil
}

func (o *Orchestrator) verifyAndStart(ctx context.Context, slot slotstore.Slot, onExited func(code int)) (*supervisor.Handle, error) {
	if err := o.verifySlot(slot); err != nil {
		return nil, err
	}
	return o.startSlot(ctx, slot, onExited)
}

func (o *Orchestrator) verifySlot(slot slotstore.Slot) error {
	dir := o.Store.PathOf(slot)
	manifestPath := filepath.Join(dir, "manifest.json")

	result := o.Verifier.Verify(manifestPath, dir)
	if !result.OK {
		return fmt.Errorf("verify failed: %s", result.Error())
	}
	return nil
}

func (o *Orchestrator) startSlot(ctx context.Context, slot slotstore.Slot, onExited func(code int)) (*supervisor.Handle, error) {
	h, err := o.Supervisor.Start(ctx, o.Store.PathOf(slot), onExited)
	if err != nil {
		return nil, fmt.Errorf("launch failed: %w", err)
	}
	return h, nil
}
