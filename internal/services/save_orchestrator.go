package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tripconsole/internal/domain"
	"tripconsole/internal/envelope"
	"tripconsole/internal/metrics"
	"tripconsole/internal/repositories"
	"tripconsole/internal/utils"
)

type SaveState int

const (
	SaveIdle SaveState = iota
	SaveCollecting
	SaveReconciling
	SaveSubmitting
	SaveSucceeded
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SaveCollecting:
		return "collecting"
	case SaveReconciling:
		return "reconciling"
	case SaveSubmitting:
		return "submitting"
	case SaveSucceeded:
		return "succeeded"
	case SaveFailed:
		return "failed"
	}
	return "idle"
}

// SavePlan is one save unit of a drawer. Collect and Reconcile run under
// the drawer lock; Reconcile returns the RequestPayload.
type SavePlan struct {
	Name        string
	MessageType string
	Path        string
	Collect     func() error
	Reconcile   func() (any, error)
}

type SaveOutcome struct {
	Plan      string `json:"plan"`
	State     string `json:"state"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message,omitempty"`
	Refreshed bool   `json:"refreshed"`
}

// SaveOrchestrator runs the save state machine of one drawer. One save at
// a time; a second Run while one is in flight fails with ConflictError.
type SaveOrchestrator struct {
	Backend Backend
	Trips   TripService
	Audit   AuditSink

	mu    sync.Mutex
	state SaveState
	trace []SaveState
}

func (o *SaveOrchestrator) State() SaveState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Trace returns the states the last run went through.
func (o *SaveOrchestrator) Trace() []SaveState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]SaveState(nil), o.trace...)
}

func (o *SaveOrchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != SaveIdle {
		return domain.ConflictError{Resource: "save", Msg: "a save is already in progress for this drawer"}
	}
	o.state = SaveCollecting
	o.trace = []SaveState{SaveCollecting}
	return nil
}

func (o *SaveOrchestrator) set(s SaveState) {
	o.mu.Lock()
	o.state = s
	o.trace = append(o.trace, s)
	o.mu.Unlock()
}

// Run collects, reconciles and submits plan for drawer d. Submission is
// detached from ctx cancellation; a closed drawer only skips the refetch.
func (o *SaveOrchestrator) Run(ctx context.Context, d *Drawer, rc domain.RequestContext, plan SavePlan) (SaveOutcome, error) {
	if err := o.begin(); err != nil {
		return SaveOutcome{Plan: plan.Name, State: o.State().String()}, err
	}
	defer o.set(SaveIdle)

	start := time.Now()
	out := SaveOutcome{Plan: plan.Name}

	var payload any
	err := d.locked(func() error {
		if plan.Collect != nil {
			if err := plan.Collect(); err != nil {
				return err
			}
		}
		o.set(SaveReconciling)
		p, err := plan.Reconcile()
		payload = p
		return err
	})
	if err != nil {
		o.set(SaveFailed)
		out.State = SaveFailed.String()
		out.Message = domain.UserMessage(err)
		metrics.Saves.WithLabelValues(plan.Name, "rejected").Inc()
		utils.LogEvent(rc.RequestID, "save", "prepare_failed", fmt.Sprintf("drawer=%s plan=%s err=%v", d.ID(), plan.Name, err))
		return out, err
	}

	o.set(SaveSubmitting)
	submitCtx := context.WithoutCancel(ctx)
	req := envelope.New(plan.MessageType, rc).WithPayload(payload)
	out.MessageID = req.Context.MessageID

	res, err := invoke(submitCtx, o.Backend, plan.Path, req, nil)
	elapsed := time.Since(start)
	if err != nil {
		o.set(SaveFailed)
		out.State = SaveFailed.String()
		out.Message = domain.UserMessage(err)
		o.audit(submitCtx, d, rc, plan, out, err, elapsed)
		metrics.Saves.WithLabelValues(plan.Name, "failed").Inc()
		utils.LogEvent(rc.RequestID, "save", "submit_failed", fmt.Sprintf("drawer=%s plan=%s message_id=%s err=%v", d.ID(), plan.Name, out.MessageID, err))
		return out, err
	}

	o.set(SaveSucceeded)
	out.State = SaveSucceeded.String()
	out.Message = res.Message
	o.audit(submitCtx, d, rc, plan, out, nil, elapsed)
	metrics.Saves.WithLabelValues(plan.Name, "succeeded").Inc()
	utils.LogEvent(rc.RequestID, "save", "submitted", fmt.Sprintf("drawer=%s plan=%s message_id=%s", d.ID(), plan.Name, out.MessageID))

	trip, err := o.Trips.Load(submitCtx, rc, d.TripNo())
	if err != nil {
		utils.LogEvent(rc.RequestID, "save", "refetch_failed", fmt.Sprintf("drawer=%s err=%v", d.ID(), err))
		return out, nil
	}
	out.Refreshed = d.reload(trip)
	return out, nil
}

func (o *SaveOrchestrator) audit(ctx context.Context, d *Drawer, rc domain.RequestContext, plan SavePlan, out SaveOutcome, cause error, elapsed time.Duration) {
	if o.Audit == nil {
		return
	}
	entry := repositories.SaveLog{
		DrawerID:    d.ID(),
		TripNo:      d.TripNo(),
		Plan:        plan.Name,
		MessageType: plan.MessageType,
		MessageID:   out.MessageID,
		UserID:      rc.UserID,
		Outcome:     out.State,
		Message:     out.Message,
		DurationMS:  elapsed.Milliseconds(),
	}
	var biz domain.BusinessError
	if errors.As(cause, &biz) {
		entry.ErrorCode = biz.Code
	}
	if _, err := o.Audit.Insert(ctx, entry); err != nil {
		utils.LogEvent(rc.RequestID, "save", "audit_failed", err.Error())
	}
}
