// Package dispatcher routes lifecycle events to their resource state
// machines and turns every outcome, including panics and timeouts, into a
// well-formed response envelope. A lifecycle event must never go
// unanswered: an unreported failure stalls the orchestrator until its own
// long timeout fires.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/cert_handler/resource"
	"github.com/renderwell/farmpki/pkg/util"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single event evaluation. It deliberately sits
// below common orchestrator timeouts so the dispatcher answers FAILED while
// the caller is still listening.
const DefaultTimeout = 60 * time.Second

var knownRequestTypes = []model.RequestType{
	model.RequestTypeCreate,
	model.RequestTypeUpdate,
	model.RequestTypeDelete,
}

var knownResourceTypes = []model.ResourceType{
	model.ResourceTypeCertificate,
	model.ResourceTypePkcs12Bundle,
}

type Dispatcher struct {
	certificates *resource.CertificateResource
	bundles      *resource.Pkcs12Resource
	timeout      time.Duration
}

type Option func(*Dispatcher)

// WithTimeout overrides the per-event evaluation deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func NewDispatcher(certificates *resource.CertificateResource, bundles *resource.Pkcs12Resource, options ...Option) *Dispatcher {
	d := &Dispatcher{
		certificates: certificates,
		bundles:      bundles,
		timeout:      DefaultTimeout,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Dispatch evaluates one lifecycle event and always returns a response.
// Evaluation runs under the configured deadline; when it expires, the event
// is answered FAILED even though the underlying evaluation may still be
// unwinding.
func (d *Dispatcher) Dispatch(ctx context.Context, event model.Event) model.Response {
	if event.RequestID == "" {
		event.RequestID = util.NewUUID()
	}
	log := logrus.WithFields(logrus.Fields{
		"request_id":   event.RequestID,
		"request_type": event.RequestType,
		"resource":     event.LogicalResourceID,
	})

	if !lo.Contains(knownRequestTypes, event.RequestType) {
		log.Warnf("rejected event with unknown request type %q", event.RequestType)
		return d.failed(event, fmt.Sprintf("unknown request type %q", event.RequestType))
	}
	if !lo.Contains(knownResourceTypes, event.ResourceType) {
		log.Warnf("rejected event with unknown resource type %q", event.ResourceType)
		return d.failed(event, fmt.Sprintf("unknown resource type %q", event.ResourceType))
	}
	if event.LogicalResourceID == "" {
		return d.failed(event, "missing LogicalResourceId")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resultCh := make(chan model.Response, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("panic during event evaluation: %v", r)
				resultCh <- d.failed(event, "internal error during event evaluation")
			}
		}()
		resultCh <- d.handle(ctx, event, log)
	}()

	select {
	case response := <-resultCh:
		return response
	case <-ctx.Done():
		log.Warnf("event evaluation abandoned: %s", ctx.Err())
		return d.failed(event, "event evaluation timed out")
	}
}

// DispatchRaw is the wire-level entry point: it decodes the event envelope,
// dispatches it and encodes the response. A payload that cannot be decoded
// is answered with a FAILED envelope rather than an error, since there is
// nothing else a caller could do with it.
func (d *Dispatcher) DispatchRaw(ctx context.Context, payload []byte) []byte {
	var event model.Event
	response := model.Response{}
	if err := json.Unmarshal(payload, &event); err != nil {
		logrus.Warnf("rejected undecodable event payload: %s", err)
		response = model.Response{
			Status: model.StatusFailed,
			Reason: fmt.Sprintf("malformed event payload: %s", err.Error()),
		}
	} else {
		response = d.Dispatch(ctx, event)
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		// The response envelope only holds strings and a string map, so
		// this cannot happen with a healthy runtime.
		logrus.Errorf("failed to encode response envelope: %s", err)
		return []byte(`{"Status":"FAILED","Reason":"internal error encoding response"}`)
	}
	return encoded
}

func (d *Dispatcher) handle(ctx context.Context, event model.Event, log *logrus.Entry) model.Response {
	start := time.Now()
	result, err := d.evaluate(ctx, event)
	if err != nil {
		log.Warnf("event failed after %s: %s", time.Since(start), model.FailureReason(err))
		return d.failed(event, model.FailureReason(err))
	}

	log.Infof("event succeeded after %s, physical id %s", time.Since(start), result.PhysicalResourceID)
	return model.Response{
		Status:             model.StatusSuccess,
		PhysicalResourceID: result.PhysicalResourceID,
		RequestID:          event.RequestID,
		Data:               result.Data,
	}
}

func (d *Dispatcher) evaluate(ctx context.Context, event model.Event) (resource.Result, error) {
	switch event.ResourceType {
	case model.ResourceTypeCertificate:
		return d.evaluateCertificate(ctx, event)
	case model.ResourceTypePkcs12Bundle:
		return d.evaluatePkcs12(ctx, event)
	default:
		return resource.Result{}, fmt.Errorf("unknown resource type %q%w", event.ResourceType, model.ErrInvalidParameter)
	}
}

func (d *Dispatcher) evaluateCertificate(ctx context.Context, event model.Event) (resource.Result, error) {
	if event.RequestType == model.RequestTypeDelete {
		if err := d.certificates.Delete(ctx, event.PhysicalResourceID); err != nil {
			return resource.Result{}, err
		}
		return resource.Result{PhysicalResourceID: event.PhysicalResourceID}, nil
	}

	var props model.CertificateProperties
	if err := json.Unmarshal(event.ResourceProperties, &props); err != nil {
		return resource.Result{}, fmt.Errorf("malformed resource properties: %s%w", err.Error(), model.ErrInvalidParameter)
	}

	if event.RequestType == model.RequestTypeCreate {
		return d.certificates.Create(ctx, event.LogicalResourceID, props)
	}

	// Undecodable old properties mean the prior state is unknown; the
	// resource layer then treats the instance as absent and issues fresh
	// material instead of diffing against garbage.
	var oldProps *model.CertificateProperties
	if len(event.OldResourceProperties) > 0 {
		oldProps = &model.CertificateProperties{}
		if err := json.Unmarshal(event.OldResourceProperties, oldProps); err != nil {
			logrus.Warnf("undecodable old properties for %s, treating prior state as unknown: %s", event.LogicalResourceID, err)
			oldProps = nil
		}
	}
	return d.certificates.Update(ctx, event.LogicalResourceID, event.PhysicalResourceID, props, oldProps)
}

func (d *Dispatcher) evaluatePkcs12(ctx context.Context, event model.Event) (resource.Result, error) {
	if event.RequestType == model.RequestTypeDelete {
		if err := d.bundles.Delete(ctx, event.PhysicalResourceID); err != nil {
			return resource.Result{}, err
		}
		return resource.Result{PhysicalResourceID: event.PhysicalResourceID}, nil
	}

	var props model.Pkcs12Properties
	if err := json.Unmarshal(event.ResourceProperties, &props); err != nil {
		return resource.Result{}, fmt.Errorf("malformed resource properties: %s%w", err.Error(), model.ErrInvalidParameter)
	}

	if event.RequestType == model.RequestTypeCreate {
		return d.bundles.Create(ctx, event.LogicalResourceID, props)
	}
	return d.bundles.Update(ctx, event.LogicalResourceID, props)
}

// failed builds a FAILED response. The physical identity is echoed back so
// the orchestrator never loses track of an existing resource instance on a
// failed operation.
func (d *Dispatcher) failed(event model.Event, reason string) model.Response {
	return model.Response{
		Status:             model.StatusFailed,
		PhysicalResourceID: event.PhysicalResourceID,
		RequestID:          event.RequestID,
		Reason:             reason,
	}
}
