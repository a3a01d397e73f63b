package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/journey"
	"github.com/aussiebroadwan/accounts/internal/accounts/metrics"
	"github.com/aussiebroadwan/accounts/internal/accounts/redirect"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// JourneyView is the client-facing picture of a journey.
type JourneyView struct {
	Scope    string            `json:"scope"`
	State    string            `json:"state"`
	Context  map[string]string `json:"context"`
	Accepts  []string          `json:"accepts"`
	Terminal bool              `json:"terminal"`
}

// StepResult is returned by State and Send. Location is only set when the
// journey finished and the browser should return to the client.
type StepResult struct {
	Journey  JourneyView
	Applied  bool
	Location string
}

// JourneyService steps the journeys stored in a session.
type JourneyService struct {
	Machine  *journey.Machine
	Sessions *SessionManager
	Codes    CodeIssuer
	Metrics  *metrics.Metrics
}

// State returns the journey for scope without changing it.
func (s *JourneyService) State(ctx context.Context, sessionID, scope string) (*StepResult, error) {
	_, inst, err := s.load(ctx, sessionID, scope)
	if err != nil {
		return nil, err
	}
	return &StepResult{Journey: s.view(inst)}, nil
}

// Send applies ev to the journey for scope. An event the current state does
// not accept leaves the journey as it was; it is counted and logged but the
// request still succeeds with Applied false.
//
// When the journey reaches a terminal state an authorization code is issued
// and Location points back at the client's validated redirect URI. The
// journey and its pending authorization are then removed from the session.
func (s *JourneyService) Send(ctx context.Context, sessionID, scope string, ev journey.Event) (*StepResult, error) {
	l := slogx.FromContext(ctx).With(slog.String("scope", scope))

	sess, inst, err := s.load(ctx, sessionID, scope)
	if err != nil {
		return nil, err
	}

	next, applied := s.Machine.Send(inst, ev)
	if !applied {
		l.Warn("journey event ignored",
			slog.String("state", string(inst.State)),
			slog.String("event", string(ev.Tag)),
		)
		s.Metrics.ObserveJourneyEvent(scope, "ignored")
		return &StepResult{Journey: s.view(inst)}, nil
	}

	if !s.Machine.IsTerminal(next) {
		snap, err := s.Machine.Snapshot(next)
		if err != nil {
			return nil, newError(KindServerError, err)
		}
		sess.State.Journeys[scope] = snap
		if err := s.Sessions.Save(ctx, sess); err != nil {
			return nil, newError(KindServerError, err)
		}
		s.Metrics.ObserveJourneyEvent(scope, "applied")
		return &StepResult{Journey: s.view(next), Applied: true}, nil
	}

	pending, ok := sess.State.Authorizations[scope]
	if !ok {
		// A journey without a pending authorization has nowhere to return to.
		sess.State.Forget(scope)
		if err := s.Sessions.Save(ctx, sess); err != nil {
			l.Error("journey: failed to drop orphaned journey", slog.Any("error", err))
		}
		return nil, errorf(KindNotFound, "no pending authorization for %s", scope)
	}

	code, err := s.Codes.Issue(ctx, CodeGrant{
		ClientID:     pending.ClientID,
		RedirectURI:  pending.RedirectURI,
		Scope:        scope,
		Subject:      cryptox.FingerprintToken(sess.ID),
		JourneyState: string(next.State),
	})
	if err != nil {
		return nil, newError(KindServerError, err)
	}

	location, err := redirect.Build(pending.RedirectURI, redirect.Params{Code: code, State: pending.State})
	if err != nil {
		return nil, newError(KindServerError, err)
	}

	sess.State.Forget(scope)
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return nil, newError(KindServerError, err)
	}

	l.Info("journey completed",
		slog.String("client_id", pending.ClientID),
		slog.String("state", string(next.State)),
	)
	s.Metrics.ObserveJourneyEvent(scope, "completed")
	return &StepResult{Journey: s.view(next), Applied: true, Location: location}, nil
}

// load fetches the session and restores the scope's journey. A snapshot that
// no longer restores is dropped from the session and reported as corrupt.
func (s *JourneyService) load(ctx context.Context, sessionID, scope string) (*Session, journey.Instance, error) {
	if !s.Machine.Has(scope) {
		return nil, journey.Instance{}, errorf(KindNotFound, "unknown journey %q", scope)
	}
	if sessionID == "" {
		return nil, journey.Instance{}, errorf(KindNotFound, "no session")
	}

	sess, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, journey.Instance{}, newError(KindServerError, err)
	}

	snap, ok := sess.State.Journeys[scope]
	if !ok {
		return nil, journey.Instance{}, errorf(KindNotFound, "no %s journey in session", scope)
	}

	inst, err := s.Machine.Restore(scope, snap)
	if err != nil {
		if errors.Is(err, journey.ErrCorruptSnapshot) {
			slogx.FromContext(ctx).Error("dropping corrupt journey snapshot", slog.String("scope", scope), slog.Any("error", err))
			s.Metrics.ObserveJourneyEvent(scope, "corrupt")
			sess.State.Forget(scope)
			if saveErr := s.Sessions.Save(ctx, sess); saveErr != nil {
				return nil, journey.Instance{}, newError(KindServerError, saveErr)
			}
			return nil, journey.Instance{}, newError(KindCorruptSnapshot, err)
		}
		return nil, journey.Instance{}, newError(KindServerError, fmt.Errorf("restore journey: %w", err))
	}
	return sess, inst, nil
}

func (s *JourneyService) view(inst journey.Instance) JourneyView {
	accepts := s.Machine.Accepts(inst)
	tags := make([]string, len(accepts))
	for i, t := range accepts {
		tags[i] = string(t)
	}
	return JourneyView{
		Scope:    inst.Scope,
		State:    string(inst.State),
		Context:  inst.Context.Clone(),
		Accepts:  tags,
		Terminal: s.Machine.IsTerminal(inst),
	}
}
