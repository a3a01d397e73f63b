package journey_test

import (
	"fmt"
	"testing"

	"github.com/aussiebroadwan/accounts/internal/accounts/journey"
	"github.com/stretchr/testify/require"
)

func ev(tag journey.EventTag, kv ...string) journey.Event {
	data := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		data[kv[i]] = kv[i+1]
	}
	return journey.Event{Tag: tag, Data: data}
}

func TestCreate(t *testing.T) {
	m := journey.Default()

	inst, err := m.Create(journey.ScopeDeleteAccount)
	require.NoError(t, err)
	require.Equal(t, journey.PasswordNotProvided, inst.State)
	require.NotNil(t, inst.Context)
	require.Empty(t, inst.Context)

	_, err = m.Create("reset-everything")
	require.ErrorIs(t, err, journey.ErrUnknownScope)
}

func TestSendDeleteAccount(t *testing.T) {
	m := journey.Default()
	inst, err := m.Create(journey.ScopeDeleteAccount)
	require.NoError(t, err)

	inst, ok := m.Send(inst, ev(journey.ValidatePassword))
	require.True(t, ok)
	require.Equal(t, journey.PasswordProvided, inst.State)
	require.False(t, m.IsTerminal(inst))

	inst, ok = m.Send(inst, ev(journey.SelectReason, "reason", "moving on"))
	require.True(t, ok)
	require.Equal(t, journey.PasswordProvided, inst.State, "context-only transition keeps state")
	require.Equal(t, "moving on", inst.Context["reason"])

	inst, ok = m.Send(inst, ev(journey.Confirm))
	require.True(t, ok)
	require.Equal(t, journey.AccountDeleted, inst.State)
	require.True(t, m.IsTerminal(inst))
	require.Empty(t, m.Accepts(inst))
}

func TestSendUnknownEventIsNoop(t *testing.T) {
	m := journey.Default()

	reachable := []journey.Instance{}
	inst, err := m.Create(journey.ScopeRegisterPasskey)
	require.NoError(t, err)
	reachable = append(reachable, inst)

	inst, _ = m.Send(inst, ev(journey.Start, "challenge", "c-1"))
	reachable = append(reachable, inst)

	inst, _ = m.Send(inst, ev(journey.SubmitCredential, "credential_id", "cred-9"))
	reachable = append(reachable, inst)

	for _, s := range reachable {
		for _, tag := range []journey.EventTag{"BOGUS", journey.Confirm, journey.ValidatePassword} {
			t.Run(fmt.Sprintf("%s/%s", s.State, tag), func(t *testing.T) {
				before := journey.Instance{Scope: s.Scope, State: s.State, Context: s.Context.Clone()}

				next, ok := m.Send(s, ev(tag, "challenge", "attacker"))
				require.False(t, ok)
				require.Equal(t, before, next)
				require.Equal(t, before, s)
			})
		}
	}

	t.Run("repeated event after transition", func(t *testing.T) {
		inst, err := m.Create(journey.ScopeRegisterPasskey)
		require.NoError(t, err)

		inst, ok := m.Send(inst, ev(journey.Start, "challenge", "c-1"))
		require.True(t, ok)

		again, ok := m.Send(inst, ev(journey.Start, "challenge", "c-2"))
		require.False(t, ok)
		require.Equal(t, "c-1", again.Context["challenge"])
	})

	t.Run("unknown scope", func(t *testing.T) {
		inst := journey.Instance{Scope: "nope", State: "X", Context: journey.Context{}}
		next, ok := m.Send(inst, ev(journey.Start))
		require.False(t, ok)
		require.Equal(t, inst, next)
	})
}

func TestSendDoesNotMutateInput(t *testing.T) {
	m := journey.Default()
	inst, err := m.Create(journey.ScopeChangeEmail)
	require.NoError(t, err)

	inst, _ = m.Send(inst, ev(journey.SubmitEmail, "email", "a@example.com"))
	snapshotBefore := inst.Context.Clone()

	next, ok := m.Send(inst, ev(journey.ResendCode))
	require.True(t, ok)
	require.Equal(t, "1", next.Context["resends"])
	require.Equal(t, snapshotBefore, inst.Context)

	next, _ = m.Send(next, ev(journey.ResendCode))
	require.Equal(t, "2", next.Context["resends"])
}

func TestCancelResetsContext(t *testing.T) {
	m := journey.Default()
	inst, err := m.Create(journey.ScopeRegisterPasskey)
	require.NoError(t, err)

	inst, _ = m.Send(inst, ev(journey.Start, "challenge", "c-1"))
	inst, ok := m.Send(inst, ev(journey.Cancel))
	require.True(t, ok)
	require.Equal(t, journey.NotCreated, inst.State)
	require.Empty(t, inst.Context)
}

func TestReplayIsDeterministic(t *testing.T) {
	m := journey.Default()
	log := []journey.Event{
		ev(journey.SubmitEmail, "email", "a@example.com"),
		ev(journey.ResendCode),
		ev("NOISE"),
		ev(journey.ResendCode),
		ev(journey.VerifyCode),
		ev(journey.ResendCode),
	}

	run := func() journey.Instance {
		inst, err := m.Create(journey.ScopeChangeEmail)
		require.NoError(t, err)
		for _, e := range log {
			inst, _ = m.Send(inst, e)
		}
		return inst
	}

	first := run()
	require.Equal(t, journey.EmailUpdated, first.State)
	require.Equal(t, "2", first.Context["resends"])
	require.Equal(t, first, run())
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := journey.Default()

	var reachable []journey.Instance
	for _, scope := range m.Scopes() {
		inst, err := m.Create(scope)
		require.NoError(t, err)
		reachable = append(reachable, inst)
	}

	inst, _ := m.Create(journey.ScopeDeleteAccount)
	inst, _ = m.Send(inst, ev(journey.ValidatePassword))
	reachable = append(reachable, inst)
	inst, _ = m.Send(inst, ev(journey.SelectReason, "reason", `quotes " and \ slashes`))
	reachable = append(reachable, inst)
	inst, _ = m.Send(inst, ev(journey.Confirm))
	reachable = append(reachable, inst)

	for _, x := range reachable {
		t.Run(fmt.Sprintf("%s/%s", x.Scope, x.State), func(t *testing.T) {
			data, err := m.Snapshot(x)
			require.NoError(t, err)

			restored, err := m.Restore(x.Scope, data)
			require.NoError(t, err)
			require.Equal(t, x, restored)

			again, err := m.Snapshot(restored)
			require.NoError(t, err)
			require.Equal(t, data, again, "encoding is deterministic")
		})
	}
}

func TestRestoreRejectsCorruptSnapshots(t *testing.T) {
	m := journey.Default()

	tests := []struct {
		name string
		data string
	}{
		{"unknown state", `{"scope":"delete-account","state":"ACCOUNT_RESTORED","context":{}}`},
		{"state from another scope", `{"scope":"delete-account","state":"CHALLENGE_ISSUED","context":{}}`},
		{"scope mismatch", `{"scope":"register-passkey","state":"NOT_CREATED","context":{}}`},
		{"empty state", `{"scope":"delete-account","state":"","context":{}}`},
		{"not json", `PASSWORD_PROVIDED`},
		{"empty", ``},
		{"null", `null`},
		{"unknown field", `{"scope":"delete-account","state":"PASSWORD_PROVIDED","context":{},"admin":true}`},
		{"context wrong type", `{"scope":"delete-account","state":"PASSWORD_PROVIDED","context":[1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Restore(journey.ScopeDeleteAccount, []byte(tt.data))
			require.ErrorIs(t, err, journey.ErrCorruptSnapshot)
		})
	}

	t.Run("unknown scope", func(t *testing.T) {
		_, err := m.Restore("nope", []byte(`{}`))
		require.ErrorIs(t, err, journey.ErrUnknownScope)
	})

	t.Run("missing context restores empty", func(t *testing.T) {
		inst, err := m.Restore(journey.ScopeDeleteAccount, []byte(`{"scope":"delete-account","state":"PASSWORD_PROVIDED"}`))
		require.NoError(t, err)
		require.NotNil(t, inst.Context)
	})
}

func TestNewMachineValidation(t *testing.T) {
	states := map[journey.StateID]map[journey.EventTag]journey.Transition{
		"A": {"GO": {Target: "B"}},
		"B": {},
	}

	_, err := journey.NewMachine(journey.Definition{Scope: "s", Initial: "A", States: states})
	require.NoError(t, err)

	_, err = journey.NewMachine(
		journey.Definition{Scope: "s", Initial: "A", States: states},
		journey.Definition{Scope: "s", Initial: "A", States: states},
	)
	require.Error(t, err, "duplicate scope")

	_, err = journey.NewMachine(journey.Definition{Scope: "s", Initial: "Z", States: states})
	require.Error(t, err, "undeclared initial")

	_, err = journey.NewMachine(journey.Definition{Scope: "s", Initial: "A", States: map[journey.StateID]map[journey.EventTag]journey.Transition{
		"A": {"GO": {Target: "C"}},
	}})
	require.Error(t, err, "undeclared target")

	_, err = journey.NewMachine(journey.Definition{Scope: "s", Initial: "A", States: map[journey.StateID]map[journey.EventTag]journey.Transition{
		"A": {"GO": {}},
	}})
	require.Error(t, err, "empty transition")

	_, err = journey.NewMachine(journey.Definition{Initial: "A", States: states})
	require.Error(t, err, "missing scope")
}

func TestScopesAndAccepts(t *testing.T) {
	m := journey.Default()
	require.Equal(t, []string{journey.ScopeChangeEmail, journey.ScopeDeleteAccount, journey.ScopeRegisterPasskey}, m.Scopes())

	inst, _ := m.Create(journey.ScopeDeleteAccount)
	inst, _ = m.Send(inst, ev(journey.ValidatePassword))
	require.Equal(t, []journey.EventTag{journey.Confirm, journey.SelectReason}, m.Accepts(inst))
}
