package journey

import "strconv"

// Journey scopes.
const (
	ScopeDeleteAccount   = "delete-account"
	ScopeRegisterPasskey = "register-passkey"
	ScopeChangeEmail     = "change-email"
)

// delete-account
const (
	PasswordNotProvided StateID = "PASSWORD_NOT_PROVIDED"
	PasswordProvided    StateID = "PASSWORD_PROVIDED"
	AccountDeleted      StateID = "ACCOUNT_DELETED"

	ValidatePassword EventTag = "VALIDATE_PASSWORD"
	SelectReason     EventTag = "SELECT_REASON"
	Confirm          EventTag = "CONFIRM"
)

// register-passkey
const (
	NotCreated      StateID = "NOT_CREATED"
	ChallengeIssued StateID = "CHALLENGE_ISSUED"
	Created         StateID = "CREATED"

	Start            EventTag = "START"
	SubmitCredential EventTag = "SUBMIT_CREDENTIAL"
	Cancel           EventTag = "CANCEL"
)

// change-email
const (
	EmailNotProvided StateID = "EMAIL_NOT_PROVIDED"
	CodeSent         StateID = "CODE_SENT"
	EmailUpdated     StateID = "EMAIL_UPDATED"

	SubmitEmail EventTag = "SUBMIT_EMAIL"
	ResendCode  EventTag = "RESEND_CODE"
	VerifyCode  EventTag = "VERIFY_CODE"
)

// assign copies event data fields into the context under the same names.
// Missing fields are left untouched.
func assign(fields ...string) Action {
	return func(ctx Context, ev Event) Context {
		for _, f := range fields {
			if v, ok := ev.Data[f]; ok {
				ctx[f] = v
			}
		}
		return ctx
	}
}

func reset(Context, Event) Context {
	return Context{}
}

func countResend(ctx Context, _ Event) Context {
	n, _ := strconv.Atoi(ctx["resends"])
	ctx["resends"] = strconv.Itoa(n + 1)
	return ctx
}

// Definitions returns every journey the service offers.
func Definitions() []Definition {
	return []Definition{
		{
			Scope:   ScopeDeleteAccount,
			Initial: PasswordNotProvided,
			States: map[StateID]map[EventTag]Transition{
				PasswordNotProvided: {
					ValidatePassword: {Target: PasswordProvided},
				},
				PasswordProvided: {
					SelectReason: {Assign: assign("reason")},
					Confirm:      {Target: AccountDeleted},
				},
				AccountDeleted: {},
			},
		},
		{
			Scope:   ScopeRegisterPasskey,
			Initial: NotCreated,
			States: map[StateID]map[EventTag]Transition{
				NotCreated: {
					Start: {Target: ChallengeIssued, Assign: assign("challenge")},
				},
				ChallengeIssued: {
					SubmitCredential: {Target: Created, Assign: assign("credential_id")},
					Cancel:           {Target: NotCreated, Assign: reset},
				},
				Created: {},
			},
		},
		{
			Scope:   ScopeChangeEmail,
			Initial: EmailNotProvided,
			States: map[StateID]map[EventTag]Transition{
				EmailNotProvided: {
					SubmitEmail: {Target: CodeSent, Assign: assign("email")},
				},
				CodeSent: {
					ResendCode: {Assign: countResend},
					VerifyCode: {Target: EmailUpdated},
				},
				EmailUpdated: {},
			},
		},
	}
}

// Default is the machine built from Definitions.
func Default() *Machine {
	return MustNewMachine(Definitions()...)
}
