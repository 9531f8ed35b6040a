package stockbot

// Summary is the per-account outcome of a bot operation. Validation
// rejections are carried in Error as human-readable messages rather than
// returned as Go errors, so bulk callers can report per-account status.
type Summary struct {
	AccountID string `json:"accountId"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`

	// CreatedAccounts lists the support accounts created during the
	// operation, keyed by exchange code.
	CreatedAccounts map[string][]string `json:"createdAccounts,omitempty"`
}

// NewSummary creates a summary for the given account.
func NewSummary(accountID string) *Summary {
	return &Summary{AccountID: accountID}
}

// Done records a success message.
func (s *Summary) Done(msg string) *Summary {
	s.Result = msg
	return s
}

// Reject records a validation rejection. No mutation happened.
func (s *Summary) Reject(msg string) *Summary {
	s.Error = msg
	return s
}

// Rejected reports whether the operation was rejected.
func (s *Summary) Rejected() bool { return s.Error != "" }

// TrackAccountCreated records a support account created for an exchange code.
func (s *Summary) TrackAccountCreated(excCode, accountName string) {
	if s.CreatedAccounts == nil {
		s.CreatedAccounts = make(map[string][]string)
	}
	s.CreatedAccounts[excCode] = append(s.CreatedAccounts[excCode], accountName)
}
