package model

// UserInfo is the request-scoped caller context. It is resolved once at the
// edge (API middleware or scheduler identity) and passed by parameter into
// every handler and audit call; there is no ambient user state.
type UserInfo struct {
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
	BranchID string `json:"branch_id,omitempty"`
	Token    string `json:"-"`
}

// SystemUser is the caller identity attached to scheduled background runs.
func SystemUser(token string) UserInfo {
	return UserInfo{UserName: "system", Token: token}
}
