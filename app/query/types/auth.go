package types

// User is an operator account allowed to force cache invalidation.
type User struct {
	Username string `json:"username"`
	Hash     []byte `json:"hash"`
	Role     string `json:"role"`
}
