package types

// ChatRole identifies the author of a chat turn
type ChatRole string

const (
	ChatRoleUser ChatRole = "user"
	ChatRoleAI   ChatRole = "ai"
)

func (r ChatRole) IsValid() bool {
	return r == ChatRoleUser || r == ChatRoleAI
}

func (r ChatRole) String() string {
	return string(r)
}
