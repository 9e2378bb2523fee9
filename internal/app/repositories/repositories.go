package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds PostgreSQL statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository      *UserRepository
	WorkspaceRepository *WorkspaceRepository
	MemberRepository    *MemberRepository
	GroupRepository     *ChatGroupRepository
	MessageRepository   *ChatMessageRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:      NewUserRepository(db),
		WorkspaceRepository: NewWorkspaceRepository(db),
		MemberRepository:    NewMemberRepository(db),
		GroupRepository:     NewChatGroupRepository(db),
		MessageRepository:   NewChatMessageRepository(db),
	}
}
