package repositories

import "gorm.io/gorm"

// InsertResult is the outcome of an insert guarded by a uniqueness constraint.
// A conflicting row is not an error: it is reported as AlreadyExists.
type InsertResult int

const (
	Inserted InsertResult = iota + 1
	AlreadyExists
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// Repos bundles the relational repositories bound to one *gorm.DB handle.
// Binding it to a transaction handle makes every repository share that transaction.
type Repos struct {
	Users         UserRepository
	Tags          TagRepository
	Posts         PostRepository
	Comments      CommentRepository
	Interactions  InteractionRepository
	Counters      CounterRepository
	Activities    ActivityRepository
	Notifications NotificationRepository
}

// NewRepos creates the repository bundle for db
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Users:         NewPostgresUserRepository(db),
		Tags:          NewPostgresTagRepository(db),
		Posts:         NewPostgresPostRepository(db),
		Comments:      NewPostgresCommentRepository(db),
		Interactions:  NewPostgresInteractionRepository(db),
		Counters:      NewPostgresCounterRepository(db),
		Activities:    NewPostgresActivityRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
	}
}
