package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds statements with Postgres $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository           *UserRepository
	ProfileRepository        *ProfileRepository
	ProgramRepository        *ProgramRepository
	AssignmentRepository     *AssignmentRepository
	ProgressRepository       *ProgressRepository
	LearningRecordRepository *LearningRecordRepository
	AnalysisJobRepository    *AnalysisJobRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:           NewUserRepository(db),
		ProfileRepository:        NewProfileRepository(db),
		ProgramRepository:        NewProgramRepository(db),
		AssignmentRepository:     NewAssignmentRepository(db),
		ProgressRepository:       NewProgressRepository(db),
		LearningRecordRepository: NewLearningRecordRepository(db),
		AnalysisJobRepository:    NewAnalysisJobRepository(db),
	}
}
