package candidates

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/common"
	"github.com/spigell/hh-interviewer/internal/store"
)

// IDGenerator returns a fresh candidate identifier.
type IDGenerator func() (string, error)

// Registry creates and looks up candidates on top of a snapshot store.
//
// Mutations are serialized inside one process. Two processes sharing the same
// store still race and the last save wins.
type Registry struct {
	store  store.Store
	logger *zap.Logger
	newID  IDGenerator

	mu sync.Mutex
}

func New(s store.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		store:  s,
		logger: logger,
		newID:  randomID,
	}
}

// WithIDGenerator replaces the identifier source.
func (r *Registry) WithIDGenerator(gen IDGenerator) *Registry {
	r.newID = gen
	return r
}

func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Register validates the fields, assigns a new id and appends the candidate to the store.
// Nothing is saved when validation fails.
func (r *Registry) Register(ctx context.Context, name, email, phone, resume string) (*store.Candidate, error) {
	if err := validateFields(map[string]string{
		"name":   name,
		"email":  email,
		"phone":  phone,
		"resume": resume,
	}); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("%w: generating candidate id: %v", common.ErrStorage, err)
	}

	if _, exists := snapshot.FindByID(id); exists {
		return nil, fmt.Errorf("%w: generated candidate id %s collides with an existing record", common.ErrStorage, id)
	}

	candidate := store.Candidate{
		ID:     id,
		Name:   name,
		Email:  email,
		Phone:  phone,
		Resume: resume,
	}
	snapshot.Candidates = append(snapshot.Candidates, candidate)

	if err := r.store.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	r.logger.Info("candidate registered",
		zap.String("candidate_id", id),
		zap.Int("candidates_count", len(snapshot.Candidates)),
	)

	return &candidate, nil
}

// FindByID looks up a candidate by exact id. A miss is reported through the boolean, not as an error.
func (r *Registry) FindByID(ctx context.Context, id string) (*store.Candidate, bool, error) {
	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}

	candidate, ok := snapshot.FindByID(id)
	if !ok {
		r.logger.Debug("candidate not found", zap.String("candidate_id", id))
		return nil, false, nil
	}

	return candidate, true, nil
}

// UpdateJobDescription overwrites the shared job description. Empty text is accepted.
func (r *Registry) UpdateJobDescription(ctx context.Context, text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: job description is not valid UTF-8", common.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	snapshot.JobDescription = text

	if err := r.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	r.logger.Info("job description updated", zap.Int("length", len(text)))
	return nil
}

func (r *Registry) JobDescription(ctx context.Context) (string, error) {
	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot.JobDescription, nil
}

// List returns candidates in registration order.
func (r *Registry) List(ctx context.Context) ([]store.Candidate, error) {
	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot.Candidates, nil
}

func validateFields(fields map[string]string) error {
	var missing, invalid []string
	for _, key := range []string{"name", "email", "phone", "resume"} {
		switch value := fields[key]; {
		case strings.TrimSpace(value) == "":
			missing = append(missing, key)
		case !utf8.ValidString(value):
			invalid = append(invalid, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: required fields are empty: %s", common.ErrValidation, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: fields are not valid UTF-8: %s", common.ErrValidation, strings.Join(invalid, ", "))
	}

	return nil
}
