package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
	repo "github.com/oksasatya/zenplan-api/internal/domain/repository"
	"github.com/oksasatya/zenplan-api/internal/observability"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
)

// ActivityIndex is an optional full-text index over activities.
// Search returns matching activity ids, best match first.
type ActivityIndex interface {
	Index(ctx context.Context, a entity.Activity) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, userID, query string, size int) ([]string, error)
}

const (
	defaultSearchSize = 20
	maxSearchSize     = 100
)

// ListService implements the activity list operations. The owner of every
// record is the userID passed in by the caller, which must come from the
// verified session, never from the request payload.
type ListService struct {
	Repo   repo.ActivityRepository
	Index  ActivityIndex
	Logger *logrus.Logger
}

func NewListService(r repo.ActivityRepository, index ActivityIndex, logger *logrus.Logger) *ListService {
	return &ListService{Repo: r, Index: index, Logger: logger}
}

// CreateActivityInput is the raw payload of a create request.
type CreateActivityInput struct {
	Title       string
	Category    string
	Time        string
	Description string
	Note        string
}

// EditActivityInput holds the fields to change; nil leaves a field as is.
type EditActivityInput struct {
	Title       *string
	Category    *string
	Time        *string
	Description *string
	Note        *string
}

// List returns the caller's activities in creation order.
func (s *ListService) List(ctx context.Context, userID string) ([]entity.Activity, error) {
	items, err := s.Repo.ListByUser(ctx, userID)
	observability.RecordActivityOp("get", err)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ListService) Create(ctx context.Context, userID string, in CreateActivityInput) (*entity.Activity, error) {
	var verr ValidationError
	title := strings.TrimSpace(in.Title)
	if title == "" {
		verr.add("title", "cannot be empty")
	}
	category, ok := entity.ParseCategory(in.Category)
	if !ok {
		verr.add("category", "must be a valid category")
	}
	at, ok := helpers.ParseTime(in.Time)
	if !ok {
		verr.add("time", "must be a valid date and time")
	}
	if err := verr.orNil(); err != nil {
		observability.RecordActivityOp("create", err)
		return nil, err
	}

	a := &entity.Activity{
		UserID:      userID,
		Title:       title,
		Category:    category,
		Time:        at,
		Description: strings.TrimSpace(in.Description),
		Note:        strings.TrimSpace(in.Note),
	}
	err := s.Repo.Create(ctx, a)
	observability.RecordActivityOp("create", err)
	if err != nil {
		return nil, err
	}
	s.logger().WithFields(logrus.Fields{"user_id": userID, "activity_id": a.ID}).Debug("activity created")
	s.index(ctx, *a)
	return a, nil
}

func (s *ListService) Edit(ctx context.Context, userID, id string, in EditActivityInput) (*entity.Activity, error) {
	if !validID(id) {
		return nil, ErrActivityNotFound
	}
	patch, err := buildPatch(in)
	if err != nil {
		observability.RecordActivityOp("edit", err)
		return nil, err
	}
	a, err := s.Repo.Update(ctx, userID, id, patch)
	err = notFound(err)
	observability.RecordActivityOp("edit", err)
	if err != nil {
		return nil, err
	}
	s.index(ctx, *a)
	return a, nil
}

func (s *ListService) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return ErrActivityNotFound
	}
	err := notFound(s.Repo.Delete(ctx, userID, id))
	observability.RecordActivityOp("delete", err)
	if err != nil {
		return err
	}
	if s.Index != nil {
		if ierr := s.Index.Delete(ctx, id); ierr != nil {
			s.logger().WithError(ierr).WithField("activity_id", id).Warn("search index delete failed")
		}
	}
	return nil
}

// Toggle inverts the completion flag.
func (s *ListService) Toggle(ctx context.Context, userID, id string) (*entity.Activity, error) {
	if !validID(id) {
		return nil, ErrActivityNotFound
	}
	a, err := s.Repo.Toggle(ctx, userID, id)
	err = notFound(err)
	observability.RecordActivityOp("toggle", err)
	if err != nil {
		return nil, err
	}
	s.index(ctx, *a)
	return a, nil
}

// CompleteAll marks all of the caller's open activities as completed and
// returns the ones that changed.
func (s *ListService) CompleteAll(ctx context.Context, userID string) ([]entity.Activity, error) {
	items, err := s.Repo.CompleteAll(ctx, userID)
	observability.RecordActivityOp("complete", err)
	if err != nil {
		return nil, err
	}
	for _, a := range items {
		s.index(ctx, a)
	}
	return items, nil
}

// Search finds the caller's activities whose title, description or note
// match query. Hits from the index are re-read from the store so the
// result only ever contains records the caller owns.
func (s *ListService) Search(ctx context.Context, userID, query string, size int) ([]entity.Activity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Fields: map[string]string{"q": "is required"}}
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	owned, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		observability.RecordActivityOp("search", err)
		return nil, err
	}

	var out []entity.Activity
	if s.Index != nil {
		ids, ierr := s.Index.Search(ctx, userID, query, size)
		if ierr == nil {
			out = pickByID(owned, ids)
		} else {
			s.logger().WithError(ierr).Warn("search index query failed, falling back to store scan")
			out = matchLocal(owned, query, size)
		}
	} else {
		out = matchLocal(owned, query, size)
	}
	observability.RecordActivityOp("search", nil)
	return out, nil
}

func (s *ListService) index(ctx context.Context, a entity.Activity) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, a); err != nil {
		s.logger().WithError(err).WithField("activity_id", a.ID).Warn("search index update failed")
	}
}

func (s *ListService) logger() *logrus.Logger {
	if s.Logger == nil {
		return helpers.NewDiscardLogger()
	}
	return s.Logger
}

func buildPatch(in EditActivityInput) (entity.ActivityPatch, error) {
	var (
		patch entity.ActivityPatch
		verr  ValidationError
	)
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			verr.add("title", "cannot be empty")
		}
		patch.Title = &t
	}
	if in.Category != nil {
		c, ok := entity.ParseCategory(*in.Category)
		if !ok {
			verr.add("category", "must be a valid category")
		}
		patch.Category = &c
	}
	if in.Time != nil {
		at, ok := helpers.ParseTime(*in.Time)
		if !ok {
			verr.add("time", "must be a valid date and time")
		}
		patch.Time = &at
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		patch.Description = &d
	}
	if in.Note != nil {
		n := strings.TrimSpace(*in.Note)
		patch.Note = &n
	}
	if err := verr.orNil(); err != nil {
		return entity.ActivityPatch{}, err
	}
	if patch.Empty() {
		return entity.ActivityPatch{}, &ValidationError{Fields: map[string]string{"payload": "no fields to update"}}
	}
	return patch, nil
}

func pickByID(owned []entity.Activity, ids []string) []entity.Activity {
	byID := make(map[string]entity.Activity, len(owned))
	for _, a := range owned {
		byID[a.ID] = a
	}
	out := make([]entity.Activity, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

func matchLocal(owned []entity.Activity, query string, size int) []entity.Activity {
	q := strings.ToLower(query)
	out := make([]entity.Activity, 0)
	for _, a := range owned {
		if len(out) == size {
			break
		}
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Description), q) ||
			strings.Contains(strings.ToLower(a.Note), q) {
			out = append(out, a)
		}
	}
	return out
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrActivityNotFound
	}
	return err
}

