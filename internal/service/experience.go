package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/validation"
)

const (
	maxExperienceText        = 200
	maxExperienceDescription = 2000
)

// ExperienceInput is the body of an experience create. Dates are YYYY-MM-DD or RFC 3339.
type ExperienceInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Company     string  `json:"company" validate:"required,max=200"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	StartDate   string  `json:"startDate" validate:"required"`
	EndDate     *string `json:"endDate"`
	IsCurrent   bool    `json:"isCurrent"`
}

type UpdateExperienceInput struct {
	Title       model.Nullable[string] `json:"title"`
	Company     model.Nullable[string] `json:"company"`
	Location    model.Nullable[string] `json:"location"`
	Description model.Nullable[string] `json:"description"`
	StartDate   model.Nullable[string] `json:"startDate"`
	EndDate     model.Nullable[string] `json:"endDate"`
	IsCurrent   model.Nullable[bool]   `json:"isCurrent"`
}

func (in UpdateExperienceInput) empty() bool {
	return !in.Title.Set && !in.Company.Set && !in.Location.Set && !in.Description.Set &&
		!in.StartDate.Set && !in.EndDate.Set && !in.IsCurrent.Set
}

type ExperienceService struct {
	experienceRepository repository.ExperienceRepository
	userRepository       repository.UserRepository
	guard                *Guard
}

func NewExperienceService(
	experienceRepository repository.ExperienceRepository,
	userRepository repository.UserRepository,
	guard *Guard,
) *ExperienceService {
	return &ExperienceService{
		experienceRepository: experienceRepository,
		userRepository:       userRepository,
		guard:                guard,
	}
}

func (s *ExperienceService) List(ctx context.Context, userID string) ([]model.Experience, error) {
	ok, err := s.userRepository.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !ok {
		return nil, notFound("user")
	}

	exps, err := s.experienceRepository.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	return exps, nil
}

func (s *ExperienceService) Create(ctx context.Context, caller *model.Identity, userID string, in ExperienceInput) (*model.Experience, error) {
	err := s.authorize(caller, ActionUpdate, userID)
	if err != nil {
		return nil, err
	}

	in.Title = validation.NormalizeText(in.Title)
	in.Company = validation.NormalizeText(in.Company)
	in.StartDate = strings.TrimSpace(in.StartDate)
	err = validation.Struct(in)
	if err != nil {
		return nil, invalidArgument("%s", err.Error())
	}

	now := time.Now().UTC()
	exp := &model.Experience{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Company:   in.Company,
		IsCurrent: in.IsCurrent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	exp.Location, err = optionalText("location", in.Location, maxExperienceText)
	if err != nil {
		return nil, err
	}
	exp.Description, err = optionalText("description", in.Description, maxExperienceDescription)
	if err != nil {
		return nil, err
	}
	exp.StartDate, err = parseDate("startDate", in.StartDate)
	if err != nil {
		return nil, err
	}
	exp.EndDate, err = parseOptionalDate("endDate", in.EndDate)
	if err != nil {
		return nil, err
	}

	err = checkExperience(exp)
	if err != nil {
		return nil, err
	}

	err = s.experienceRepository.Create(ctx, exp)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, notFound("user")
	case errors.Is(err, repository.ErrExperienceInvalid):
		return nil, invalidArgument("endDate must be empty when isCurrent is true")
	case err != nil:
		return nil, fmt.Errorf("failed to create experience: %w", err)
	}
	return exp, nil
}

// Update merges the provided fields onto the stored experience and re-checks
// the merged result.
func (s *ExperienceService) Update(ctx context.Context, caller *model.Identity, userID, id string, in UpdateExperienceInput) (*model.Experience, error) {
	exp, err := s.owned(ctx, caller, ActionUpdate, userID, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, invalidArgument("no updatable fields provided")
	}

	if in.Title.Set {
		exp.Title = validation.NormalizeText(deref(in.Title.Value))
	}
	if in.Company.Set {
		exp.Company = validation.NormalizeText(deref(in.Company.Value))
	}
	if in.Location.Set {
		exp.Location, err = optionalText("location", in.Location.Value, maxExperienceText)
		if err != nil {
			return nil, err
		}
	}
	if in.Description.Set {
		exp.Description, err = optionalText("description", in.Description.Value, maxExperienceDescription)
		if err != nil {
			return nil, err
		}
	}
	if in.StartDate.Set {
		if in.StartDate.Value == nil || strings.TrimSpace(*in.StartDate.Value) == "" {
			return nil, invalidArgument("startDate is required")
		}
		exp.StartDate, err = parseDate("startDate", *in.StartDate.Value)
		if err != nil {
			return nil, err
		}
	}
	if in.EndDate.Set {
		exp.EndDate, err = parseOptionalDate("endDate", in.EndDate.Value)
		if err != nil {
			return nil, err
		}
	}
	if in.IsCurrent.Set {
		exp.IsCurrent = in.IsCurrent.Value != nil && *in.IsCurrent.Value
	}

	err = checkExperience(exp)
	if err != nil {
		return nil, err
	}

	err = s.experienceRepository.Update(ctx, exp)
	switch {
	case errors.Is(err, repository.ErrExperienceNotFound):
		return nil, notFound("experience")
	case errors.Is(err, repository.ErrExperienceInvalid):
		return nil, invalidArgument("endDate must be empty when isCurrent is true")
	case err != nil:
		return nil, fmt.Errorf("failed to update experience: %w", err)
	}
	return exp, nil
}

func (s *ExperienceService) Delete(ctx context.Context, caller *model.Identity, userID, id string) error {
	exp, err := s.owned(ctx, caller, ActionDelete, userID, id)
	if err != nil {
		return err
	}

	err = s.experienceRepository.Delete(ctx, exp.ID, exp.UserID)
	if errors.Is(err, repository.ErrExperienceNotFound) {
		return notFound("experience")
	}
	if err != nil {
		return fmt.Errorf("failed to delete experience: %w", err)
	}
	return nil
}

func (s *ExperienceService) authorize(caller *model.Identity, action Action, userID string) error {
	return s.guard.Authorize(caller, action, Resource{Kind: "experiences", OwnerID: userID}).Err()
}

// owned authorizes against the user in the path, then loads an experience that
// must belong to that user.
func (s *ExperienceService) owned(ctx context.Context, caller *model.Identity, action Action, userID, id string) (*model.Experience, error) {
	err := s.authorize(caller, action, userID)
	if err != nil {
		return nil, err
	}

	exp, err := s.experienceRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrExperienceNotFound) {
		return nil, notFound("experience")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experience: %w", err)
	}
	if exp.UserID != userID {
		return nil, notFound("experience")
	}
	return exp, nil
}

func checkExperience(exp *model.Experience) error {
	err := validation.RequireText("title", exp.Title, maxExperienceText)
	if err != nil {
		return invalidArgument("%s", err.Error())
	}
	err = validation.RequireText("company", exp.Company, maxExperienceText)
	if err != nil {
		return invalidArgument("%s", err.Error())
	}
	if exp.IsCurrent && exp.EndDate != nil {
		return invalidArgument("endDate must be empty when isCurrent is true")
	}
	if exp.EndDate != nil && exp.EndDate.Before(exp.StartDate) {
		return invalidArgument("endDate must not be before startDate")
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalidArgument("%s must be a date (YYYY-MM-DD)", field)
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
