package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gradnet/gradnet/internal/repository"
)

type RelationKind string

const (
	RelationLike       RelationKind = "like"
	RelationFollow     RelationKind = "follow"
	RelationMembership RelationKind = "membership"
)

// Count keys reported with each toggle result.
const (
	CountLikes     = "likesCount"
	CountFollowers = "followersCount"
	CountFollowing = "followingCount"
	CountMembers   = "memberCount"
)

// ToggleResult is the relation state after an operation together with counts
// recomputed from the relation table.
type ToggleResult struct {
	Active bool
	Counts map[string]int
}

type countSpec struct {
	key string
	// bySubject counts rows where the subject column equals the object id,
	// e.g. how many users the followed user follows.
	bySubject bool
}

type relationSpec struct {
	relation  repository.Relation
	object    string
	exists    func(ctx context.Context, id string) (bool, error)
	allowSelf bool
	selfError string
	counts    []countSpec
}

// ToggleEngine flips set-valued relations (likes, follows, memberships) between
// a subject user and an object. The unique key on each relation table is the
// only arbiter of concurrent toggles.
type ToggleEngine struct {
	relations     repository.RelationRepository
	subjectExists func(ctx context.Context, id string) (bool, error)
	specs         map[RelationKind]relationSpec
}

func NewToggleEngine(
	relations repository.RelationRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	circles repository.CircleRepository,
) *ToggleEngine {
	return &ToggleEngine{
		relations:     relations,
		subjectExists: users.Exists,
		specs: map[RelationKind]relationSpec{
			RelationLike: {
				relation:  repository.LikeRelation,
				object:    "post",
				exists:    posts.Exists,
				allowSelf: true,
				counts:    []countSpec{{key: CountLikes}},
			},
			RelationFollow: {
				relation:  repository.FollowRelation,
				object:    "user",
				exists:    users.Exists,
				selfError: "cannot follow yourself",
				counts: []countSpec{
					{key: CountFollowers},
					{key: CountFollowing, bySubject: true},
				},
			},
			RelationMembership: {
				relation:  repository.MembershipRelation,
				object:    "circle",
				exists:    circles.Exists,
				allowSelf: true,
				counts:    []countSpec{{key: CountMembers}},
			},
		},
	}
}

func (e *ToggleEngine) spec(kind RelationKind) (relationSpec, error) {
	spec, ok := e.specs[kind]
	if !ok {
		return relationSpec{}, fmt.Errorf("unknown relation kind %q", kind)
	}
	return spec, nil
}

func (e *ToggleEngine) precheck(ctx context.Context, spec relationSpec, subjectID, objectID string) error {
	if subjectID == "" {
		return unauthenticated("authentication required")
	}
	if !spec.allowSelf && subjectID == objectID {
		return invalidArgument("%s", spec.selfError)
	}
	ok, err := spec.exists(ctx, objectID)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", spec.object, err)
	}
	if !ok {
		return notFound(spec.object)
	}

	// A token can outlive its account
	ok, err = e.subjectExists(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !ok {
		return unauthenticated("account no longer exists")
	}
	return nil
}

// Toggle removes the (subject, object) pair when present and inserts it otherwise.
// A concurrent insert of the same pair is reported as active rather than an error.
func (e *ToggleEngine) Toggle(ctx context.Context, kind RelationKind, subjectID, objectID string) (*ToggleResult, error) {
	spec, err := e.spec(kind)
	if err != nil {
		return nil, err
	}
	err = e.precheck(ctx, spec, subjectID, objectID)
	if err != nil {
		return nil, err
	}

	removed, err := e.relations.Remove(ctx, spec.relation, subjectID, objectID)
	if err != nil {
		return nil, err
	}

	active := false
	if !removed {
		err = e.relations.Add(ctx, spec.relation, subjectID, objectID)
		switch {
		case err == nil:
			active = true
		case errors.Is(err, repository.ErrRelationExists):
			slog.Debug("toggle converged on concurrent insert", "relation", spec.relation.Name, "subject", subjectID, "object", objectID)
			active = true
		case errors.Is(err, repository.ErrRelationTargetMissing):
			// Either side vanished after the precheck; report which one
			err = e.precheck(ctx, spec, subjectID, objectID)
			if err != nil {
				return nil, err
			}
			return nil, notFound(spec.object)
		case errors.Is(err, repository.ErrRelationRejected):
			return nil, invalidArgument("%s rejected", spec.relation.Name)
		default:
			return nil, err
		}
	}

	counts, err := e.counts(ctx, spec, objectID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Active: active, Counts: counts}, nil
}

// State reports whether the pair is active without changing it.
func (e *ToggleEngine) State(ctx context.Context, kind RelationKind, subjectID, objectID string) (*ToggleResult, error) {
	spec, err := e.spec(kind)
	if err != nil {
		return nil, err
	}
	ok, err := spec.exists(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", spec.object, err)
	}
	if !ok {
		return nil, notFound(spec.object)
	}

	active := false
	if subjectID != "" && (spec.allowSelf || subjectID != objectID) {
		active, err = e.relations.Exists(ctx, spec.relation, subjectID, objectID)
		if err != nil {
			return nil, err
		}
	}

	counts, err := e.counts(ctx, spec, objectID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Active: active, Counts: counts}, nil
}

// Counts recomputes the aggregate counts for an object.
func (e *ToggleEngine) Counts(ctx context.Context, kind RelationKind, objectID string) (map[string]int, error) {
	spec, err := e.spec(kind)
	if err != nil {
		return nil, err
	}
	return e.counts(ctx, spec, objectID)
}

func (e *ToggleEngine) counts(ctx context.Context, spec relationSpec, objectID string) (map[string]int, error) {
	counts := make(map[string]int, len(spec.counts))
	for _, c := range spec.counts {
		var n int
		var err error
		if c.bySubject {
			n, err = e.relations.CountBySubject(ctx, spec.relation, objectID)
		} else {
			n, err = e.relations.CountByObject(ctx, spec.relation, objectID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.key, err)
		}
		counts[c.key] = n
	}
	return counts, nil
}
