package service

import (
	"github.com/gradnet/gradnet/internal/config"
	"github.com/gradnet/gradnet/internal/model"
)

// Denial reasons surfaced in 403 responses.
const (
	ReasonForbidden    = "forbidden"
	ReasonAccessDenied = "access_denied"
)

type Action string

const (
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionPostInCircle Action = "post_in_circle"
	ActionViewProfile  Action = "view_profile"
)

// Resource holds the facts the guard needs; callers load them before asking.
type Resource struct {
	Kind    string
	OwnerID string

	// ActionViewProfile
	Profile *model.User
	Viewer  *model.User

	// ActionPostInCircle
	CallerIsMember bool
}

type Decision struct {
	Allowed bool
	Reason  string
	Message string
}

// Err converts a denial into a Forbidden error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	msg := d.Reason
	if d.Message != "" {
		msg = d.Reason + ": " + d.Message
	}
	return forbidden(msg)
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason, message string) Decision {
	return Decision{Reason: reason, Message: message}
}

// Guard decides whether a resolved caller may perform an action. It does no I/O.
type Guard struct {
	circlePostPolicy string
}

func NewGuard(circlePostPolicy string) *Guard {
	if circlePostPolicy != config.CirclePostOwner {
		circlePostPolicy = config.CirclePostMember
	}
	return &Guard{circlePostPolicy: circlePostPolicy}
}

func (g *Guard) CirclePostPolicy() string {
	return g.circlePostPolicy
}

func (g *Guard) Authorize(caller *model.Identity, action Action, res Resource) Decision {
	if caller == nil {
		return deny(ReasonForbidden, "authentication required")
	}

	switch action {
	case ActionUpdate, ActionDelete:
		if res.OwnerID != "" && caller.ID == res.OwnerID {
			return allow()
		}
		return deny(ReasonForbidden, "you can only "+string(action)+" your own "+res.Kind)

	case ActionPostInCircle:
		if g.circlePostPolicy == config.CirclePostOwner {
			if caller.ID == res.OwnerID {
				return allow()
			}
			return deny(ReasonForbidden, "only the circle creator can post in this circle")
		}
		if res.CallerIsMember {
			return allow()
		}
		return deny(ReasonForbidden, "join the circle to post in it")

	case ActionViewProfile:
		if res.Profile == nil {
			return deny(ReasonAccessDenied, "")
		}
		if caller.ID == res.Profile.ID {
			return allow()
		}
		if res.Viewer != nil && res.Viewer.SameCollege(res.Profile) {
			return allow()
		}
		return deny(ReasonAccessDenied, "profiles are visible to members of the same college")
	}

	return deny(ReasonForbidden, "unknown action")
}
