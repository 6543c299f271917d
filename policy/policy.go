// Package policy holds the single authorization decision used by every
// catalog and order operation.
package policy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
)

type Action string

const (
	FishRead    Action = "fish:read"
	FishListAll Action = "fish:list_all"
	FishWrite   Action = "fish:write"

	OrderCreate         Action = "order:create"
	OrderCreateOnBehalf Action = "order:create_on_behalf"
	OrderList           Action = "order:list"
	OrderListAny        Action = "order:list_any"
	OrderDeleteOwn      Action = "order:delete_own"
	OrderDeleteAny      Action = "order:delete_any"
	OrderUpdate         Action = "order:update"
	OrderDelete         Action = "order:delete"

	ProfileUpdate Action = "profile:update"
)

var (
	publicActions = map[Action]bool{
		FishRead: true,
	}
	// Owner actions are granted to the resource owner and to admins.
	ownerActions = map[Action]bool{
		OrderCreate:    true,
		OrderList:      true,
		OrderDeleteOwn: true,
		ProfileUpdate:  true,
	}
	adminActions = map[Action]bool{
		FishListAll:         true,
		FishWrite:           true,
		OrderCreateOnBehalf: true,
		OrderListAny:        true,
		OrderDeleteAny:      true,
		OrderUpdate:         true,
		OrderDelete:         true,
	}
)

// Authorize decides whether id may perform action on a resource owned by
// owner. A zero owner means the resource has no owner or the caller's own
// scope. A nil identity fails as unauthenticated unless the action is public.
func Authorize(id *models.Identity, action Action, owner primitive.ObjectID) error {
	if publicActions[action] {
		return nil
	}
	if id == nil {
		return apperrors.Unauthenticated("Please authenticate")
	}
	if id.IsAdmin() {
		if adminActions[action] || ownerActions[action] {
			return nil
		}
		return apperrors.Forbidden("Action not permitted")
	}
	if adminActions[action] {
		return apperrors.Forbidden("Admin access required")
	}
	if ownerActions[action] {
		if owner.IsZero() || owner == id.UserID {
			return nil
		}
		return apperrors.Forbidden("Not authorized to access this resource")
	}
	return apperrors.Forbidden("Action not permitted")
}

// OrderScope resolves which user's orders a list or bulk delete touches.
// Non-admins are always pinned to their own id regardless of the request.
// Admins get every user when all is set, the requested user when given,
// and otherwise fall back to listAllByDefault (true for listing, false for
// deletion, where an admin without filters only clears their own orders).
func OrderScope(id *models.Identity, requested *primitive.ObjectID, all, listAllByDefault bool) (models.OrderFilter, error) {
	if id == nil {
		return models.OrderFilter{}, apperrors.Unauthenticated("Please authenticate")
	}
	own := id.UserID
	if !id.IsAdmin() {
		return models.OrderFilter{UserID: &own}, nil
	}
	switch {
	case all:
		return models.OrderFilter{}, nil
	case requested != nil:
		u := *requested
		return models.OrderFilter{UserID: &u}, nil
	case listAllByDefault:
		return models.OrderFilter{}, nil
	default:
		return models.OrderFilter{UserID: &own}, nil
	}
}
