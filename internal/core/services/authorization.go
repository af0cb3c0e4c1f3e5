package services

import (
	"fmt"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// AuthorizeTransition decides whether the actor may request the given
// transition on the document. It is a pure function of the actor's role and
// party binding and the document's sender/receiver bindings; it never
// inspects or mutates document state and is evaluated before the state
// machine runs.
//
// send/delete require the actor to act for the sender party and hold a role
// in the privileged creation set. approve/reject require the actor to act for
// the receiver party. Actors unrelated to the document are always denied.
func AuthorizeTransition(actor *domain.User, doc *domain.Document, action domain.TransitionAction) error {
	if actor == nil || actor.PartyID == nil {
		return fmt.Errorf("%w: actor is not bound to any party", apperrors.ErrForbidden)
	}

	switch action {
	case domain.ActionSend, domain.ActionDelete:
		if *actor.PartyID != doc.SenderPartyID {
			return fmt.Errorf("%w: only the sender party may %s a document", apperrors.ErrForbidden, action)
		}
		if !actor.Role.IsPrivileged() {
			return fmt.Errorf("%w: role %s may not %s documents", apperrors.ErrForbidden, actor.Role, action)
		}
		return nil
	case domain.ActionApprove, domain.ActionReject:
		if *actor.PartyID != doc.ReceiverPartyID {
			return fmt.Errorf("%w: only the receiver party may %s a document", apperrors.ErrForbidden, action)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown transition %q", apperrors.ErrForbidden, action)
	}
}

// AuthorizeCreate checks that the actor may create documents: they must be
// bound to a party and hold a privileged role.
func AuthorizeCreate(actor *domain.User) error {
	if actor == nil || actor.PartyID == nil {
		return fmt.Errorf("%w: actor is not bound to any party", apperrors.ErrForbidden)
	}
	if !actor.Role.IsPrivileged() {
		return fmt.Errorf("%w: role %s may not create documents", apperrors.ErrForbidden, actor.Role)
	}
	return nil
}

// CanView reports whether the actor is related to the document at all.
// Unrelated actors are told the document does not exist.
func CanView(actor *domain.User, doc *domain.Document) bool {
	if actor == nil {
		return false
	}
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if actor.PartyID == nil {
		return false
	}
	return *actor.PartyID == doc.SenderPartyID || *actor.PartyID == doc.ReceiverPartyID
}
