// Package policy is the capability table deciding who may act on a booking
// or appointment.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"nannyhub/internal/models"
	"nannyhub/internal/types"
)

type Capability string

const (
	View           Capability = "view"
	ManageBooking  Capability = "manage_booking"
	ListCandidates Capability = "list_candidates"
	Assign         Capability = "assign"
	Accept         Capability = "accept"
	Reject         Capability = "reject"
	Unassign       Capability = "unassign"
	Cancel         Capability = "cancel"
	RunJobs        Capability = "run_jobs"
)

// Actor is the authenticated user acting on a resource.
type Actor struct {
	UserID  uuid.UUID
	Role    models.Role
	NannyID *uuid.UUID
}

func ActorFromUser(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role, NannyID: user.NannyID()}
}

// Subject is the ownership view of a booking or one of its appointments.
type Subject struct {
	TutorID uuid.UUID
	NannyID *uuid.UUID
}

func BookingSubject(booking *models.Booking) Subject {
	return Subject{TutorID: booking.TutorID}
}

// AppointmentSubject needs the appointment's booking for ownership.
func AppointmentSubject(appointment *models.Appointment, booking *models.Booking) Subject {
	return Subject{TutorID: booking.TutorID, NannyID: appointment.NannyID}
}

type rule func(actor Actor, subject Subject) bool

func owns(actor Actor, subject Subject) bool {
	return subject.TutorID != uuid.Nil && actor.UserID == subject.TutorID
}

func ownsUnassigned(actor Actor, subject Subject) bool {
	return owns(actor, subject) && subject.NannyID == nil
}

func assigned(actor Actor, subject Subject) bool {
	return actor.NannyID != nil && subject.NannyID != nil && *actor.NannyID == *subject.NannyID
}

var table = map[models.Role]map[Capability]rule{
	models.RoleTutor: {
		View:           owns,
		ManageBooking:  owns,
		ListCandidates: ownsUnassigned,
		Assign:         ownsUnassigned,
		Unassign:       owns,
		Cancel:         owns,
	},
	models.RoleNanny: {
		View:   assigned,
		Accept: assigned,
		Reject: assigned,
	},
}

// Allowed reports whether actor holds capability on subject. Admins hold every
// capability.
func Allowed(actor Actor, capability Capability, subject Subject) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	check, ok := table[actor.Role][capability]
	return ok && check(actor, subject)
}

func Authorize(actor Actor, capability Capability, subject Subject) error {
	if Allowed(actor, capability, subject) {
		return nil
	}
	return fmt.Errorf("%w: %s may not %s", types.ErrUnauthorized, actor.Role, capability)
}

// Capabilities lists what a role may ever do, for inspection.
func Capabilities(role models.Role) []Capability {
	if role == models.RoleAdmin {
		return []Capability{View, ManageBooking, ListCandidates, Assign, Accept, Reject, Unassign, Cancel, RunJobs}
	}
	var out []Capability
	for _, capability := range []Capability{
		View, ManageBooking, ListCandidates, Assign, Accept, Reject, Unassign, Cancel, RunJobs,
	} {
		if _, ok := table[role][capability]; ok {
			out = append(out, capability)
		}
	}
	return out
}
