package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"nannyhub/internal/models"
	"nannyhub/internal/types"
)

func TestAllowed(t *testing.T) {
	tutorID := uuid.New()
	otherTutorID := uuid.New()
	nannyID := uuid.New()
	otherNannyID := uuid.New()

	tutor := Actor{UserID: tutorID, Role: models.RoleTutor}
	otherTutor := Actor{UserID: otherTutorID, Role: models.RoleTutor}
	nanny := Actor{UserID: uuid.New(), Role: models.RoleNanny, NannyID: &nannyID}
	otherNanny := Actor{UserID: uuid.New(), Role: models.RoleNanny, NannyID: &otherNannyID}
	admin := Actor{UserID: uuid.New(), Role: models.RoleAdmin}

	unassigned := Subject{TutorID: tutorID}
	assignedToNanny := Subject{TutorID: tutorID, NannyID: &nannyID}

	testCases := []struct {
		name       string
		actor      Actor
		capability Capability
		subject    Subject
		want       bool
	}{
		{"admin assigns anything", admin, Assign, assignedToNanny, true},
		{"admin runs jobs", admin, RunJobs, Subject{}, true},
		{"tutor assigns own unassigned", tutor, Assign, unassigned, true},
		{"tutor cannot reassign", tutor, Assign, assignedToNanny, false},
		{"tutor lists candidates for own", tutor, ListCandidates, unassigned, true},
		{"tutor cancels own assigned", tutor, Cancel, assignedToNanny, true},
		{"tutor unassigns own", tutor, Unassign, assignedToNanny, true},
		{"tutor cannot accept", tutor, Accept, assignedToNanny, false},
		{"other tutor cannot assign", otherTutor, Assign, unassigned, false},
		{"other tutor cannot cancel", otherTutor, Cancel, assignedToNanny, false},
		{"other tutor cannot view", otherTutor, View, unassigned, false},
		{"tutor cannot run jobs", tutor, RunJobs, Subject{}, false},
		{"nanny accepts own", nanny, Accept, assignedToNanny, true},
		{"nanny rejects own", nanny, Reject, assignedToNanny, true},
		{"nanny views own", nanny, View, assignedToNanny, true},
		{"nanny cannot cancel", nanny, Cancel, assignedToNanny, false},
		{"nanny cannot assign", nanny, Assign, unassigned, false},
		{"other nanny cannot accept", otherNanny, Accept, assignedToNanny, false},
		{"nanny without profile", Actor{Role: models.RoleNanny}, Accept, assignedToNanny, false},
		{"nanny on unassigned", nanny, View, unassigned, false},
		{"unknown role", Actor{UserID: tutorID, Role: models.Role("guest")}, View, unassigned, false},
		{"zero subject owner", Actor{Role: models.RoleTutor}, View, Subject{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.actor, tc.capability, tc.subject))

			err := Authorize(tc.actor, tc.capability, tc.subject)
			if tc.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, types.ErrUnauthorized)
			}
		})
	}
}

func TestActorFromUser(t *testing.T) {
	user := &models.User{Role: models.RoleNanny}
	user.ID = uuid.New()
	user.Nanny = &models.Nanny{}
	user.Nanny.ID = uuid.New()

	actor := ActorFromUser(user)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, models.RoleNanny, actor.Role)
	assert.Equal(t, user.Nanny.ID, *actor.NannyID)
}

func TestCapabilities(t *testing.T) {
	assert.ElementsMatch(t, []Capability{View, Accept, Reject}, Capabilities(models.RoleNanny))
	assert.NotContains(t, Capabilities(models.RoleTutor), RunJobs)
	assert.Contains(t, Capabilities(models.RoleAdmin), RunJobs)
}
