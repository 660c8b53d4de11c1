// Package listings declares what each listing endpoint may search, filter
// and sort on, and the actor scoping applied before any of it.
package listings

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"nannyhub/internal/lifecycle"
	. "nannyhub/internal/models"
	"nannyhub/internal/policy"
	"nannyhub/pkg/query"
)

type Listings struct {
	Appointments *query.Composer[Appointment]
	Nannies      *query.Composer[Nanny]
	Bookings     *query.Composer[Booking]
}

// New resolves every listing specification against the schema. Any error
// wraps query.ErrInvalidSpec and should stop the process from starting.
func New(db *gorm.DB, perPage int) (Listings, error) {
	appointments, err := query.New[Appointment](db, AppointmentSpec(perPage))
	if err != nil {
		return Listings{}, err
	}

	nannies, err := query.New[Nanny](db, NannySpec(perPage))
	if err != nil {
		return Listings{}, err
	}

	bookings, err := query.New[Booking](db, BookingSpec(perPage))
	if err != nil {
		return Listings{}, err
	}

	return Listings{
		Appointments: appointments,
		Nannies:      nannies,
		Bookings:     bookings,
	}, nil
}

func AppointmentSpec(perPage int) query.Spec {
	return query.Spec{
		SearchableFields: []string{"booking.description"},
		AllowedFilters: map[string]query.FilterRule{
			"status":         query.Column("status"),
			"payment_status": query.Column("payment_status"),
			"nanny":          query.Column("nanny_id"),
			"booking":        query.Column("booking_id"),
			"tutor":          query.Column("booking.tutor_id"),
			"from":           query.Custom(timeBound("appointments.end_at > ?")),
			"until":          query.Custom(timeBound("appointments.start_at < ?")),
		},
		AllowedSortFields: []string{"start_at", "end_at", "status", "created_at"},
		DefaultSort:       query.Sort{Field: "start_at", Direction: query.Asc},
		DefaultPerPage:    perPage,
	}
}

func NannySpec(perPage int) query.Spec {
	return query.Spec{
		SearchableFields: []string{
			"bio",
			"user.first_name",
			"user.last_name",
			"qualities.name",
			"courses.name",
			"careers.name",
		},
		AllowedFilters: map[string]query.FilterRule{
			"quality":            query.Column("qualities.id"),
			"course":             query.Column("courses.id"),
			"career":             query.Column("careers.id"),
			"available":          query.NamedScope("available", boolColumn("nannies.available")),
			"experienced_before": query.Custom(timeBound("nannies.experience_since <= ?")),
		},
		AllowedSortFields: []string{"created_at", "experience_since", "hourly_rate"},
		DefaultSort:       query.Sort{Field: "created_at", Direction: query.Desc},
		DefaultPerPage:    perPage,
	}
}

func BookingSpec(perPage int) query.Spec {
	return query.Spec{
		SearchableFields: []string{"description", "appointments.status"},
		AllowedFilters: map[string]query.FilterRule{
			"recurrent": query.NamedScope("recurrent", boolColumn("bookings.recurrent")),
			"status":    query.Column("appointments.status"),
			"tutor":     query.Column("tutor_id"),
			"child":     query.Column("children.id"),
		},
		AllowedSortFields: []string{"created_at", "updated_at"},
		DefaultSort:       query.Sort{Field: "created_at", Direction: query.Desc},
		DefaultPerPage:    perPage,
	}
}

// VisibleAppointments limits an appointment query to what actor may view.
func VisibleAppointments(actor policy.Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch actor.Role {
		case RoleAdmin:
			return db
		case RoleTutor:
			owned := db.Session(&gorm.Session{NewDB: true}).
				Model(&Booking{}).
				Select("bookings.id").
				Where("bookings.tutor_id = ?", actor.UserID)
			return db.Where("appointments.booking_id IN (?)", owned)
		case RoleNanny:
			if actor.NannyID != nil {
				return db.Where("appointments.nanny_id = ?", *actor.NannyID)
			}
		}
		return db.Where("1 = 0")
	}
}

// VisibleBookings limits a booking query to what actor may view. A nanny sees
// the bookings holding one of their live appointments.
func VisibleBookings(actor policy.Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch actor.Role {
		case RoleAdmin:
			return db
		case RoleTutor:
			return db.Where("bookings.tutor_id = ?", actor.UserID)
		case RoleNanny:
			if actor.NannyID != nil {
				assigned := db.Session(&gorm.Session{NewDB: true}).
					Model(&Appointment{}).
					Select("1").
					Where("appointments.booking_id = bookings.id").
					Where("appointments.nanny_id = ? AND appointments.status <> ?", *actor.NannyID, lifecycle.Cancelled)
				return db.Where("EXISTS (?)", assigned)
			}
		}
		return db.Where("1 = 0")
	}
}

// boolColumn filters on a boolean column; unparseable values are ignored.
func boolColumn(column string) query.ScopeFunc {
	return func(db *gorm.DB, value any) *gorm.DB {
		raw, ok := value.(string)
		if !ok {
			return db
		}
		flag, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return db
		}
		return db.Where(column+" = ?", flag)
	}
}

// timeBound compares a time column against an RFC 3339 value or a plain date.
func timeBound(condition string) query.PredicateFunc {
	return func(value any, db *gorm.DB) *gorm.DB {
		raw, ok := value.(string)
		if !ok {
			return db
		}
		at, ok := ParseTime(raw)
		if !ok {
			return db
		}
		return db.Where(condition, at)
	}
}

// ParseTime accepts RFC 3339 timestamps and YYYY-MM-DD dates, returned in UTC.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if at, err := time.Parse(layout, raw); err == nil {
			return at.UTC(), true
		}
	}
	return time.Time{}, false
}
