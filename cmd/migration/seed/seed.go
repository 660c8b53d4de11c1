package seed

import (
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nannyhub/config"
	. "nannyhub/internal/models"
)

type nannySeed struct {
	first, last string
	bio         string
	since       time.Time
	rate        int64
	languages   []string
	qualities   []string
	courses     []string
	careers     []string
}

var nannies = []nannySeed{
	{
		first: "Lucia", last: "Moreno", bio: "Former primary teacher, loves crafts and outdoor play.",
		since: time.Date(2015, 9, 1, 0, 0, 0, 0, time.UTC), rate: 22,
		languages: []string{"en", "es"},
		qualities: []string{"Patient", "Bilingual", "Creative"},
		courses:   []string{"First aid"},
		careers:   []string{"Teacher"},
	},
	{
		first: "Tom", last: "Becker", bio: "Swimming coach available for evenings and weekends.",
		since: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), rate: 18,
		languages: []string{"en", "de"},
		qualities: []string{"Sporty", "Non-smoker"},
		courses:   []string{"Pediatric CPR"},
	},
	{
		first: "Amara", last: "Okafor", bio: "Pediatric nurse with special needs experience.",
		since: time.Date(2012, 1, 15, 0, 0, 0, 0, time.UTC), rate: 30,
		languages: []string{"en"},
		qualities: []string{"Patient", "Pet friendly"},
		courses:   []string{"First aid", "Special needs care"},
		careers:   []string{"Nurse"},
	},
}

// Seed creates development users, nanny profiles and one booking. Reference
// rows come from initialize and must already exist.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("Seed")
	log.Info("Seeding development data", "environment", config.Environment)

	return db.Transaction(func(tx *gorm.DB) error {
		admin := &User{FirstName: "Admin", LastName: "User", Email: "admin@example.com", Role: RoleAdmin, IsActive: true}
		if err := tx.Create(admin).Error; err != nil {
			return log.Err("failed to create admin", err)
		}

		tutor := &User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: RoleTutor, IsActive: true}
		if err := tx.Create(tutor).Error; err != nil {
			return log.Err("failed to create tutor", err)
		}

		for _, seed := range nannies {
			if err := createNanny(tx, seed); err != nil {
				return log.Err("failed to create nanny", err, "name", seed.first)
			}
		}

		child := Child{TutorID: tutor.ID, Name: "Byron"}
		if err := tx.Create(&child).Error; err != nil {
			return log.Err("failed to create child", err)
		}

		var wish []Quality
		if err := tx.Where("name IN ?", []string{"Patient", "Bilingual"}).Find(&wish).Error; err != nil {
			return log.Err("failed to load qualities", err)
		}

		start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 7).Add(16 * time.Hour)
		booking := &Booking{
			TutorID:     tutor.ID,
			Description: "After school pickup and homework help",
			Recurrent:   true,
			Children:    []Child{child},
			Qualities:   wish,
			Address:     &Address{Street: "12 St James's Square", City: "London", PostalCode: "SW1Y 4JH"},
		}
		for week := range 4 {
			at := start.AddDate(0, 0, 7*week)
			booking.Appointments = append(booking.Appointments, Appointment{StartAt: at, EndAt: at.Add(3 * time.Hour)})
		}
		if err := tx.Create(booking).Error; err != nil {
			return log.Err("failed to create booking", err)
		}

		log.Info("Seed complete", "nannies", len(nannies), "appointments", len(booking.Appointments))
		return nil
	})
}

func createNanny(tx *gorm.DB, seed nannySeed) error {
	user := &User{
		FirstName: seed.first,
		LastName:  seed.last,
		Email:     seed.first + "." + seed.last + "@example.com",
		Role:      RoleNanny,
		IsActive:  true,
	}
	if err := tx.Create(user).Error; err != nil {
		return err
	}

	nanny := &Nanny{
		UserID:          user.ID,
		Available:       true,
		Bio:             seed.bio,
		ExperienceSince: &seed.since,
		HourlyRate:      decimal.NewFromInt(seed.rate),
		Languages:       datatypes.JSONSlice[string](seed.languages),
	}
	if err := tx.Where("name IN ?", seed.qualities).Find(&nanny.Qualities).Error; err != nil {
		return err
	}
	if err := tx.Where("name IN ?", seed.courses).Find(&nanny.Courses).Error; err != nil {
		return err
	}
	if err := tx.Where("name IN ?", seed.careers).Find(&nanny.Careers).Error; err != nil {
		return err
	}

	return tx.Create(nanny).Error
}
