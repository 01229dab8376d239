package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedCities gives each demo profile plausible coordinates so discovery has
// real distances to rank by.
var seedCities = []struct {
	name     string
	lat, lon float64
}{
	{"São Paulo", -23.5505, -46.6333},
	{"Rio de Janeiro", -22.9068, -43.1729},
	{"Belo Horizonte", -19.9167, -43.9345},
	{"Curitiba", -25.4284, -49.2733},
	{"Porto Alegre", -30.0346, -51.2177},
}

// SeedTestData resets the database and populates it with demo profiles and
// decisions.
//
// Behavior:
//  1. Clears users, decisions, matches, chats and messages.
//  2. Creates 20 complete profiles with photos, interests and coordinates.
//  3. Generates ~200 decisions with ~70% likes; every 3rd decision also
//     inserts the reciprocal like so mutual pairs exist for match testing.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"messages", "chats", "matches", "decisions", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	firstNames := []string{
		"Ana", "Bruno", "Carla", "Diego", "Elisa", "Felipe", "Gabriela",
		"Hugo", "Isabela", "João", "Karina", "Lucas", "Mariana", "Nicolas",
		"Olivia", "Pedro", "Renata", "Samuel", "Tania", "Vitor",
	}

	for i := 1; i <= 20; i++ {
		city := seedCities[r.Intn(len(seedCities))]
		lat := city.lat + (r.Float64()-0.5)*0.2
		lon := city.lon + (r.Float64()-0.5)*0.2
		now := time.Now().UTC()

		pref := PreferenceBoth
		switch i % 3 {
		case 0:
			pref = PreferenceMen
		case 1:
			pref = PreferenceWomen
		}

		interests := pickInterests(r, 3)

		user := User{
			Email:             fmt.Sprintf("user%d@example.com", i),
			PasswordHash:      string(hash),
			FirstName:         firstNames[i-1],
			LastName:          "Demo",
			BirthDate:         fmt.Sprintf("%02d/%02d/%d", 1+r.Intn(28), 1+r.Intn(12), 1988+r.Intn(16)),
			GenderPreference:  pref,
			Photos:            []string{fmt.Sprintf("https://picsum.photos/seed/%d/400", i)},
			Interests:         interests,
			About:             "Seeded demo profile",
			ProfileComplete:   true,
			Latitude:          &lat,
			Longitude:         &lon,
			LocationUpdatedAt: &now,
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 profiles.")

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "recipient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
	}

	counter := 0
	for actorID := uint64(1); actorID <= 20; actorID++ {
		for j := 0; j < 12; j++ {
			recipientID := uint64(r.Intn(20) + 1)
			if actorID == recipientID {
				continue
			}

			// like probability 70%
			liked := r.Intn(100) < 70

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				liked = true
				recip := Decision{
					ActorID:     recipientID,
					RecipientID: actorID,
					Liked:       true,
				}
				db.Clauses(upsert).Create(&recip)
			}

			decision := Decision{
				ActorID:     actorID,
				RecipientID: recipientID,
				Liked:       liked,
			}
			if err := db.Clauses(upsert).Create(&decision).Error; err != nil {
				return fmt.Errorf("failed to seed decision: %w", err)
			}

			counter++
		}
	}
	log.Printf("Seeded %d decisions.", counter)

	return nil
}

func pickInterests(r *rand.Rand, n int) []string {
	picked := make([]string, 0, n)
	perm := r.Perm(len(AllInterests))
	for _, idx := range perm[:n] {
		picked = append(picked, AllInterests[idx])
	}
	return picked
}
