package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	NumComments int
	ShouldClean bool
	// SkipBcrypt stores a plaintext password instead of hashing. Dev only:
	// hashing hundreds of demo users dominates the seed time otherwise.
	SkipBcrypt bool
	// RandSeed fixes the generator for reproducible data; 0 means random.
	RandSeed int64
	// MaxDays is how far back generated timestamps spread.
	MaxDays int
}

// Seed populates the database with demo users, posts and comments.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Seeding %d users, %d posts, %d comments...",
		opts.NumUsers, opts.NumPosts, opts.NumComments)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d users created", len(users))

	if len(users) == 0 {
		return nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[factory.rng.Intn(len(users))]
		posts = append(posts, factory.BuildPost(author))
	}
	if err := factory.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	if len(posts) > 0 {
		for i := 0; i < opts.NumComments; i++ {
			commenter := users[factory.rng.Intn(len(users))]
			post := posts[factory.rng.Intn(len(posts))]
			if _, err := factory.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("failed to create comments: %w", err)
			}
		}
		log.Printf("✓ %d comments created", opts.NumComments)
	}

	log.Println("🌱 Seeding complete")
	return nil
}

// clearData removes seeded rows. Deleting users first lets the cascade
// constraints take profiles, posts and comments with them.
func clearData(db *gorm.DB) error {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error
}
