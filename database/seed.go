package database

import (
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/sahilchouksey/learnhub-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedDemoCourse(); err != nil {
		return fmt.Errorf("failed to seed demo course: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

// SeedAdminUser creates the initial admin account if none exists
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
		log.Println("ADMIN_PASSWORD not set, using default (change it!)")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        "admin@learnhub.local",
		PasswordHash: passwordHash,
		Name:         "Administrator",
		Role:         "admin",
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user: %s", admin.Email)
	return nil
}

// SeedDemoCourse creates a demo course with modules, lessons and quizzes
func (s *Seeder) SeedDemoCourse() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Courses already exist, skipping demo course")
		return nil
	}

	course := model.Course{
		Title:       "Introduction to Go",
		Category:    "Programming",
		Instructor:  "Jane Doe",
		Description: "A hands-on introduction to the Go programming language.",
		Price:       0,
		Requirements: model.CertificateRequirements{
			CompleteAllLessons: true,
			PassFinalExam:      true,
			MinimumGrade:       70,
		},
	}
	if err := s.db.Create(&course).Error; err != nil {
		return err
	}

	modules := []struct {
		title   string
		lessons []string
	}{
		{"Getting Started", []string{"Installing Go", "Your First Program"}},
		{"Language Basics", []string{"Types and Variables", "Functions", "Error Handling"}},
	}

	for i, m := range modules {
		module := model.CourseModule{
			CourseID: course.ID,
			Title:    m.title,
			Position: i,
		}
		if err := s.db.Create(&module).Error; err != nil {
			return err
		}
		for j, title := range m.lessons {
			lesson := model.Lesson{
				ModuleID:         module.ID,
				Title:            title,
				Position:         j,
				EstimatedMinutes: 15,
			}
			if err := s.db.Create(&lesson).Error; err != nil {
				return err
			}
		}
	}

	finalExam := model.Quiz{
		CourseID: course.ID,
		Title:    "Final Exam",
		Kind:     model.QuizKindFinalExam,
	}
	if err := s.db.Create(&finalExam).Error; err != nil {
		return err
	}

	log.Printf("Created demo course: %s", course.Title)
	return nil
}
