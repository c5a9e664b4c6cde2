package services

import (
	"testing"

	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with the engine
// schema migrated. Single connection so every query sees the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseModule{},
		&model.Lesson{},
		&model.Quiz{},
		&model.Enrollment{},
		&model.LessonCompletion{},
		&model.StudentActivity{},
		&model.Review{},
		&model.CoursePayment{},
	))

	return db
}

// createCourse inserts a free course with one module holding lessonCount lessons
func createCourse(t *testing.T, db *gorm.DB, lessonCount int) *model.Course {
	t.Helper()

	course := model.Course{
		Title:    "Test Course",
		Category: "Testing",
	}
	require.NoError(t, db.Create(&course).Error)

	if lessonCount > 0 {
		module := model.CourseModule{CourseID: course.ID, Title: "Module 1"}
		require.NoError(t, db.Create(&module).Error)
		for i := 0; i < lessonCount; i++ {
			lesson := model.Lesson{ModuleID: module.ID, Title: "Lesson", Position: i}
			require.NoError(t, db.Create(&lesson).Error)
		}
	}

	return &course
}

func courseLessons(t *testing.T, db *gorm.DB, courseID uint) []model.Lesson {
	t.Helper()

	var lessons []model.Lesson
	err := db.
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Order("lessons.position ASC").
		Find(&lessons).Error
	require.NoError(t, err)
	return lessons
}

// approvedEnrollment creates an enrollment directly in the approved state
func approvedEnrollment(t *testing.T, db *gorm.DB, courseID, studentID uint) *model.Enrollment {
	t.Helper()

	enrollment := model.Enrollment{
		CourseID:  courseID,
		StudentID: studentID,
		Status:    model.EnrollmentStatusApproved,
	}
	require.NoError(t, db.Create(&enrollment).Error)
	return &enrollment
}

func reloadCourse(t *testing.T, db *gorm.DB, courseID uint) *model.Course {
	t.Helper()

	var course model.Course
	require.NoError(t, db.First(&course, courseID).Error)
	return &course
}
