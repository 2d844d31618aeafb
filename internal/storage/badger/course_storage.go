package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/interfaces"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CourseStorage implements the CourseStorage interface for Badger
type CourseStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCourseStorage creates a new CourseStorage instance
func NewCourseStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CourseStorage {
	return &CourseStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CourseStorage) SaveCourse(course *models.Course) error {
	if course.ID == "" {
		return fmt.Errorf("course ID is required")
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(course.ID, course); err != nil {
		return fmt.Errorf("failed to save course: %w", err)
	}
	return nil
}

func (s *CourseStorage) GetCourse(id string) (*models.Course, error) {
	var course models.Course
	if err := s.db.Store().Get(id, &course); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("course not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

func (s *CourseStorage) ListCourses() ([]*models.Course, error) {
	var courses []models.Course
	if err := s.db.Store().Find(&courses, nil); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	result := make([]*models.Course, len(courses))
	for i := range courses {
		result[i] = &courses[i]
	}
	return result, nil
}

func (s *CourseStorage) SaveCourseSourceLinks(links []*models.CourseSourceLink) error {
	now := time.Now()
	for _, link := range links {
		if link.CourseID == "" || link.SourceID == "" {
			return fmt.Errorf("course source link requires course ID and source ID")
		}
		if link.ID == "" {
			link.ID = link.CourseID + ":" + link.SourceID
		}
		if link.CreatedAt.IsZero() {
			link.CreatedAt = now
		}
		if err := s.db.Store().Upsert(link.ID, link); err != nil {
			return fmt.Errorf("failed to save course source link %s: %w", link.ID, err)
		}
	}
	return nil
}

func (s *CourseStorage) ListCourseSourceIDs(courseID string) ([]string, error) {
	var links []models.CourseSourceLink
	if err := s.db.Store().Find(&links, badgerhold.Where("CourseID").Eq(courseID)); err != nil {
		return nil, fmt.Errorf("failed to list course source links: %w", err)
	}

	ids := make([]string, 0, len(links))
	for i := range links {
		ids = append(ids, links[i].SourceID)
	}
	return ids, nil
}
