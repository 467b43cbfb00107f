package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartclass/internal/model"
	"smartclass/internal/repository"
)

var (
	ErrLectureNotFound = errors.New("lecture not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrForbidden       = errors.New("not owned by this teacher")
	ErrTitleRequired   = errors.New("title is required")
	ErrNameRequired    = errors.New("name is required")
)

// LectureService handles lecture plan CRUD operations
type LectureService struct {
	lectureRepo repository.LectureRepo
}

// NewLectureService creates a new lecture service
func NewLectureService(lectureRepo repository.LectureRepo) *LectureService {
	return &LectureService{
		lectureRepo: lectureRepo,
	}
}

// Create creates a new lecture owned by teacherID
func (s *LectureService) Create(ctx context.Context, teacherID string, lecture *model.Lecture) (string, error) {
	if strings.TrimSpace(lecture.Title) == "" {
		return "", ErrTitleRequired
	}
	lecture.TeacherID = teacherID
	id, err := s.lectureRepo.Create(ctx, lecture)
	if err != nil {
		return "", fmt.Errorf("create lecture: %w", err)
	}
	return id, nil
}

// Get returns a lecture the teacher owns
func (s *LectureService) Get(ctx context.Context, teacherID, id string) (*model.Lecture, error) {
	lecture, err := s.lectureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lecture: %w", err)
	}
	if lecture == nil {
		return nil, ErrLectureNotFound
	}
	if lecture.TeacherID != teacherID {
		return nil, ErrForbidden
	}
	return lecture, nil
}

// List returns all lectures of a teacher, newest first
func (s *LectureService) List(ctx context.Context, teacherID string) ([]*model.Lecture, error) {
	return s.lectureRepo.GetByTeacherID(ctx, teacherID)
}

// Update replaces the editable fields of a lecture
func (s *LectureService) Update(ctx context.Context, teacherID string, lecture *model.Lecture) error {
	existing, err := s.Get(ctx, teacherID, lecture.ID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(lecture.Title) == "" {
		return ErrTitleRequired
	}
	lecture.TeacherID = existing.TeacherID
	lecture.CreatedAt = existing.CreatedAt
	return s.lectureRepo.Update(ctx, lecture)
}

// Delete deletes a lecture
func (s *LectureService) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return err
	}
	return s.lectureRepo.Delete(ctx, id)
}

// GroupService handles student group CRUD operations
type GroupService struct {
	groupRepo repository.GroupRepo
}

func NewGroupService(groupRepo repository.GroupRepo) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) Create(ctx context.Context, teacherID string, group *model.Group) (string, error) {
	if strings.TrimSpace(group.Name) == "" {
		return "", ErrNameRequired
	}
	group.TeacherID = teacherID
	id, err := s.groupRepo.Create(ctx, group)
	if err != nil {
		return "", fmt.Errorf("create group: %w", err)
	}
	return id, nil
}

func (s *GroupService) Get(ctx context.Context, teacherID, id string) (*model.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.TeacherID != teacherID {
		return nil, ErrForbidden
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context, teacherID string) ([]*model.Group, error) {
	return s.groupRepo.GetByTeacherID(ctx, teacherID)
}

func (s *GroupService) Update(ctx context.Context, teacherID string, group *model.Group) error {
	existing, err := s.Get(ctx, teacherID, group.ID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(group.Name) == "" {
		return ErrNameRequired
	}
	group.TeacherID = existing.TeacherID
	group.CreatedAt = existing.CreatedAt
	return s.groupRepo.Update(ctx, group)
}

func (s *GroupService) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return err
	}
	return s.groupRepo.Delete(ctx, id)
}
