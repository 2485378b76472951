package models

import "time"

// Faculty is the top-level organizational unit. Groups and subjects always
// belong to exactly one faculty.
type Faculty struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Group is a cohort of students within a faculty.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Subject is a course taught within a faculty.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	FacultyID   string    `db:"faculty_id" json:"faculty_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SubjectGroup binds a subject to a group. Grades and attendance always
// reference the binding, never the subject or group directly.
type SubjectGroup struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentSubject is an individual enrollment of a student into a subject.
type StudentSubject struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherSubject links a teacher account to a subject it teaches.
type TeacherSubject struct {
	UserID    string `db:"user_id" json:"user_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// GroupFilter narrows group listings.
type GroupFilter struct {
	FacultyID string
	Skip      int
	Limit     int
}

// SubjectFilter narrows subject listings. IDs restricts the result to an
// explicit subject set, used to scope teachers to their own subjects.
type SubjectFilter struct {
	FacultyID string
	IDs       []string
	Skip      int
	Limit     int
}

// SubjectGroupFilter narrows subject-group listings.
type SubjectGroupFilter struct {
	SubjectID string
	GroupID   string
	Skip      int
	Limit     int
}

// StudentSubjectFilter narrows enrollment listings.
type StudentSubjectFilter struct {
	StudentID string
	SubjectID string
	Skip      int
	Limit     int
}

type CreateFacultyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

type CreateGroupRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=128"`
	FacultyID string `json:"faculty_id" validate:"required"`
}

type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=128"`
	Description string `json:"description"`
	FacultyID   string `json:"faculty_id" validate:"required"`
}

type CreateSubjectGroupRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
}

type CreateStudentSubjectRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
}

/// EnrollmentResponse is returned after enrolling a student: the created link
// plus a ready-to-use journal location for the subject's group.
type EnrollmentResponse struct {
	Enrollment *StudentSubject `json:"enrollment"`
	Faculty    string          `json:"faculty"`
	Group      string          `json:"group"`
	Subject    string          `json:"subject"`
	JournalURL string          `json:"journal_url"`
}
