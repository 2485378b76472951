package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mkovalenko/student-journal-api/internal/models"
)

// In-memory stores backing the service tests. Every lookup miss returns
// sql.ErrNoRows like the real repositories do.

type memUsers struct {
	users map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: make(map[string]*models.User)}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *memUsers) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Verified != nil && u.IsVerified != *filter.Verified {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memUsers) CountAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (m *memUsers) CountActiveStudentsByGroup(ctx context.Context, groupID string) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == models.RoleStudent && u.IsActive && u.GroupID != nil && *u.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (m *memUsers) ListStudentsByGroup(ctx context.Context, groupID string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == models.RoleStudent && u.IsActive && u.IsVerified && u.GroupID != nil && *u.GroupID == groupID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type memFaculties struct {
	faculties map[string]*models.Faculty
	cascaded  []string
}

func newMemFaculties(faculties ...*models.Faculty) *memFaculties {
	m := &memFaculties{faculties: make(map[string]*models.Faculty)}
	for _, f := range faculties {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		m.faculties[f.ID] = f
	}
	return m
}

func (m *memFaculties) Create(ctx context.Context, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
	}
	m.faculties[faculty.ID] = faculty
	return nil
}

func (m *memFaculties) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	if f, ok := m.faculties[id]; ok {
		return f, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memFaculties) FindByName(ctx context.Context, name string) (*models.Faculty, error) {
	for _, f := range m.faculties {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memFaculties) List(ctx context.Context) ([]models.Faculty, error) {
	var out []models.Faculty
	for _, f := range m.faculties {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memFaculties) DeleteCascade(ctx context.Context, id string) error {
	delete(m.faculties, id)
	m.cascaded = append(m.cascaded, id)
	return nil
}

type memGroups struct {
	groups   map[string]*models.Group
	cascaded []string
}

func newMemGroups(groups ...*models.Group) *memGroups {
	m := &memGroups{groups: make(map[string]*models.Group)}
	for _, g := range groups {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		m.groups[g.ID] = g
	}
	return m
}

func (m *memGroups) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	m.groups[group.ID] = group
	return nil
}

func (m *memGroups) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memGroups) FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Group, error) {
	for _, g := range m.groups {
		if g.FacultyID == facultyID && g.Name == name {
			return g, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memGroups) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error) {
	var out []models.Group
	for _, g := range m.groups {
		if filter.FacultyID != "" && g.FacultyID != filter.FacultyID {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memGroups) DeleteCascade(ctx context.Context, id string) error {
	delete(m.groups, id)
	m.cascaded = append(m.cascaded, id)
	return nil
}

type memSubjects struct {
	subjects map[string]*models.Subject
	teachers []models.TeacherSubject
	cascaded []string
}

func newMemSubjects(subjects ...*models.Subject) *memSubjects {
	m := &memSubjects{subjects: make(map[string]*models.Subject)}
	for _, s := range subjects {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		m.subjects[s.ID] = s
	}
	return m
}

func (m *memSubjects) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	m.subjects[subject.ID] = subject
	return nil
}

func (m *memSubjects) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memSubjects) FindByNameInFaculty(ctx context.Context, facultyID, name string) (*models.Subject, error) {
	for _, s := range m.subjects {
		if s.FacultyID == facultyID && s.Name == name {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memSubjects) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	var out []models.Subject
	for _, s := range m.subjects {
		if filter.FacultyID != "" && s.FacultyID != filter.FacultyID {
			continue
		}
		if len(filter.IDs) > 0 {
			found := false
			for _, id := range filter.IDs {
				if id == s.ID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSubjects) AssignTeacher(ctx context.Context, userID, subjectID string) error {
	for _, link := range m.teachers {
		if link.UserID == userID && link.SubjectID == subjectID {
			return nil
		}
	}
	m.teachers = append(m.teachers, models.TeacherSubject{UserID: userID, SubjectID: subjectID})
	return nil
}

func (m *memSubjects) RemoveTeacher(ctx context.Context, userID, subjectID string) error {
	out := m.teachers[:0]
	for _, link := range m.teachers {
		if link.UserID != userID || link.SubjectID != subjectID {
			out = append(out, link)
		}
	}
	m.teachers = out
	return nil
}

func (m *memSubjects) ListTeacherAssignments(ctx context.Context) ([]models.TeacherSubject, error) {
	return append([]models.TeacherSubject(nil), m.teachers...), nil
}

func (m *memSubjects) ListSubjectIDsForTeacher(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for _, link := range m.teachers {
		if link.UserID == userID {
			ids = append(ids, link.SubjectID)
		}
	}
	return ids, nil
}

func (m *memSubjects) DeleteCascade(ctx context.Context, id string) error {
	delete(m.subjects, id)
	m.cascaded = append(m.cascaded, id)
	return nil
}

type memSubjectGroups struct {
	bindings  map[string]*models.SubjectGroup
	cascaded  []string
	createErr error
}

func newMemSubjectGroups(bindings ...*models.SubjectGroup) *memSubjectGroups {
	m := &memSubjectGroups{bindings: make(map[string]*models.SubjectGroup)}
	for _, sg := range bindings {
		if sg.ID == "" {
			sg.ID = uuid.NewString()
		}
		m.bindings[sg.ID] = sg
	}
	return m
}

func (m *memSubjectGroups) Create(ctx context.Context, sg *models.SubjectGroup) error {
	if m.createErr != nil {
		return m.createErr
	}
	if sg.ID == "" {
		sg.ID = uuid.NewString()
	}
	m.bindings[sg.ID] = sg
	return nil
}

func (m *memSubjectGroups) FindByID(ctx context.Context, id string) (*models.SubjectGroup, error) {
	if sg, ok := m.bindings[id]; ok {
		return sg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memSubjectGroups) FindByPair(ctx context.Context, subjectID, groupID string) (*models.SubjectGroup, error) {
	for _, sg := range m.bindings {
		if sg.SubjectID == subjectID && sg.GroupID == groupID {
			return sg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memSubjectGroups) List(ctx context.Context, filter models.SubjectGroupFilter) ([]models.SubjectGroup, error) {
	var out []models.SubjectGroup
	for _, sg := range m.bindings {
		if filter.SubjectID != "" && sg.SubjectID != filter.SubjectID {
			continue
		}
		if filter.GroupID != "" && sg.GroupID != filter.GroupID {
			continue
		}
		out = append(out, *sg)
	}
	return out, nil
}

func (m *memSubjectGroups) DeleteCascade(ctx context.Context, id string) error {
	delete(m.bindings, id)
	m.cascaded = append(m.cascaded, id)
	return nil
}

type memGrades struct {
	grades map[string]*models.Grade
}

func newMemGrades(grades ...*models.Grade) *memGrades {
	m := &memGrades{grades: make(map[string]*models.Grade)}
	for _, g := range grades {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		m.grades[g.ID] = g
	}
	return m
}

func (m *memGrades) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	grade.CreatedAt = time.Now().UTC()
	m.grades[grade.ID] = grade
	return nil
}

func (m *memGrades) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memGrades) List(ctx context.Context, filter models.RecordFilter) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range m.grades {
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectGroupID != "" && g.SubjectGroupID != filter.SubjectGroupID {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
}

func (m *memGrades) ListBySubjectGroup(ctx context.Context, subjectGroupID string) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range m.grades {
		if g.SubjectGroupID == subjectGroupID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memGrades) Update(ctx context.Context, grade *models.Grade) error {
	m.grades[grade.ID] = grade
	return nil
}

func (m *memGrades) Delete(ctx context.Context, id string) error {
	delete(m.grades, id)
	return nil
}

type memAttendance struct {
	records map[string]*models.Attendance
}

func newMemAttendance(records ...*models.Attendance) *memAttendance {
	m := &memAttendance{records: make(map[string]*models.Attendance)}
	for _, a := range records {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		m.records[a.ID] = a
	}
	return m
}

func (m *memAttendance) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	m.records[record.ID] = record
	return nil
}

func (m *memAttendance) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if a, ok := m.records[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memAttendance) FindByStudentAndDate(ctx context.Context, studentID, subjectGroupID string, date time.Time) (*models.Attendance, error) {
	for _, a := range m.records {
		if a.StudentID == studentID && a.SubjectGroupID == subjectGroupID && a.Date.Equal(date) {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAttendance) List(ctx context.Context, filter models.RecordFilter) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, a := range m.records {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectGroupID != "" && a.SubjectGroupID != filter.SubjectGroupID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAttendance) ListBySubjectGroup(ctx context.Context, subjectGroupID string) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, a := range m.records {
		if a.SubjectGroupID == subjectGroupID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAttendance) Update(ctx context.Context, record *models.Attendance) error {
	m.records[record.ID] = record
	return nil
}

func (m *memAttendance) Delete(ctx context.Context, id string) error {
	delete(m.records, id)
	return nil
}

type memStudentSubjects struct {
	links map[string]*models.StudentSubject
}

func newMemStudentSubjects(links ...*models.StudentSubject) *memStudentSubjects {
	m := &memStudentSubjects{links: make(map[string]*models.StudentSubject)}
	for _, l := range links {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		m.links[l.ID] = l
	}
	return m
}

func (m *memStudentSubjects) Create(ctx context.Context, link *models.StudentSubject) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	m.links[link.ID] = link
	return nil
}

func (m *memStudentSubjects) FindByID(ctx context.Context, id string) (*models.StudentSubject, error) {
	if l, ok := m.links[id]; ok {
		return l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStudentSubjects) FindByPair(ctx context.Context, studentID, subjectID string) (*models.StudentSubject, error) {
	for _, l := range m.links {
		if l.StudentID == studentID && l.SubjectID == subjectID {
			return l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStudentSubjects) List(ctx context.Context, filter models.StudentSubjectFilter) ([]models.StudentSubject, error) {
	var out []models.StudentSubject
	for _, l := range m.links {
		if filter.StudentID != "" && l.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != "" && l.SubjectID != filter.SubjectID {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (m *memStudentSubjects) Delete(ctx context.Context, id string) error {
	delete(m.links, id)
	return nil
}
