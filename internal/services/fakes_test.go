package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/auth"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// In-memory stores
// ---------------------------------------------------------------------------

// memStore implements every store interface over maps. Getters return copies
// so services cannot mutate stored rows without going through the store.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*models.User
	orgs        map[string]*models.Organisation
	projects    map[string]*models.Project
	tasks       []*models.Task
	statuses    []*models.TaskStatus
	refresh     map[string]string
	basic       map[string]*models.UserBasicInfo
	education   map[string]*models.UserEducation
	professions map[string]*models.UserProfession
	audit       []*models.AuditLog

	// versionConflicts makes the next n UpdateTeamMembers calls lose the race.
	versionConflicts int
	// onConflict runs when a conflict is injected, e.g. to change the project.
	onConflict func(s *memStore)
	// createTaskErr is returned by CreateTask when set.
	createTaskErr error

	createUserCalls   int
	acceptInviteCalls int
	registerOrgCalls  int
	lastAuditFilters  repositories.AuditFilters
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*models.User{},
		orgs:        map[string]*models.Organisation{},
		projects:    map[string]*models.Project{},
		refresh:     map[string]string{},
		basic:       map[string]*models.UserBasicInfo{},
		education:   map[string]*models.UserEducation{},
		professions: map[string]*models.UserProfession{},
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.TeamMembers = append([]string{}, p.TeamMembers...)
	return &c
}

// users

func (s *memStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createUserCalls++
	for _, u := range s.users {
		if u.EmailAddress == user.EmailAddress {
			return repositories.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.EmailAddress == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *memStore) GetUserByConfirmation(_ context.Context, token, code string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Token == token && u.Code == code {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *memStore) GetUsersByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *memStore) EmailInUse(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.EmailAddress == email {
			return true, nil
		}
	}
	for _, o := range s.orgs {
		if o.EmailAddress == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ConfirmAccount(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Confirmed {
		return false, nil
	}
	u.Confirmed = true
	u.ConfirmedAt = &at
	return true, nil
}

func (s *memStore) AcceptInvitation(_ context.Context, id, passwordHash string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acceptInviteCalls++
	u, ok := s.users[id]
	if !ok || u.Confirmed {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.Confirmed = true
	u.ConfirmedAt = &at
	return true, nil
}

func (s *memStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (s *memStore) ListUsers(_ context.Context, scope authz.UserScope, _ string, limit, offset int) ([]*models.UserSummary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UserSummary
	for _, u := range s.users {
		switch scope.Kind {
		case authz.UserScopeExcludeMasterAdmins:
			if u.Role == authz.RoleMasterAdmin {
				continue
			}
		case authz.UserScopeOrganisation:
			if u.OrgID() != scope.OrganisationID {
				continue
			}
		}
		out = append(out, &models.UserSummary{ID: u.ID, Name: u.Name, EmailAddress: u.EmailAddress, Role: u.Role, Membership: u.Membership})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmailAddress < out[j].EmailAddress })
	return page(out, limit, offset), len(out), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}

// refresh tokens

func (s *memStore) CreateRefreshToken(_ context.Context, userID, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token] = userID
	return &models.RefreshToken{ID: uuid.New().String(), Token: token, UserID: userID}, nil
}

func (s *memStore) RefreshTokenExists(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.refresh[token]
	return ok, nil
}

func (s *memStore) DeleteRefreshToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, token)
	return nil
}

// organisations

func (s *memStore) RegisterOrganisation(_ context.Context, org *models.Organisation, admin *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerOrgCalls++
	org.ID = uuid.New().String()
	admin.ID = uuid.New().String()
	org.AdminID = admin.ID
	admin.Role = authz.RoleOrgAdmin
	admin.Membership = models.MemberOf(org.ID, authz.RoleOrgAdmin)
	c := *org
	s.orgs[org.ID] = &c
	s.users[admin.ID] = cloneUser(admin)
	return nil
}

func (s *memStore) GetOrganisationByID(_ context.Context, id string) (*models.Organisation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orgs[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, nil
}

func (s *memStore) ListOrganisations(_ context.Context, _ authz.OrganisationScope, _ string, limit, offset int) ([]*models.OrganisationWithAdmin, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OrganisationWithAdmin
	for _, o := range s.orgs {
		out = append(out, &models.OrganisationWithAdmin{Organisation: *o, AdminName: s.users[o.AdminID].Name})
	}
	return page(out, limit, offset), len(out), nil
}

// projects

func (s *memStore) CreateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.projects {
		if existing.OwnerID == p.OwnerID && existing.Name == p.Name {
			return repositories.ErrDuplicate
		}
	}
	p.ID = uuid.New().String()
	p.Version = 1
	s.projects[p.ID] = cloneProject(p)
	return nil
}

func (s *memStore) GetProjectByID(_ context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[id]; ok {
		return cloneProject(p), nil
	}
	return nil, nil
}

func (s *memStore) ProjectNameExists(_ context.Context, ownerID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.OwnerID == ownerID && p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListProjects(_ context.Context, scope authz.ProjectScope, limit, offset int) ([]*models.Project, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for _, p := range s.projects {
		if scope.Matches(p.Ref()) {
			out = append(out, cloneProject(p))
		}
	}
	return page(out, limit, offset), len(out), nil
}

func (s *memStore) UpdateTeamMembers(_ context.Context, projectID string, members []string, expectedVersion int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return 0, repositories.ErrVersionConflict
	}
	if s.versionConflicts > 0 {
		s.versionConflicts--
		p.Version++
		if s.onConflict != nil {
			s.onConflict(s)
		}
		return 0, repositories.ErrVersionConflict
	}
	if p.Version != expectedVersion {
		return 0, repositories.ErrVersionConflict
	}
	p.TeamMembers = append([]string{}, members...)
	p.Version++
	return p.Version, nil
}

// tasks

func (s *memStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createTaskErr != nil {
		return s.createTaskErr
	}
	task.ID = uuid.New().String()
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *memStore) ListTasksByProject(_ context.Context, projectID string) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) CreateTaskStatus(_ context.Context, status *models.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	status.ID = uuid.New().String()
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *memStore) ListTaskStatuses(_ context.Context, projectID string) ([]*models.TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TaskStatus
	for _, st := range s.statuses {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// profile

func (s *memStore) UpsertBasicInfo(_ context.Context, info *models.UserBasicInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *info
	s.basic[info.UserID] = &c
	return nil
}

func (s *memStore) GetBasicInfo(_ context.Context, userID string) (*models.UserBasicInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basic[userID], nil
}

func (s *memStore) CreateEducation(_ context.Context, e *models.UserEducation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.New().String()
	c := *e
	s.education[e.ID] = &c
	return nil
}

func (s *memStore) ListEducation(_ context.Context, userID string) ([]*models.UserEducation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UserEducation
	for _, e := range s.education {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) UpdateEducation(_ context.Context, e *models.UserEducation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.education[e.ID]
	if !ok || existing.UserID != e.UserID {
		return false, nil
	}
	c := *e
	s.education[e.ID] = &c
	return true, nil
}

func (s *memStore) DeleteEducation(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.education[id]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	delete(s.education, id)
	return true, nil
}

func (s *memStore) CreateProfession(_ context.Context, p *models.UserProfession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New().String()
	c := *p
	s.professions[p.ID] = &c
	return nil
}

func (s *memStore) ListProfessions(_ context.Context, userID string) ([]*models.UserProfession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UserProfession
	for _, p := range s.professions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) UpdateProfession(_ context.Context, p *models.UserProfession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.professions[p.ID]
	if !ok || existing.UserID != p.UserID {
		return false, nil
	}
	c := *p
	s.professions[p.ID] = &c
	return true, nil
}

func (s *memStore) DeleteProfession(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.professions[id]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	delete(s.professions, id)
	return true, nil
}

// audit

func (s *memStore) ListAuditLogs(_ context.Context, filters repositories.AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAuditFilters = filters
	var out []*models.AuditLog
	for _, l := range s.audit {
		if filters.OrganisationID != nil && (l.OrganisationID == nil || *l.OrganisationID != *filters.OrganisationID) {
			continue
		}
		out = append(out, l)
	}
	return page(out, limit, offset), len(out), nil
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

type sentEmail struct {
	Kind     string
	To       string
	Token    string
	Code     string
	Password string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) record(e sentEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, e)
	return n.err
}

func (n *recordingNotifier) SendConfirmation(_ context.Context, to, _, token, code string) error {
	return n.record(sentEmail{Kind: "confirmation", To: to, Token: token, Code: code})
}

func (n *recordingNotifier) SendAccountVerified(_ context.Context, to, _ string) error {
	return n.record(sentEmail{Kind: "verified", To: to})
}

func (n *recordingNotifier) SendOrganisationRegistered(_ context.Context, to, _, _, token, code string) error {
	return n.record(sentEmail{Kind: "organisation_registered", To: to, Token: token, Code: code})
}

func (n *recordingNotifier) SendInvitation(_ context.Context, to, _, _, token, code, tempPassword string) error {
	return n.record(sentEmail{Kind: "invitation", To: to, Token: token, Code: code, Password: tempPassword})
}

func (n *recordingNotifier) SendPasswordChanged(_ context.Context, to, _ string) error {
	return n.record(sentEmail{Kind: "password_changed", To: to})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, e := range n.sent {
		out[i] = e.Kind
	}
	return out
}

func (n *recordingNotifier) last() sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

func inline(_ string, fn func()) { fn() }

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	issuer   *auth.TokenIssuer
	users    *UserService
	orgs     *OrganisationService
	projects *ProjectService
	tasks    *TaskService
	profiles *ProfileService
	audit    *AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(config.AuthConfig{
		AccessTokenSecret:  "services-test-access-secret-32-chars",
		AccessTokenTTL:     time.Hour,
		RefreshTokenSecret: "services-test-refresh-secret-32-char",
		RefreshTokenTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer() error: %v", err)
	}
	store := newMemStore()
	notifier := &recordingNotifier{}

	f := &fixture{
		store:    store,
		notifier: notifier,
		issuer:   issuer,
		users:    NewUserService(store, store, issuer, notifier, 4),
		orgs:     NewOrganisationService(store, store, notifier, 4),
		projects: NewProjectService(store, store),
		tasks:    NewTaskService(store, store, store, store),
		profiles: NewProfileService(store, store),
		audit:    NewAuditService(store, store),
	}
	f.users.async = inline
	f.orgs.async = inline
	return f
}

// addUser stores a user directly, bypassing registration.
func (f *fixture) addUser(t *testing.T, name string, role authz.Role, m models.Membership) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("Aa1!aaaa", 4)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	u := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		EmailAddress: name + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Membership:   m,
	}
	f.store.users[u.ID] = u
	return u
}

// addProject stores a project directly.
func (f *fixture) addProject(owner, manager string, members []string, restricted bool) *models.Project {
	p := &models.Project{
		ID:             uuid.New().String(),
		Name:           "Apollo",
		ProjectType:    models.ProjectType{PType: models.ProjectTypeDevelopment},
		ProjectDetails: models.ProjectDetails{Restricted: restricted, ManagerID: manager},
		OwnerID:        owner,
		TeamMembers:    members,
		Status:         models.ProjectStatusActive,
		Priority:       models.PriorityHigh,
		Version:        1,
	}
	f.store.projects[p.ID] = p
	return p
}

// org builds an organisation with an admin, a manager and two employees.
type orgFixture struct {
	id        string
	admin     *models.User
	manager   *models.User
	employee  *models.User
	employee2 *models.User
}

func (f *fixture) addOrganisation(t *testing.T, prefix string) orgFixture {
	t.Helper()
	id := uuid.New().String()
	o := orgFixture{id: id}
	o.admin = f.addUser(t, prefix+"-admin", authz.RoleOrgAdmin, models.MemberOf(id, authz.RoleOrgAdmin))
	o.manager = f.addUser(t, prefix+"-manager", authz.RoleOrgUser, models.MemberOf(id, authz.RoleOrgManager))
	o.employee = f.addUser(t, prefix+"-employee", authz.RoleOrgUser, models.MemberOf(id, authz.RoleOrgUser))
	o.employee2 = f.addUser(t, prefix+"-employee2", authz.RoleOrgUser, models.MemberOf(id, authz.RoleOrgUser))
	f.store.orgs[id] = &models.Organisation{ID: id, Name: prefix, EmailAddress: prefix + "@org.example.com", AdminID: o.admin.ID}
	return o
}
