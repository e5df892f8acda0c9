package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
)

func projectInput(name, managerID string, members ...string) CreateProjectInput {
	return CreateProjectInput{
		Name:           name,
		ProjectType:    ProjectTypeInput{PType: models.ProjectTypeDevelopment},
		ProjectDetails: ProjectDetailsInput{ManagerID: managerID},
		TeamMemberIDs:  members,
		Status:         models.ProjectStatusActive,
		Priority:       models.PriorityMedium,
	}
}

func createdProject(t *testing.T, res Result) *models.Project {
	t.Helper()
	require.True(t, res.Success, res.Message)
	return res.Data.(payload)["projectDetails"].(*models.Project)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateProject_OrganisationAdmin(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")

	res := f.projects.Create(context.Background(), acme.admin.ID,
		projectInput("Apollo", acme.manager.ID, acme.employee.ID, acme.employee.ID))
	p := createdProject(t, res)

	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, acme.admin.ID, p.OwnerID)
	assert.Equal(t, acme.manager.ID, p.ManagerID)
	assert.Equal(t, []string{acme.employee.ID}, []string(p.TeamMembers))
	assert.Zero(t, p.Progress)
	assert.Nil(t, p.EndDate)
	assert.False(t, p.StartDate.IsZero())
	assert.NotNil(t, p.URLs)
}

func TestCreateProject_SoloOwnerManagesOwnProject(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	solo := f.addUser(t, "solo", authz.RoleUser, models.NoMembership())

	p := createdProject(t, f.projects.Create(context.Background(), solo.ID, projectInput("Side", acme.manager.ID)))
	assert.Equal(t, solo.ID, p.ManagerID)
}

func TestCreateProject_SoloOwnerStartsWithoutTeam(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	solo := f.addUser(t, "solo", authz.RoleUser, models.NoMembership())
	ctx := context.Background()

	res := f.projects.Create(ctx, solo.ID, projectInput("Side", solo.ID, acme.employee.ID, "ghost"))
	p := createdProject(t, res)

	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Empty(t, p.TeamMembers)
	assert.Empty(t, f.store.projects[p.ID].TeamMembers)
	assert.Equal(t, http.StatusUnauthorized, f.projects.Get(ctx, acme.employee.ID, p.ID).Status)
}

func TestCreateProject_NameUniquePerOwner(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	globex := f.addOrganisation(t, "globex")
	ctx := context.Background()

	createdProject(t, f.projects.Create(ctx, acme.admin.ID, projectInput("Apollo", acme.manager.ID)))

	dup := f.projects.Create(ctx, acme.admin.ID, projectInput("Apollo", acme.manager.ID))
	assert.Equal(t, http.StatusBadRequest, dup.Status)
	assert.Equal(t, AlreadyInUse("Project name"), dup.Message)

	createdProject(t, f.projects.Create(ctx, globex.admin.ID, projectInput("Apollo", globex.manager.ID)))
}

func TestCreateProject_Failures(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	globex := f.addOrganisation(t, "globex")
	other := "Skunkworks"
	blank := " "

	otherWithoutLabel := projectInput("Other", acme.manager.ID)
	otherWithoutLabel.ProjectType = ProjectTypeInput{PType: models.ProjectTypeOther, OtherType: &blank}
	otherWithLabel := projectInput("Other2", acme.manager.ID)
	otherWithLabel.ProjectType = ProjectTypeInput{PType: models.ProjectTypeOther, OtherType: &other}

	tests := []struct {
		name    string
		actorID string
		in      CreateProjectInput
		status  int
	}{
		{"owner missing", "ghost", projectInput("A", acme.manager.ID), http.StatusNotFound},
		{"manager missing", acme.admin.ID, projectInput("B", "ghost"), http.StatusNotFound},
		{"member missing", acme.admin.ID, projectInput("C", acme.manager.ID, "ghost"), http.StatusNotFound},
		{"employee cannot create", acme.employee.ID, projectInput("D", acme.manager.ID), http.StatusUnauthorized},
		{"manager from another organisation", acme.admin.ID, projectInput("E", globex.manager.ID), http.StatusBadRequest},
		{"member from another organisation", acme.admin.ID, projectInput("F", acme.manager.ID, globex.employee.ID), http.StatusBadRequest},
		{"other type without label", acme.admin.ID, otherWithoutLabel, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.projects.Create(context.Background(), tt.actorID, tt.in)
			assert.False(t, res.Success)
			assert.Equal(t, tt.status, res.Status)
		})
	}
	assert.Empty(t, f.store.projects)

	createdProject(t, f.projects.Create(context.Background(), acme.admin.ID, otherWithLabel))
}

// ---------------------------------------------------------------------------
// List / Get
// ---------------------------------------------------------------------------

func TestProjectListAndGet_ByRole(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	ctx := context.Background()
	p := f.addProject(acme.admin.ID, acme.manager.ID, []string{acme.employee.ID}, false)
	f.addProject(acme.admin.ID, acme.admin.ID, nil, false)
	page := Pagination{Page: 1, Limit: 10}

	counts := map[string]int{
		acme.admin.ID:     2,
		acme.manager.ID:   1,
		acme.employee.ID:  1,
		acme.employee2.ID: 0,
	}
	for id, want := range counts {
		res := f.projects.List(ctx, id, page)
		require.True(t, res.Success)
		assert.Equal(t, want, res.Data.(payload)["totalCount"])
	}

	assert.True(t, f.projects.Get(ctx, acme.employee.ID, p.ID).Success)
	assert.Equal(t, http.StatusUnauthorized, f.projects.Get(ctx, acme.employee2.ID, p.ID).Status)
	assert.Equal(t, http.StatusNotFound, f.projects.Get(ctx, acme.admin.ID, "missing").Status)

	platform := f.addUser(t, "platform", authz.RoleAdmin, models.NoMembership())
	assert.Equal(t, http.StatusUnauthorized, f.projects.List(ctx, platform.ID, page).Status)
}

// ---------------------------------------------------------------------------
// AddMembers / RemoveMembers
// ---------------------------------------------------------------------------

func TestAddMembers(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	p := f.addProject(acme.admin.ID, acme.manager.ID, []string{acme.employee.ID}, false)

	res := f.projects.AddMembers(context.Background(), acme.manager.ID, TeamMembersInput{
		ProjectID: p.ID, TeamMemberIDs: []string{acme.employee2.ID},
	})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{acme.employee.ID, acme.employee2.ID}, []string(f.store.projects[p.ID].TeamMembers))
	assert.Equal(t, 2, f.store.projects[p.ID].Version)
}

func TestAddMembers_OrganisationUserNeitherOwnerNorManager(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	p := f.addProject(acme.admin.ID, acme.manager.ID, []string{acme.employee.ID}, false)

	res := f.projects.AddMembers(context.Background(), acme.employee.ID, TeamMembersInput{
		ProjectID: p.ID, TeamMemberIDs: []string{acme.employee2.ID},
	})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, []string{acme.employee.ID}, []string(f.store.projects[p.ID].TeamMembers))

	// Denied before the candidates are looked up, so unknown ids are not revealed.
	ghost := f.projects.AddMembers(context.Background(), acme.employee.ID, TeamMembersInput{
		ProjectID: p.ID, TeamMemberIDs: []string{"ghost"},
	})
	assert.Equal(t, http.StatusUnauthorized, ghost.Status)
	assert.Equal(t, MsgUnauthorized, ghost.Message)
}

func TestAddMembers_RejectsOtherOrganisation(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	globex := f.addOrganisation(t, "globex")
	p := f.addProject(acme.admin.ID, acme.manager.ID, nil, false)

	res := f.projects.AddMembers(context.Background(), acme.manager.ID, TeamMembersInput{
		ProjectID: p.ID, TeamMemberIDs: []string{globex.employee.ID},
	})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Empty(t, f.store.projects[p.ID].TeamMembers)
}

func TestAddMembers_InvalidCandidates(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	p := f.addProject(acme.admin.ID, acme.manager.ID, []string{acme.employee.ID}, false)
	ctx := context.Background()

	already := f.projects.AddMembers(ctx, acme.admin.ID, TeamMembersInput{ProjectID: p.ID, TeamMemberIDs: []string{acme.employee.ID}})
	assert.Equal(t, http.StatusBadRequest, already.Status)

	notOrgUser := f.projects.AddMembers(ctx, acme.admin.ID, TeamMembersInput{ProjectID: p.ID, TeamMemberIDs: []string{acme.manager.ID}})
	assert.Equal(t, http.StatusBadRequest, notOrgUser.Status)

	missing := f.projects.AddMembers(ctx, acme.admin.ID, TeamMembersInput{ProjectID: p.ID, TeamMemberIDs: []string{"ghost"}})
	assert.Equal(t, http.StatusNotFound, missing.Status)

	noProject := f.projects.AddMembers(ctx, acme.admin.ID, TeamMembersInput{ProjectID: "missing", TeamMemberIDs: []string{acme.employee2.ID}})
	assert.Equal(t, http.StatusNotFound, noProject.Status)
}

func TestRemoveMembers(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	p := f.addProject(acme.admin.ID, acme.manager.ID, []string{acme.employee.ID, acme.employee2.ID}, false)
	ctx := context.Background()

	notMember := f.projects.RemoveMembers(ctx, acme.admin.ID, TeamMembersInput{ProjectID: p.ID, TeamMemberIDs: []string{acme.manager.ID}})
	assert.Equal(t, http.StatusBadRequest, notMember.Status)

	res := f.projects.RemoveMembers(ctx, acme.admin.ID, TeamMembersInput{ProjectID: p.ID, TeamMemberIDs: []string{acme.employee.ID}})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{acme.employee2.ID}, []string(f.store.projects[p.ID].TeamMembers))
}

func TestAddMembers_RetriesAfterConcurrentModification(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	p := f.addProject(acme.admin.ID, acme.manager.ID, nil, false)
	f.store.versionConflicts = 2

	res := f.projects.AddMembers(context.Background(), acme.admin.ID, TeamMembersInput{
		ProjectID: p.ID, TeamMemberIDs: []string{acme.employee.ID},
	})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{acme.employee.ID}, []string(f.store.projects[p.ID].TeamMembers))
}

func TestAddMembers_ReevaluatesRulesAfterConflict(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	p := f.addProject(acme.admin.ID, acme.manager.ID, nil, false)
	f.store.versionConflicts = 1
	f.store.onConflict = func(s *memStore) {
		s.projects[p.ID].TeamMembers = []string{acme.employee.ID}
	}

	res := f.projects.AddMembers(context.Background(), acme.admin.ID, TeamMembersInput{
		ProjectID: p.ID, TeamMemberIDs: []string{acme.employee.ID},
	})
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestAddMembers_GivesUpAfterThreeConflicts(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	p := f.addProject(acme.admin.ID, acme.manager.ID, nil, false)
	f.store.versionConflicts = maxMemberUpdateAttempts

	res := f.projects.AddMembers(context.Background(), acme.admin.ID, TeamMembersInput{
		ProjectID: p.ID, TeamMemberIDs: []string{acme.employee.ID},
	})
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, MsgConcurrentModification, res.Message)
	assert.Empty(t, f.store.projects[p.ID].TeamMembers)
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestUnconfirmedAccountCanLoginAndCreateProjectOnRoleAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg := f.orgs.Register(ctx, acmeInput())
	require.True(t, reg.Success, reg.Message)
	admin := reg.Data.(payload)["adminDetails"].(*models.User)
	require.False(t, admin.Confirmed)

	login := f.users.Login(ctx, LoginInput{EmailAddress: "admin@acme.io", Password: "Aa1!aaaa"})
	require.True(t, login.Success, login.Message)
	claims, err := f.issuer.VerifyAccessToken(login.Data.(*Session).AccessToken)
	require.NoError(t, err)

	p := createdProject(t, f.projects.Create(ctx, claims.UserID, projectInput("Launch", admin.ID)))
	assert.Equal(t, admin.ID, p.OwnerID)
	assert.Equal(t, admin.ID, p.ManagerID)
}
