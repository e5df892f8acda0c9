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

func TestAuditList_Scopes(t *testing.T) {
	f := newFixture(t)
	acme := f.addOrganisation(t, "acme")
	globex := f.addOrganisation(t, "globex")
	master := f.addUser(t, "master", authz.RoleMasterAdmin, models.NoMembership())
	f.store.audit = []*models.AuditLog{
		{ID: "1", OrganisationID: &acme.id, Action: "POST /api/v1/project/create"},
		{ID: "2", OrganisationID: &globex.id, Action: "POST /api/v1/project/create"},
	}
	ctx := context.Background()
	p := Pagination{Page: 1, Limit: 10}

	all := f.audit.List(ctx, master.ID, p, AuditQuery{Action: "POST /api/v1/project/create"})
	require.True(t, all.Success)
	assert.Equal(t, 2, all.Data.(payload)["totalCount"])
	assert.Nil(t, f.store.lastAuditFilters.OrganisationID)
	require.NotNil(t, f.store.lastAuditFilters.Action)
	assert.Nil(t, f.store.lastAuditFilters.UserID)

	own := f.audit.List(ctx, acme.admin.ID, p, AuditQuery{})
	require.True(t, own.Success)
	assert.Equal(t, 1, own.Data.(payload)["totalCount"])
	require.NotNil(t, f.store.lastAuditFilters.OrganisationID)
	assert.Equal(t, acme.id, *f.store.lastAuditFilters.OrganisationID)

	assert.Equal(t, http.StatusUnauthorized, f.audit.List(ctx, acme.manager.ID, p, AuditQuery{}).Status)
}
