package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
)

var orgCols = []string{"id", "name", "email_address", "logo", "website", "registration_number", "admin_id", "consent", "created_at", "updated_at"}

func newOrganisationRepo(t *testing.T) (*OrganisationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewOrganisationRepository(db), mock
}

func acmeFixtures() (*models.Organisation, *models.User) {
	org := &models.Organisation{Name: "Acme", EmailAddress: "admin@acme.io", RegistrationNumber: "R123", Consent: true}
	admin := &models.User{Name: "Ada", EmailAddress: "admin@acme.io", PasswordHash: "hash", Consent: true}
	return org, admin
}

// ---------------------------------------------------------------------------
// RegisterOrganisation
// ---------------------------------------------------------------------------

func TestRegisterOrganisation_LinksAdmin(t *testing.T) {
	repo, mock := newOrganisationRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organisations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	org, admin := acmeFixtures()
	if err := repo.RegisterOrganisation(context.Background(), org, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if org.AdminID == "" || org.AdminID != admin.ID {
		t.Errorf("AdminID = %q, admin.ID = %q", org.AdminID, admin.ID)
	}
	if admin.Role != authz.RoleOrgAdmin {
		t.Errorf("admin.Role = %q", admin.Role)
	}
	if !admin.IsAssociated || admin.OrgID() != org.ID {
		t.Errorf("admin membership = %+v, org.ID = %q", admin.Membership, org.ID)
	}
	if admin.OrganisationRole == nil || *admin.OrganisationRole != authz.RoleOrgAdmin {
		t.Error("admin organisation role should be Organisation Admin")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRegisterOrganisation_DuplicateRollsBack(t *testing.T) {
	repo, mock := newOrganisationRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organisations").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	org, admin := acmeFixtures()
	err := repo.RegisterOrganisation(context.Background(), org, admin)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRegisterOrganisation_UserInsertFails(t *testing.T) {
	repo, mock := newOrganisationRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organisations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users").WillReturnError(errDB)
	mock.ExpectRollback()

	org, admin := acmeFixtures()
	if err := repo.RegisterOrganisation(context.Background(), org, admin); err == nil {
		t.Error("expected error")
	}
}

func TestRegisterOrganisation_BeginError(t *testing.T) {
	repo, mock := newOrganisationRepo(t)
	mock.ExpectBegin().WillReturnError(errDB)

	org, admin := acmeFixtures()
	if err := repo.RegisterOrganisation(context.Background(), org, admin); err == nil {
		t.Error("expected error from Begin")
	}
}

// ---------------------------------------------------------------------------
// GetOrganisationByID
// ---------------------------------------------------------------------------

func TestGetOrganisationByID(t *testing.T) {
	repo, mock := newOrganisationRepo(t)
	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM organisations WHERE id = \\$1").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(orgCols).
			AddRow("org-1", "Acme", "admin@acme.io", nil, nil, "R123", "user-1", true, now, now))

	org, err := repo.GetOrganisationByID(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org == nil || org.AdminID != "user-1" {
		t.Errorf("org = %+v", org)
	}
}

func TestGetOrganisationByID_NotFound(t *testing.T) {
	repo, mock := newOrganisationRepo(t)
	mock.ExpectQuery("SELECT .* FROM organisations").WillReturnRows(sqlmock.NewRows(orgCols))

	org, err := repo.GetOrganisationByID(context.Background(), "missing")
	if err != nil || org != nil {
		t.Errorf("GetOrganisationByID() = %v, %v; want nil, nil", org, err)
	}
}

// ---------------------------------------------------------------------------
// ListOrganisations
// ---------------------------------------------------------------------------

func TestListOrganisations_Search(t *testing.T) {
	repo, mock := newOrganisationRepo(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM organisations o WHERE \(o.name ILIKE \$1`).
		WithArgs("%acme%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`LEFT JOIN users u ON u.id = o.admin_id`).
		WithArgs("%acme%", 10, 0).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, orgCols...), "admin_name")).
			AddRow("org-1", "Acme", "admin@acme.io", nil, nil, "R123", "user-1", true, now, now, "Ada"))

	orgs, total, err := repo.ListOrganisations(context.Background(), authz.OrganisationScope{Unrestricted: true}, "acme", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(orgs) != 1 || orgs[0].AdminName != "Ada" {
		t.Errorf("orgs = %+v, total = %d", orgs, total)
	}
}

func TestListOrganisations_RestrictedScopeRejected(t *testing.T) {
	repo, _ := newOrganisationRepo(t)
	if _, _, err := repo.ListOrganisations(context.Background(), authz.OrganisationScope{}, "", 10, 0); err == nil {
		t.Error("expected error for restricted scope")
	}
}
