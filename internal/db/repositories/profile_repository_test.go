package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/worknest/worknest/internal/db/models"
)

func newProfileRepo(t *testing.T) (*ProfileRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewProfileRepository(db), mock
}

// ---------------------------------------------------------------------------
// Basic info
// ---------------------------------------------------------------------------

func TestUpsertBasicInfo(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectExec("INSERT INTO user_basic_info .* ON CONFLICT \\(user_id\\) DO UPDATE").
		WithArgs("user-1", nil, []byte("[]"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	info := &models.UserBasicInfo{UserID: "user-1"}
	if err := repo.UpsertBasicInfo(context.Background(), info); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetBasicInfo(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectQuery("FROM user_basic_info WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "bio", "social_links", "updated_at"}).
			AddRow("user-1", "hello", []byte(`[{"platform":"github","url":"https://github.com/ada"}]`), time.Now()))

	info, err := repo.GetBasicInfo(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info == nil || len(info.SocialLinks) != 1 || info.SocialLinks[0].Platform != "github" {
		t.Errorf("info = %+v", info)
	}
}

func TestGetBasicInfo_NotFound(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectQuery("FROM user_basic_info").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "bio", "social_links", "updated_at"}))

	info, err := repo.GetBasicInfo(context.Background(), "user-1")
	if err != nil || info != nil {
		t.Errorf("GetBasicInfo() = %v, %v; want nil, nil", info, err)
	}
}

// ---------------------------------------------------------------------------
// Education
// ---------------------------------------------------------------------------

func TestCreateEducation(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectExec("INSERT INTO user_education").WillReturnResult(sqlmock.NewResult(0, 1))

	e := &models.UserEducation{UserID: "user-1", InstitutionName: "MIT", Degree: "BSc", StartDate: time.Now()}
	if err := repo.CreateEducation(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == "" {
		t.Error("expected ID to be assigned")
	}
}

func TestListEducation(t *testing.T) {
	repo, mock := newProfileRepo(t)
	now := time.Now()
	mock.ExpectQuery("FROM user_education WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "institution_name", "degree", "grade_type", "grade_value",
			"start_date", "end_date", "is_present", "created_at", "updated_at"}).
			AddRow("edu-1", "user-1", "MIT", "BSc", "CGPA", "8.9", now, nil, true, now, now))

	entries, err := repo.ListEducation(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Grade.Value == nil || *entries[0].Grade.Value != "8.9" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestUpdateEducation_NotOwned(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectExec("UPDATE user_education").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateEducation(context.Background(), &models.UserEducation{ID: "edu-1", UserID: "intruder"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no row to be updated for a foreign entry")
	}
}

func TestDeleteEducation(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectExec("DELETE FROM user_education WHERE id = \\$1 AND user_id = \\$2").
		WithArgs("edu-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.DeleteEducation(context.Background(), "user-1", "edu-1")
	if err != nil || !ok {
		t.Errorf("DeleteEducation() = %v, %v", ok, err)
	}
}

// ---------------------------------------------------------------------------
// Profession
// ---------------------------------------------------------------------------

func TestCreateProfession_DBError(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectExec("INSERT INTO user_profession").WillReturnError(errDB)

	if err := repo.CreateProfession(context.Background(), &models.UserProfession{UserID: "user-1"}); err == nil {
		t.Error("expected error")
	}
}

func TestListProfessions(t *testing.T) {
	repo, mock := newProfileRepo(t)
	now := time.Now()
	mock.ExpectQuery("FROM user_profession WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "organization_name", "role", "position",
			"start_date", "end_date", "is_present", "created_at", "updated_at"}).
			AddRow("pro-1", "user-1", "Acme", "Engineer", nil, now, nil, true, now, now))

	entries, err := repo.ListProfessions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].OrganizationName != "Acme" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestUpdateProfession(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectExec("UPDATE user_profession").WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateProfession(context.Background(), &models.UserProfession{ID: "pro-1", UserID: "user-1", Role: "Lead"})
	if err != nil || !ok {
		t.Errorf("UpdateProfession() = %v, %v", ok, err)
	}
}

func TestDeleteProfession_Missing(t *testing.T) {
	repo, mock := newProfileRepo(t)
	mock.ExpectExec("DELETE FROM user_profession").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DeleteProfession(context.Background(), "user-1", "missing")
	if err != nil || ok {
		t.Errorf("DeleteProfession() = %v, %v; want false, nil", ok, err)
	}
}
