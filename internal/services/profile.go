package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/worknest/worknest/internal/db/models"
)

// ProfileService manages the optional profile records of the acting user.
// Reads are open to any authenticated user.
type ProfileService struct {
	profiles ProfileStore
	users    UserStore
}

// NewProfileService creates a new ProfileService
func NewProfileService(profiles ProfileStore, users UserStore) *ProfileService {
	return &ProfileService{profiles: profiles, users: users}
}

// checkPeriod validates a start/end pair. An ongoing entry has no end date.
func checkPeriod(start time.Time, end *time.Time, isPresent bool) (*time.Time, *Result) {
	if isPresent {
		return nil, nil
	}
	if end != nil && end.Before(start) {
		r := failure(http.StatusBadRequest, MsgEndDateBeforeStartDate)
		return nil, &r
	}
	return end, nil
}

func (s *ProfileService) requireUser(ctx context.Context, userID string) *Result {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		r := internalError("load user", err)
		return &r
	}
	if user == nil {
		r := failure(http.StatusNotFound, NotFound("User"))
		return &r
	}
	return nil
}

// UpdateBasicInfo replaces the actor's bio and social links.
func (s *ProfileService) UpdateBasicInfo(ctx context.Context, actorID string, in BasicInfoInput) Result {
	info := &models.UserBasicInfo{
		UserID:      actorID,
		Bio:         in.Bio,
		SocialLinks: models.SocialLinks(in.SocialLinks),
	}
	if err := s.profiles.UpsertBasicInfo(ctx, info); err != nil {
		return internalError("update basic info", err)
	}
	return success(http.StatusOK, MsgSuccess, payload{"basicInfo": info})
}

// GetBasicInfo returns a user's basic info. A user who never saved one gets an
// empty record.
func (s *ProfileService) GetBasicInfo(ctx context.Context, userID string) Result {
	if res := s.requireUser(ctx, userID); res != nil {
		return *res
	}
	info, err := s.profiles.GetBasicInfo(ctx, userID)
	if err != nil {
		return internalError("get basic info", err)
	}
	if info == nil {
		info = &models.UserBasicInfo{UserID: userID, SocialLinks: models.SocialLinks{}}
	}
	return success(http.StatusOK, MsgSuccess, payload{"basicInfo": info})
}

// ---------------------------------------------------------------------------
// Education
// ---------------------------------------------------------------------------

func educationFromInput(userID string, in EducationInput) (*models.UserEducation, *Result) {
	end, res := checkPeriod(in.StartDate, in.EndDate, in.IsPresent)
	if res != nil {
		return nil, res
	}
	return &models.UserEducation{
		UserID:          userID,
		InstitutionName: strings.TrimSpace(in.InstitutionName),
		Degree:          strings.TrimSpace(in.Degree),
		Grade:           models.Grade{Type: in.Grade.Type, Value: in.Grade.Value},
		StartDate:       in.StartDate,
		EndDate:         end,
		IsPresent:       in.IsPresent,
	}, nil
}

func (s *ProfileService) CreateEducation(ctx context.Context, actorID string, in EducationInput) Result {
	e, res := educationFromInput(actorID, in)
	if res != nil {
		return *res
	}
	if err := s.profiles.CreateEducation(ctx, e); err != nil {
		return internalError("create education", err)
	}
	return success(http.StatusCreated, MsgSuccess, payload{"education": e})
}

func (s *ProfileService) ListEducation(ctx context.Context, userID string) Result {
	if res := s.requireUser(ctx, userID); res != nil {
		return *res
	}
	list, err := s.profiles.ListEducation(ctx, userID)
	if err != nil {
		return internalError("list education", err)
	}
	return success(http.StatusOK, MsgSuccess, payload{"education": list})
}

// UpdateEducation replaces one of the actor's entries. Entries of other users
// are reported as missing.
func (s *ProfileService) UpdateEducation(ctx context.Context, actorID, educationID string, in EducationInput) Result {
	e, res := educationFromInput(actorID, in)
	if res != nil {
		return *res
	}
	e.ID = educationID
	ok, err := s.profiles.UpdateEducation(ctx, e)
	if err != nil {
		return internalError("update education", err)
	}
	if !ok {
		return failure(http.StatusNotFound, NotFound("Education"))
	}
	return success(http.StatusOK, MsgSuccess, payload{"education": e})
}

func (s *ProfileService) DeleteEducation(ctx context.Context, actorID, educationID string) Result {
	ok, err := s.profiles.DeleteEducation(ctx, actorID, educationID)
	if err != nil {
		return internalError("delete education", err)
	}
	if !ok {
		return failure(http.StatusNotFound, NotFound("Education"))
	}
	return success(http.StatusOK, MsgSuccess, nil)
}

// ---------------------------------------------------------------------------
// Profession
// ---------------------------------------------------------------------------

func professionFromInput(userID string, in ProfessionInput) (*models.UserProfession, *Result) {
	end, res := checkPeriod(in.StartDate, in.EndDate, in.IsPresent)
	if res != nil {
		return nil, res
	}
	return &models.UserProfession{
		UserID:           userID,
		OrganizationName: strings.TrimSpace(in.OrganizationName),
		Role:             strings.TrimSpace(in.Role),
		Position:         in.Position,
		StartDate:        in.StartDate,
		EndDate:          end,
		IsPresent:        in.IsPresent,
	}, nil
}

func (s *ProfileService) CreateProfession(ctx context.Context, actorID string, in ProfessionInput) Result {
	p, res := professionFromInput(actorID, in)
	if res != nil {
		return *res
	}
	if err := s.profiles.CreateProfession(ctx, p); err != nil {
		return internalError("create profession", err)
	}
	return success(http.StatusCreated, MsgSuccess, payload{"profession": p})
}

func (s *ProfileService) ListProfessions(ctx context.Context, userID string) Result {
	if res := s.requireUser(ctx, userID); res != nil {
		return *res
	}
	list, err := s.profiles.ListProfessions(ctx, userID)
	if err != nil {
		return internalError("list professions", err)
	}
	return success(http.StatusOK, MsgSuccess, payload{"professions": list})
}

func (s *ProfileService) UpdateProfession(ctx context.Context, actorID, professionID string, in ProfessionInput) Result {
	p, res := professionFromInput(actorID, in)
	if res != nil {
		return *res
	}
	p.ID = professionID
	ok, err := s.profiles.UpdateProfession(ctx, p)
	if err != nil {
		return internalError("update profession", err)
	}
	if !ok {
		return failure(http.StatusNotFound, NotFound("Profession"))
	}
	return success(http.StatusOK, MsgSuccess, payload{"profession": p})
}

func (s *ProfileService) DeleteProfession(ctx context.Context, actorID, professionID string) Result {
	ok, err := s.profiles.DeleteProfession(ctx, actorID, professionID)
	if err != nil {
		return internalError("delete profession", err)
	}
	if !ok {
		return failure(http.StatusNotFound, NotFound("Profession"))
	}
	return success(http.StatusOK, MsgSuccess, nil)
}
