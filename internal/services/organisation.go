package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/worknest/worknest/internal/auth"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/db/repositories"
	"github.com/worknest/worknest/internal/telemetry"
)

// OrganisationService handles tenant registration, employee invitations and
// organisation lookups.
type OrganisationService struct {
	orgs       OrganisationStore
	users      UserStore
	notifier   Notifier
	bcryptCost int
	async      background
	now        func() time.Time
}

// NewOrganisationService creates a new OrganisationService
func NewOrganisationService(orgs OrganisationStore, users UserStore, notifier Notifier, bcryptCost int) *OrganisationService {
	return &OrganisationService{
		orgs:       orgs,
		users:      users,
		notifier:   notifier,
		bcryptCost: bcryptCost,
		async:      runInBackground,
		now:        time.Now,
	}
}

// Register creates an organisation together with its Organisation Admin. The
// organisation and the admin share the submitted email address, which must not
// be used by any user or organisation.
func (s *OrganisationService) Register(ctx context.Context, in RegisterOrganisationInput) Result {
	email := strings.TrimSpace(in.EmailAddress)
	inUse, err := s.users.EmailInUse(ctx, email)
	if err != nil {
		return internalError("check email", err)
	}
	if inUse {
		return failure(http.StatusUnprocessableEntity, AlreadyInUse("Email address"))
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return internalError("hash password", err)
	}
	code, err := auth.GenerateOTP(6)
	if err != nil {
		return internalError("generate confirmation code", err)
	}

	org := &models.Organisation{
		Name:               strings.TrimSpace(in.Name),
		EmailAddress:       email,
		Logo:               in.Logo,
		Website:            in.Website,
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Consent:            in.Consent,
	}
	admin := &models.User{
		Name:         strings.TrimSpace(in.AdminName),
		EmailAddress: email,
		PasswordHash: hash,
		AccountConfirmation: models.AccountConfirmation{
			Token: auth.GenerateConfirmationToken(),
			Code:  code,
		},
		Consent: in.Consent,
	}
	if err := s.orgs.RegisterOrganisation(ctx, org, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return failure(http.StatusUnprocessableEntity, AlreadyInUse("Email address"))
		}
		return internalError("register organisation", err)
	}
	telemetry.RegistrationsTotal.WithLabelValues("organisation").Inc()

	to, name, orgName, token := admin.EmailAddress, admin.Name, org.Name, admin.Token
	s.async.notify("organisation registered email", func(ctx context.Context) error {
		return s.notifier.SendOrganisationRegistered(ctx, to, name, orgName, token, code)
	})

	return success(http.StatusCreated, MsgSuccess, payload{
		"adminDetails":        admin,
		"organisationDetails": org,
	})
}

// AddEmployee invites a new user into the actor's organisation with a
// temporary password. Only that organisation's admin may invite.
func (s *OrganisationService) AddEmployee(ctx context.Context, actorID string, in AddEmployeeInput) Result {
	role, err := authz.ParseEmployeeRole(in.Role)
	if err != nil {
		return failure(http.StatusBadRequest, MsgInvalidEmployeeRole)
	}

	org, err := s.orgs.GetOrganisationByID(ctx, in.OrganizationID)
	if err != nil {
		return internalError("load organisation", err)
	}
	if org == nil {
		return failure(http.StatusNotFound, NotFound("Organisation"))
	}

	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	if err := authz.CanAddEmployee(actor.Actor(), org.ID); err != nil {
		return denied("organisation.add_employee", err)
	}

	email := strings.TrimSpace(in.EmailAddress)
	inUse, err := s.users.EmailInUse(ctx, email)
	if err != nil {
		return internalError("check email", err)
	}
	if inUse {
		return failure(http.StatusUnprocessableEntity, AlreadyInUse("Email address"))
	}

	tempPassword, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return internalError("generate temporary password", err)
	}
	hash, err := auth.HashPassword(tempPassword, s.bcryptCost)
	if err != nil {
		return internalError("hash password", err)
	}
	code, err := auth.GenerateOTP(6)
	if err != nil {
		return internalError("generate confirmation code", err)
	}

	employee := &models.User{
		Name:         strings.TrimSpace(in.Name),
		EmailAddress: email,
		PasswordHash: hash,
		Role:         authz.RoleOrgUser,
		Membership:   models.MemberOf(org.ID, role),
		AccountConfirmation: models.AccountConfirmation{
			Token: auth.GenerateConfirmationToken(),
			Code:  code,
		},
	}
	if err := s.users.CreateUser(ctx, employee); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return failure(http.StatusUnprocessableEntity, AlreadyInUse("Email address"))
		}
		return internalError("create employee", err)
	}
	telemetry.RegistrationsTotal.WithLabelValues("employee").Inc()

	to, name, orgName, token := employee.EmailAddress, employee.Name, org.Name, employee.Token
	s.async.notify("invitation email", func(ctx context.Context) error {
		return s.notifier.SendInvitation(ctx, to, name, orgName, token, code, tempPassword)
	})

	return success(http.StatusCreated, MsgSuccess, payload{"employee": employee})
}

// AcceptInvitation lets an invited employee replace the temporary password.
// The checks run in a fixed order and any failure leaves the account untouched.
func (s *OrganisationService) AcceptInvitation(ctx context.Context, token, code string, in AcceptInvitationInput) Result {
	if token == "" || code == "" {
		return failure(http.StatusBadRequest, MsgInvalidConfirmationLink)
	}
	user, err := s.users.GetUserByConfirmation(ctx, token, code)
	if err != nil {
		return internalError("find user by confirmation", err)
	}
	if user == nil {
		return failure(http.StatusBadRequest, MsgInvalidConfirmationLink)
	}
	if user.Confirmed {
		return failure(http.StatusBadRequest, MsgAccountAlreadyConfirmed)
	}
	if !auth.VerifyPassword(in.OldPassword, user.PasswordHash) {
		return failure(http.StatusBadRequest, MsgWrongOldPassword)
	}
	if in.NewPassword != in.ConfirmPassword {
		return failure(http.StatusBadRequest, MsgPasswordsDoNotMatch)
	}
	if in.NewPassword == in.OldPassword {
		return failure(http.StatusBadRequest, MsgPasswordUnchanged)
	}

	hash, err := auth.HashPassword(in.NewPassword, s.bcryptCost)
	if err != nil {
		return internalError("hash password", err)
	}
	ok, err := s.users.AcceptInvitation(ctx, user.ID, hash, s.now().UTC())
	if err != nil {
		return internalError("accept invitation", err)
	}
	if !ok {
		return failure(http.StatusBadRequest, MsgAccountAlreadyConfirmed)
	}

	to, name := user.EmailAddress, user.Name
	s.async.notify("password changed email", func(ctx context.Context) error {
		return s.notifier.SendPasswordChanged(ctx, to, name)
	})
	s.async.notify("account verified email", func(ctx context.Context) error {
		return s.notifier.SendAccountVerified(ctx, to, name)
	})
	return success(http.StatusOK, MsgPasswordChanged, nil)
}

// List returns one page of organisations for platform administrators.
func (s *OrganisationService) List(ctx context.Context, actorID string, p Pagination, search string) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	scope, err := authz.OrganisationListScope(actor.Actor())
	if err != nil {
		return denied("organisation.list", err)
	}
	orgs, total, err := s.orgs.ListOrganisations(ctx, scope, strings.TrimSpace(search), p.Limit, p.Offset())
	if err != nil {
		return internalError("list organisations", err)
	}
	return success(http.StatusOK, MsgSuccess, pagedList("organizations", orgs, total, p))
}

// Details returns an organisation and its admin to a member of it.
func (s *OrganisationService) Details(ctx context.Context, actorID, orgID string) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	if err := authz.CanViewOrganisation(actor.Actor(), orgID); err != nil {
		return denied("organisation.details", err)
	}
	org, err := s.orgs.GetOrganisationByID(ctx, orgID)
	if err != nil {
		return internalError("load organisation", err)
	}
	if org == nil {
		return failure(http.StatusNotFound, NotFound("Organisation"))
	}
	admin, err := s.users.GetUserByID(ctx, org.AdminID)
	if err != nil {
		return internalError("load organisation admin", err)
	}
	if admin == nil {
		return failure(http.StatusNotFound, NotFound("Organisation admin"))
	}
	return success(http.StatusOK, MsgSuccess, payload{
		"organization":      org,
		"organizationAdmin": admin,
	})
}
