package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/orbitaplataforma/orbita/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")

	errInvalidResetLink = errors.New("the reset link is invalid or has expired")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nu NewUser, exec ...core.DBExecutor) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByFirebaseUID(ctx context.Context, uid string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser, exec ...core.DBExecutor) (User, error)
		SetActive(ctx context.Context, id string, active bool, exec ...core.DBExecutor) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		LinkFirebaseUID(ctx context.Context, usr User, uid string) (User, error)
		Delete(ctx context.Context, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		SendInvite(ctx context.Context, usr User, platformName string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs, exec...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser, exec ...core.DBExecutor) (User, error) {
	nu.Clean()
	if err := svc.checkUniqueness(ctx, nu.Email, nil, exec...); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nu.Password != "" {
		if err := usr.SetPassword(nu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.CreateUser(ctx, usr, exec...)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

func (svc *service) GetByFirebaseUID(ctx context.Context, uid string) (User, error) {
	if uid == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{FirebaseUID: uid})
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser, exec ...core.DBExecutor) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id}, exec...)
	if err != nil {
		return User{}, err
	}
	uu.Clean()
	if uu.IsEmpty() {
		return usr, nil
	}

	if uu.Name != nil {
		usr.Name = *uu.Name
	}
	if uu.Email != nil && *uu.Email != usr.Email {
		if err := svc.checkUniqueness(ctx, *uu.Email, []string{usr.ID}, exec...); err != nil {
			return User{}, err
		}
		usr.Email = *uu.Email
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, exec...)
}

func (svc *service) SetActive(ctx context.Context, id string, active bool, exec ...core.DBExecutor) (User, error) {
	return svc.Update(ctx, id, UpdateUser{IsActive: &active}, exec...)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := CheckPasswordPolicy(pwd, usr); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) LinkFirebaseUID(ctx context.Context, usr User, uid string) (User, error) {
	usr.FirebaseUID = null.StringFrom(uid)
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteUsersByID(ctx, ids)
	return err
}

// RequestPasswordReset mails a password reset link to the active user registered with email.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Redefinição de senha",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

// SendInvite mails a link to choose a password to a user created by a gestor or a mentor.
func (svc *service) SendInvite(ctx context.Context, usr User, platformName string) error {
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making invite token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Convite para " + platformName,
		TemplateName: "invite",
		TemplateData: map[string]string{
			"Name":         usr.Name,
			"PlatformName": platformName,
			"UID":          EncodeUID(usr),
			"Token":        token,
		},
	})
	return nil
}

// ResetPassword sets a new password once the uid and token from a reset or invite link check out.
func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidLink := core.NewValidationError(errInvalidResetLink)

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalidLink
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidLink
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return invalidLink
	}
	if err := svc.tokens.verifyToken(usr, data.Token); err != nil {
		return invalidLink
	}

	if _, err := svc.SetPassword(ctx, usr, data.Password); err != nil {
		return err
	}
	return nil
}
