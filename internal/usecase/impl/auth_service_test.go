package impl

import (
	"context"
	"testing"
	"time"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/auth"
	mockRepo "accounts/internal/mocks/repository"
	mockSvc "accounts/internal/mocks/service"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	// storedCredential is the credential kept for the password "password.salt".
	storedCredential = "9b8b0ce214d81bdf.c742aef554147a9e823de091b44797a98064b8edf4fe595ecbbdf6f22186b2b6"
	storedPassword   = "password.salt"
)

// authServiceFixtures holds all test dependencies for auth service tests.
type authServiceFixtures struct {
	service   usecase.AuthUsecase
	users     *mockRepo.MockUserDirectory
	hasher    *mockSvc.MockPasswordHasher
	publisher *mockSvc.MockEventPublisher
}

func createTestAuthService(t *testing.T) authServiceFixtures {
	users := mockRepo.NewMockUserDirectory(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	publisher := mockSvc.NewMockEventPublisher(t)

	service := NewAuthService(AuthServiceParams{
		Users:     users,
		Hasher:    hasher,
		Publisher: publisher,
		Logger:    newDiscardLogger(),
	})

	return authServiceFixtures{
		service:   service,
		users:     users,
		hasher:    hasher,
		publisher: publisher,
	}
}

// createScryptAuthService wires the real scrypt hasher so credentials round-trip for real.
func createScryptAuthService(t *testing.T) (usecase.AuthUsecase, *mockRepo.MockUserDirectory, *mockSvc.MockEventPublisher) {
	users := mockRepo.NewMockUserDirectory(t)
	publisher := mockSvc.NewMockEventPublisher(t)

	service := NewAuthService(AuthServiceParams{
		Users:     users,
		Hasher:    auth.NewScryptHasherWithParams(auth.DefaultScryptParams),
		Publisher: publisher,
		Logger:    newDiscardLogger(),
	})

	return service, users, publisher
}

func newUser(email, credential string) *entity.User {
	now := time.Now().UTC()

	return &entity.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  credential,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	service, users, publisher := createScryptAuthService(t)

	ctx := context.Background()
	input := &usecase.CredentialsInput{Email: "test@example.com", Password: "Password123!"}

	var storedWith string
	users.EXPECT().FindByEmail(ctx, input.Email).Return([]*entity.User{}, nil)
	users.EXPECT().
		Create(ctx, input.Email, mock.AnythingOfType("string")).
		RunAndReturn(func(_ context.Context, email, credential string) (*entity.User, error) {
			storedWith = credential

			return newUser(email, credential), nil
		}).
		Once()
	publisher.EXPECT().
		PublishAccountEvent(ctx, mock.MatchedBy(func(event *entity.AccountEvent) bool {
			return event.Type == entity.EventTypeUserSignedUp && event.Email == input.Email
		})).
		Return(nil)

	output, err := service.Register(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, input.Email, output.User.Email)
	assert.Equal(t, storedWith, output.User.Password)

	cred, ok := entity.ParseCredential(storedWith)
	require.True(t, ok)
	assert.Len(t, cred.Salt, 16)
	assert.Len(t, cred.DerivedKey, 64)
	assert.NotEqual(t, input.Password, storedWith)
	assert.NotContains(t, storedWith, input.Password)
}

func TestAuthService_Register_RoundTrip(t *testing.T) {
	service, users, publisher := createScryptAuthService(t)

	ctx := context.Background()
	input := &usecase.CredentialsInput{Email: "round@example.com", Password: "s3cret"}

	var created *entity.User
	users.EXPECT().FindByEmail(ctx, input.Email).Return(nil, nil).Once()
	users.EXPECT().
		Create(ctx, input.Email, mock.AnythingOfType("string")).
		RunAndReturn(func(_ context.Context, email, credential string) (*entity.User, error) {
			created = newUser(email, credential)

			return created, nil
		})
	publisher.EXPECT().PublishAccountEvent(ctx, mock.Anything).Return(nil)

	_, err := service.Register(ctx, input)
	require.NoError(t, err)

	users.EXPECT().FindByEmail(ctx, input.Email).RunAndReturn(func(context.Context, string) ([]*entity.User, error) {
		return []*entity.User{created}, nil
	})

	output, err := service.Authenticate(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, created.ID, output.User.ID)

	_, err = service.Authenticate(ctx, &usecase.CredentialsInput{Email: input.Email, Password: "s3cret!"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredential))
}

func TestAuthService_Register_EmailInUse(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.CredentialsInput{Email: "taken@example.com", Password: "Password123!"}

	fx.users.EXPECT().
		FindByEmail(ctx, input.Email).
		Return([]*entity.User{newUser(input.Email, storedCredential)}, nil)

	output, err := fx.service.Register(ctx, input)

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrEmailInUse))
	fx.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	fx.hasher.AssertNotCalled(t, "Hash", mock.Anything, mock.Anything)
}

func TestAuthService_Register_CreateConflict(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.CredentialsInput{Email: "race@example.com", Password: "Password123!"}

	fx.users.EXPECT().FindByEmail(ctx, input.Email).Return(nil, nil)
	fx.hasher.EXPECT().Hash(ctx, input.Password).Return("0011223344556677.aa", nil)
	fx.users.EXPECT().
		Create(ctx, input.Email, "0011223344556677.aa").
		Return(nil, domainerrors.ErrEmailInUse.WrapMessage("duplicate email"))

	_, err := fx.service.Register(ctx, input)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrEmailInUse))
}

func TestAuthService_Register_LookupFails(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.CredentialsInput{Email: "test@example.com", Password: "Password123!"}
	dbErr := errors.New("connection refused")

	fx.users.EXPECT().FindByEmail(ctx, input.Email).Return(nil, dbErr)

	_, err := fx.service.Register(ctx, input)

	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr))
}

func TestAuthService_Register_HashFails(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.CredentialsInput{Email: "test@example.com", Password: "Password123!"}

	fx.users.EXPECT().FindByEmail(ctx, input.Email).Return(nil, nil)
	fx.hasher.EXPECT().Hash(ctx, input.Password).Return("", domainerrors.ErrPasswordHashFailed)

	_, err := fx.service.Register(ctx, input)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordHashFailed))
	fx.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Register_PublishFailureIsIgnored(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.CredentialsInput{Email: "test@example.com", Password: "Password123!"}
	user := newUser(input.Email, "0011223344556677.aa")

	fx.users.EXPECT().FindByEmail(ctx, input.Email).Return(nil, nil)
	fx.hasher.EXPECT().Hash(ctx, input.Password).Return(user.Password, nil)
	fx.users.EXPECT().Create(ctx, input.Email, user.Password).Return(user, nil)
	fx.publisher.EXPECT().PublishAccountEvent(ctx, mock.Anything).Return(errors.New("topic unavailable"))

	output, err := fx.service.Register(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, user, output.User)
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	service, users, _ := createScryptAuthService(t)

	ctx := context.Background()
	user := newUser("test@example.com", storedCredential)

	users.EXPECT().FindByEmail(ctx, user.Email).Return([]*entity.User{user}, nil)

	output, err := service.Authenticate(ctx, &usecase.CredentialsInput{Email: user.Email, Password: storedPassword})

	require.NoError(t, err)
	assert.Equal(t, user, output.User)
}

func TestAuthService_Authenticate_WrongPassword(t *testing.T) {
	service, users, _ := createScryptAuthService(t)

	ctx := context.Background()
	user := newUser("test@example.com", storedCredential)

	users.EXPECT().FindByEmail(ctx, user.Email).Return([]*entity.User{user}, nil)

	output, err := service.Authenticate(ctx, &usecase.CredentialsInput{Email: user.Email, Password: "password"})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredential))
}

func TestAuthService_Authenticate_UserNotFound(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()

	fx.users.EXPECT().FindByEmail(ctx, "nobody@example.com").Return([]*entity.User{}, nil)

	output, err := fx.service.Authenticate(ctx, &usecase.CredentialsInput{Email: "nobody@example.com", Password: "x"})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
	fx.hasher.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Authenticate_UsesFirstRecord(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	first := newUser("dup@example.com", "aaaaaaaaaaaaaaaa.01")
	second := newUser("dup@example.com", "bbbbbbbbbbbbbbbb.02")

	fx.users.EXPECT().FindByEmail(ctx, first.Email).Return([]*entity.User{first, second}, nil)
	fx.hasher.EXPECT().Verify(ctx, "pw", first.Password).Return(true, nil).Once()

	output, err := fx.service.Authenticate(ctx, &usecase.CredentialsInput{Email: first.Email, Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, first.ID, output.User.ID)
}

func TestAuthService_Authenticate_MalformedCredential(t *testing.T) {
	service, users, _ := createScryptAuthService(t)

	ctx := context.Background()
	user := newUser("test@example.com", "no-separator-here")

	users.EXPECT().FindByEmail(ctx, user.Email).Return([]*entity.User{user}, nil)

	_, err := service.Authenticate(ctx, &usecase.CredentialsInput{Email: user.Email, Password: storedPassword})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrMalformedCredential))
	assert.False(t, errors.Is(err, domainerrors.ErrInvalidCredential))
}

func TestAuthService_Authenticate_Cancelled(t *testing.T) {
	service, users, _ := createScryptAuthService(t)

	ctx, cancel := context.WithCancel(context.Background())
	user := newUser("test@example.com", storedCredential)

	users.EXPECT().FindByEmail(ctx, user.Email).RunAndReturn(func(context.Context, string) ([]*entity.User, error) {
		cancel()

		return []*entity.User{user}, nil
	})

	_, err := service.Authenticate(ctx, &usecase.CredentialsInput{Email: user.Email, Password: storedPassword})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAuthService_CurrentUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		fx := createTestAuthService(t)
		user := newUser("test@example.com", storedCredential)

		fx.users.EXPECT().FindByID(mock.Anything, user.ID).Return(user, nil)

		got, err := fx.service.CurrentUser(context.Background(), user.ID)

		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("missing", func(t *testing.T) {
		fx := createTestAuthService(t)
		id := uuid.New()

		fx.users.EXPECT().FindByID(mock.Anything, id).Return(nil, repository.ErrUserNotFound)

		_, err := fx.service.CurrentUser(context.Background(), id)

		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
	})

	t.Run("database error", func(t *testing.T) {
		fx := createTestAuthService(t)
		id := uuid.New()
		dbErr := errors.New("timeout")

		fx.users.EXPECT().FindByID(mock.Anything, id).Return(nil, dbErr)

		_, err := fx.service.CurrentUser(context.Background(), id)

		require.Error(t, err)
		assert.True(t, errors.Is(err, dbErr))
		assert.False(t, errors.Is(err, domainerrors.ErrUserNotFound))
	})
}
